package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/snake-eaterr/Snake-Way-Server/configs"
)

// KeyMaterial holds what Tokens needs to sign and verify.
// For HS256 only Secret is set; for RS256 RSAPri may be nil on verify-only nodes.
type KeyMaterial struct {
	Method jwt.SigningMethod
	Secret []byte
	RSAPub *rsa.PublicKey
	RSAPri *rsa.PrivateKey
}

func LoadKeyMaterial(c configs.Config) (KeyMaterial, error) {
	switch strings.ToLower(c.Security.Signing) {
	case "", "hs256":
		if c.Security.JWTSecret == "" {
			return KeyMaterial{}, errors.New("missing jwt_secret")
		}
		return KeyMaterial{Method: jwt.SigningMethodHS256, Secret: []byte(c.Security.JWTSecret)}, nil

	case "rs256":
		pub, err := parseRSAPublicKeyFromPEM([]byte(c.Security.RSAPubPEM))
		if err != nil {
			return KeyMaterial{}, fmt.Errorf("parse rsa pub pem: %w", err)
		}
		var pri *rsa.PrivateKey
		if c.Security.RSAPriPEM != "" {
			pri, err = parseRSAPrivateKeyFromPEM([]byte(c.Security.RSAPriPEM))
			if err != nil {
				return KeyMaterial{}, fmt.Errorf("parse rsa pri pem: %w", err)
			}
		}
		return KeyMaterial{Method: jwt.SigningMethodRS256, RSAPub: pub, RSAPri: pri}, nil

	default:
		return KeyMaterial{}, fmt.Errorf("unsupported signing method %q", c.Security.Signing)
	}
}

func (k KeyMaterial) signingKey() (any, error) {
	if k.Method == jwt.SigningMethodRS256 {
		if k.RSAPri == nil {
			return nil, errors.New("no rsa private key configured")
		}
		return k.RSAPri, nil
	}
	return k.Secret, nil
}

func (k KeyMaterial) verifyKey() any {
	if k.Method == jwt.SigningMethodRS256 {
		return k.RSAPub
	}
	return k.Secret
}

func parseRSAPublicKeyFromPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no pem block")
	}
	pubAny, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := pubAny.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not rsa public key")
	}
	return pub, nil
}

func parseRSAPrivateKeyFromPEM(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no pem block in RSA private key")
	}

	// try PKCS#8 first
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err == nil {
		if rsaKey, ok := key.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
		return nil, errors.New("not an RSA private key in PKCS#8")
	}

	rsaKey, err2 := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err2 != nil {
		return nil, fmt.Errorf("parse RSA private key failed (PKCS#8: %v, PKCS#1: %v)", err, err2)
	}
	return rsaKey, nil
}
