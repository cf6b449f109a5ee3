package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snake-eaterr/Snake-Way-Server/configs"
	domain "github.com/snake-eaterr/Snake-Way-Server/internal/entity"
)

func hsConfig() configs.Config {
	var c configs.Config
	c.Security.Signing = "hs256"
	c.Security.JWTSecret = "test-secret"
	return c
}

func rsaPEMs(t *testing.T) (pub, pri string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	priDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pub = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	pri = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: priDER}))
	return pub, pri
}

func newHS(t *testing.T) *Tokens {
	t.Helper()
	keys, err := LoadKeyMaterial(hsConfig())
	require.NoError(t, err)
	return NewTokens(keys, "shop-api", "shop-clients", time.Hour)
}

var luke = &domain.User{ID: "u-1", Username: "luke"}

func TestUserTokenRoundTrip(t *testing.T) {
	tok := newHS(t)
	raw, err := tok.Issue(luke)
	require.NoError(t, err)

	id, err := tok.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)
	assert.Equal(t, "luke", id.Username)

	_, err = tok.VerifyClient(raw)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestVerifyRejects(t *testing.T) {
	tok := newHS(t)
	raw, err := tok.Issue(luke)
	require.NoError(t, err)

	otherKeys := KeyMaterial{Method: jwt.SigningMethodHS256, Secret: []byte("other")}
	wrongAud := NewTokens(tok.keys, "shop-api", "someone-else", time.Hour)
	wrongIss := NewTokens(tok.keys, "evil", "shop-clients", time.Hour)
	expired := NewTokens(tok.keys, "shop-api", "shop-clients", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredRaw, err := expired.Issue(luke)
	require.NoError(t, err)

	tests := []struct {
		name string
		v    *Tokens
		raw  string
	}{
		{"garbage", tok, "not-a-jwt"},
		{"bad signature", NewTokens(otherKeys, "shop-api", "shop-clients", time.Hour), raw},
		{"audience", wrongAud, raw},
		{"issuer", wrongIss, raw},
		{"expired", tok, expiredRaw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.v.Verify(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestVerifyRejectsUnexpectedAlg(t *testing.T) {
	tok := newHS(t)
	c := Claims{TokenType: TokenTypeUser, RegisteredClaims: tok.registered("u-1")}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tok.Verify(raw)
	assert.Error(t, err)
}

func TestClientToken(t *testing.T) {
	tok := newHS(t)
	raw, err := tok.IssueClient(Client{ID: "warehouse", Perms: []string{PermOrdersShip}})
	require.NoError(t, err)

	c, err := tok.VerifyClient(raw)
	require.NoError(t, err)
	assert.Equal(t, "warehouse", c.ClientID)
	assert.Equal(t, []string{PermOrdersShip}, c.Perms)

	_, err = tok.Verify(raw)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestRS256(t *testing.T) {
	pub, pri := rsaPEMs(t)
	var c configs.Config
	c.Security.Signing = "RS256"
	c.Security.RSAPubPEM = pub
	c.Security.RSAPriPEM = pri

	keys, err := LoadKeyMaterial(c)
	require.NoError(t, err)
	tok := NewTokens(keys, "shop-api", "shop-clients", time.Hour)

	raw, err := tok.Issue(luke)
	require.NoError(t, err)
	id, err := tok.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)

	// a node holding only the public key can verify but not sign
	c.Security.RSAPriPEM = ""
	verifyOnly, err := LoadKeyMaterial(c)
	require.NoError(t, err)
	v := NewTokens(verifyOnly, "shop-api", "shop-clients", time.Hour)
	_, err = v.Verify(raw)
	require.NoError(t, err)
	_, err = v.Issue(luke)
	assert.Error(t, err)
}

func TestLoadKeyMaterialErrors(t *testing.T) {
	var c configs.Config
	_, err := LoadKeyMaterial(c)
	assert.Error(t, err)

	c.Security.Signing = "rs256"
	c.Security.RSAPubPEM = "nope"
	_, err = LoadKeyMaterial(c)
	assert.Error(t, err)

	c.Security.Signing = "es256"
	_, err = LoadKeyMaterial(c)
	assert.Error(t, err)
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: 4}
	hash, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)
	assert.True(t, h.Verify("password123", hash))
	assert.False(t, h.Verify("password124", hash))
	assert.False(t, h.Verify("password123", "not-a-hash"))
}

func TestClientRegistry(t *testing.T) {
	r := NewClientRegistry([]configs.Client{
		{ID: "warehouse", Secret: "s1", Perms: []string{PermOrdersShip}, Enabled: true},
		{ID: "retired", Secret: "s2", Enabled: false},
	})

	cl, ok := r.Authenticate("warehouse", "s1")
	require.True(t, ok)
	assert.Equal(t, []string{PermOrdersShip}, cl.Perms)

	_, ok = r.Authenticate("warehouse", "s2")
	assert.False(t, ok)
	_, ok = r.Authenticate("retired", "s2")
	assert.False(t, ok)
	_, ok = r.Authenticate("ghost", "")
	assert.False(t, ok)
}
