package security

import (
	"crypto/subtle"

	"github.com/snake-eaterr/Snake-Way-Server/configs"
)

// Permissions granted to machine clients.
const (
	PermOrdersRead = "orders.read"
	PermOrdersShip = "orders.ship"
)

type Client struct {
	ID      string
	Secret  string
	Perms   []string // e.g. {"orders.read","orders.ship"}
	Enabled bool
}

// ClientRegistry is the set of clients loaded from security.clients.
type ClientRegistry struct {
	clients map[string]Client
}

func NewClientRegistry(cfg []configs.Client) *ClientRegistry {
	r := &ClientRegistry{clients: make(map[string]Client, len(cfg))}
	for _, c := range cfg {
		r.clients[c.ID] = Client{ID: c.ID, Secret: c.Secret, Perms: c.Perms, Enabled: c.Enabled}
	}
	return r
}

// Authenticate returns the client when id and secret match an enabled entry.
func (r *ClientRegistry) Authenticate(id, secret string) (Client, bool) {
	cl, ok := r.clients[id]
	if !ok || !cl.Enabled || cl.Secret == "" {
		return Client{}, false
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(cl.Secret)) != 1 {
		return Client{}, false
	}
	return cl, true
}
