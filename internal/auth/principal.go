// Package auth supplies the verified identity behind every request: JWT
// verification middleware, token issuance, and a one-time login code store
// backed by DynamoDB with a TTL.
package auth

import "github.com/gin-gonic/gin"

// Roles a principal can hold.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Principal is the authenticated identity making a request.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the principal holds the administrative capability.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

const principalKey = "auth.principal"

// FromContext returns the principal attached by RequireAuth.
func FromContext(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

func setPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}
