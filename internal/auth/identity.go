// Package auth holds admin credentials, identities and session tokens.
package auth

import "github.com/cTHE0/restaurant/pkg/errorbank"

// Identity is the authenticated admin acting on a request.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i.ID == 0 && i.Username == ""
}

// Require returns an Unauthorized error for a zero identity.
func Require(admin Identity) error {
	if admin.IsZero() {
		return errorbank.Unauthorized("admin authentication required")
	}
	return nil
}
