package tokens

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims carry the identity (sub), the jti used as revocation key, the
// fresh flag and the token type on top of the registered JWT claims.
type Claims struct {
	Fresh bool `json:"fresh"`
	Type  Type `json:"type"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() string { return c.Subject }

func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("subject %q is not a user id: %w", c.Subject, err)
	}
	return uint(id), nil
}

func IdentityOf(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}
