package auth

import (
	"github.com/labstack/echo/v4"

	"civicfix/internal/model"
)

// identityContextKey is the echo context key holding the resolved Identity.
const identityContextKey = "identity"

// Identity is the request-scoped caller passed explicitly into every engine
// call. There is no ambient session: the middleware resolves it from the
// verified token and the user store, and handlers thread it through.
type Identity struct {
	Email       string
	DisplayName string
	Role        model.Role
	IsBlocked   bool
	IsPremium   bool
}

// IdentityFromUser builds an Identity from a stored user record.
func IdentityFromUser(u *model.User) Identity {
	return Identity{
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		IsBlocked:   u.IsBlocked,
		IsPremium:   u.IsPremium,
	}
}

// SetIdentity stores the identity on the echo context.
func SetIdentity(c echo.Context, id Identity) {
	c.Set(identityContextKey, id)
}

// GetIdentity returns the identity resolved by the middleware.
func GetIdentity(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityContextKey).(Identity)
	return id, ok
}
