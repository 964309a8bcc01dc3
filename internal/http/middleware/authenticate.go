package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"filevault/internal/model"
	"filevault/internal/session"
)

const (
	// UserLocalKey holds the authenticated *model.User.
	UserLocalKey = "user"
	// ShareTokenParam is the route parameter carrying a share token.
	ShareTokenParam = "token"
)

// Authenticator resolves an Authorization header to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*model.User, error)
}

// ErrUnauthenticated is the single answer for every session failure, so callers
// cannot tell a forged token from an expired one or a deleted account.
var ErrUnauthenticated = fiber.NewError(fiber.StatusUnauthorized, "authentication required")

// Authenticate rejects requests without a valid session and stores the user under UserLocalKey.
func Authenticate(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := auth.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			if isSessionError(err) {
				c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="filevault"`)
				return ErrUnauthenticated
			}
			return err
		}
		c.Locals(UserLocalKey, u)
		return c.Next()
	}
}

// UserFrom returns the user stored by Authenticate. It panics when the route is not behind Authenticate.
func UserFrom(c *fiber.Ctx) *model.User {
	return c.Locals(UserLocalKey).(*model.User)
}

func isSessionError(err error) bool {
	return errors.Is(err, session.ErrSessionExpired) ||
		errors.Is(err, session.ErrSessionMalformed) ||
		errors.Is(err, session.ErrSessionUnknown)
}
