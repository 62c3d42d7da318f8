package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/Manuloff/customer-retention/pkg/util"
)

// ChannelSecretHeader carries the shared secret of the chat transport.
const ChannelSecretHeader = "X-Channel-Secret"

// RequireChannelSecret admits inbound chat events only when the header
// matches secret. An empty secret admits nothing.
func RequireChannelSecret(secret string) fiber.Handler {
	expected := []byte(secret)
	return func(c *fiber.Ctx) error {
		got := []byte(c.Get(ChannelSecretHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			return apperrors.NewUnauthorized("invalid channel secret")
		}
		return c.Next()
	}
}
