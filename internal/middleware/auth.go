package middleware

import (
	"github.com/emailcraft/billing-backend/internal/config"
	"github.com/emailcraft/billing-backend/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTProtected resolves the bearer token into claims on c.Locals("user").
// Token issuance lives in the identity service; this backend only consumes
// the resolved identity.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

// UserID returns the authenticated user's id ("sub" claim), or "" when the
// request carries no valid token.
func UserID(c *fiber.Ctx) string {
	sub, _ := claim(c, "sub")
	return sub
}

// UserEmail returns the authenticated user's email claim.
func UserEmail(c *fiber.Ctx) string {
	email, _ := claim(c, "email")
	return email
}

func claim(c *fiber.Ctx, key string) (string, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	val, _ := claims[key].(string)
	return val, val != ""
}
