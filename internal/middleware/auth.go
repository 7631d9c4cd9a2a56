package middleware

import (
	"context"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// TokenVerifier is the part of the firebase auth client the middleware uses.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type AuthMiddleware struct {
	verifier   TokenVerifier
	authClient *auth.Client
}

func NewAuthMiddleware(ctx context.Context, app *firebase.App) (*AuthMiddleware, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &AuthMiddleware{verifier: client, authClient: client}, nil
}

// NewWithVerifier builds the middleware around any verifier. Client returns
// nil for middleware built this way.
func NewWithVerifier(v TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: v}
}

// bearer reads the ID token from the Authorization header. Browsers cannot
// set headers on websocket upgrades, so upgrade requests may pass ?token=
// instead. Plain requests never read the query.
func bearer(c echo.Context) string {
	authz := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	if req := c.Request(); req.Method == http.MethodGet && websocket.IsWebSocketUpgrade(req) {
		return strings.TrimSpace(c.QueryParam("token"))
	}
	return ""
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenStr := bearer(c)
		if tokenStr == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		token, err := m.verifier.VerifyIDToken(c.Request().Context(), tokenStr)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}
		c.Set("uid", token.UID)
		return next(c)
	}
}

func (m *AuthMiddleware) Client() *auth.Client {
	return m.authClient
}

// UID returns the verified user id, or "" on unauthenticated routes.
func UID(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}
