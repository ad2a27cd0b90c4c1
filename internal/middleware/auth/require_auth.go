package auth

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/rainbowshop/backend/internal/apperr"
	"github.com/rainbowshop/backend/internal/models"
	"github.com/rainbowshop/backend/internal/token"
)

// Context keys set by RequireAuth.
const (
	CtxUserID = "userID"
	CtxUser   = "user"
)

// Gate resolves bearer tokens into request identities.
type Gate struct {
	DB     *gorm.DB
	Tokens *token.Service
}

// RequireAuth verifies the Authorization bearer token, loads the user and
// attaches it to the context. A blocked user is rejected even when the
// token itself still verifies.
func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearer(c)
		if raw == "" {
			return apperr.ErrUnauthorized
		}

		userID, err := g.Tokens.Verify(raw)
		if err != nil {
			return apperr.ErrInvalidToken
		}

		var user models.User
		if err := g.DB.WithContext(c.Request().Context()).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrInvalidToken
			}
			return err
		}
		if user.IsBlocked {
			return apperr.ErrAccountBlocked
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxUser, &user)
		return next(c)
	}
}

// RequireAdmin composes after RequireAuth and rejects non-admin identities.
func (g *Gate) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := c.Get(CtxUser).(*models.User)
		if !ok || !user.IsAdmin() {
			return apperr.ErrForbidden
		}
		return next(c)
	}
}

// UserID reads the identity RequireAuth attached.
func UserID(c echo.Context) uint {
	if id, ok := c.Get(CtxUserID).(uint); ok {
		return id
	}
	return 0
}

// CurrentUser reads the resolved user, nil when unauthenticated.
func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(CtxUser).(*models.User); ok {
		return u
	}
	return nil
}

func bearer(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}
