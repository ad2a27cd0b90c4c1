package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rainbowshop/backend/internal/apperr"
	"github.com/rainbowshop/backend/internal/config"
	"github.com/rainbowshop/backend/internal/models"
	"github.com/rainbowshop/backend/internal/token"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return &Gate{DB: db, Tokens: token.New([]byte("test-secret"))}
}

func request(g *Gate, header string) (echo.Context, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	err := g.RequireAuth(func(c echo.Context) error { return nil })(c)
	return c, err
}

func TestRequireAuth(t *testing.T) {
	g := newTestGate(t)

	user := models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, g.DB.Create(&user).Error)
	raw, err := g.Tokens.Issue(user.ID)
	require.NoError(t, err)

	c, err := request(g, "Bearer "+raw)
	require.NoError(t, err)
	require.Equal(t, user.ID, UserID(c))
	require.Equal(t, "alice@example.com", CurrentUser(c).Email)
}

func TestRequireAuthRejections(t *testing.T) {
	g := newTestGate(t)

	user := models.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "x", IsBlocked: true}
	require.NoError(t, g.DB.Create(&user).Error)
	blockedToken, err := g.Tokens.Issue(user.ID)
	require.NoError(t, err)
	ghostToken, err := g.Tokens.Issue(9999)
	require.NoError(t, err)

	_, err = request(g, "")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = request(g, "Token abc")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = request(g, "Bearer garbage")
	require.ErrorIs(t, err, apperr.ErrInvalidToken)

	_, err = request(g, "Bearer "+ghostToken)
	require.ErrorIs(t, err, apperr.ErrInvalidToken)

	// A valid token no longer admits a blocked account.
	_, err = request(g, "Bearer "+blockedToken)
	require.ErrorIs(t, err, apperr.ErrAccountBlocked)
}

func TestRequireAdmin(t *testing.T) {
	g := newTestGate(t)
	e := echo.New()
	next := func(c echo.Context) error { return nil }

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	require.ErrorIs(t, g.RequireAdmin(next)(c), apperr.ErrForbidden)

	c.Set(CtxUser, &models.User{Role: models.RoleUser})
	require.ErrorIs(t, g.RequireAdmin(next)(c), apperr.ErrForbidden)

	c.Set(CtxUser, &models.User{Role: models.RoleAdmin})
	require.NoError(t, g.RequireAdmin(next)(c))
}
