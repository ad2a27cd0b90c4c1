package auth

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rainbowshop/backend/internal/apperr"
	"github.com/rainbowshop/backend/internal/config"
	"github.com/rainbowshop/backend/internal/token"
)

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return &AuthService{DB: db, Tokens: token.New([]byte("test-secret"))}
}

func intPtr(v int) *int { return &v }

func TestRegisterIssuesToken(t *testing.T) {
	s := newTestService(t)

	res, err := s.Register(context.Background(), "Alice", "Alice@Example.com", "secret1", intPtr(30), "")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, "user", res.User.Role)
	require.Equal(t, "alice@example.com", res.User.Email)
	require.NotNil(t, res.User.LastLogin)

	id, err := s.Tokens.Verify(res.Token)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, id)
}

func TestRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	s := newTestService(t)

	_, err := s.Register(context.Background(), "Alice", "alice@example.com", "secret1", nil, "")
	require.NoError(t, err)

	_, err = s.Register(context.Background(), "Other", "ALICE@EXAMPLE.COM", "secret2", nil, "")
	require.ErrorIs(t, err, apperr.ErrDuplicateEmail)
}

func TestRegisterAgeBounds(t *testing.T) {
	s := newTestService(t)

	_, err := s.Register(context.Background(), "Kid", "kid@example.com", "secret1", intPtr(17), "")
	require.ErrorIs(t, err, apperr.ErrInvalidAge)

	_, err = s.Register(context.Background(), "Old", "old@example.com", "secret1", intPtr(121), "")
	require.ErrorIs(t, err, apperr.ErrInvalidAge)

	_, err = s.Register(context.Background(), "Edge", "edge@example.com", "secret1", intPtr(18), "")
	require.NoError(t, err)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	s := newTestService(t)

	_, err := s.Register(context.Background(), "X", "x@example.com", "secret1", nil, "superuser")
	require.ErrorIs(t, err, apperr.ErrInvalidRole)
}

func TestLoginWrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	s := newTestService(t)

	_, err := s.Register(context.Background(), "Alice", "alice@example.com", "secret1", nil, "")
	require.NoError(t, err)

	_, errWrongPw := s.Login(context.Background(), "alice@example.com", "nope")
	_, errNoUser := s.Login(context.Background(), "ghost@example.com", "nope")

	require.ErrorIs(t, errWrongPw, apperr.ErrInvalidCredentials)
	require.ErrorIs(t, errNoUser, apperr.ErrInvalidCredentials)
	require.Equal(t, errWrongPw.Error(), errNoUser.Error())
}

func TestLoginBlockedUser(t *testing.T) {
	s := newTestService(t)

	res, err := s.Register(context.Background(), "Alice", "alice@example.com", "secret1", nil, "")
	require.NoError(t, err)

	require.NoError(t, s.DB.Table("users").
		Where("id = ?", res.User.ID).Update("is_blocked", true).Error)

	_, err = s.Login(context.Background(), "alice@example.com", "secret1")
	require.ErrorIs(t, err, apperr.ErrAccountBlocked)
}

func TestUpdateProfilePartial(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	res, err := s.Register(ctx, "Alice", "alice@example.com", "secret1", intPtr(30), "")
	require.NoError(t, err)

	name := "Alicia"
	p, err := s.UpdateProfile(ctx, res.User.ID, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Alicia", p.Name)
	require.Equal(t, "alice@example.com", p.Email)
	require.Equal(t, 30, *p.Age)
}

func TestUpdateProfileEmailTaken(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a, err := s.Register(ctx, "Alice", "alice@example.com", "secret1", nil, "")
	require.NoError(t, err)
	_, err = s.Register(ctx, "Bob", "bob@example.com", "secret1", nil, "")
	require.NoError(t, err)

	taken := "Bob@Example.com"
	_, err = s.UpdateProfile(ctx, a.User.ID, ProfileUpdate{Email: &taken})
	require.ErrorIs(t, err, apperr.ErrEmailTaken)

	// Re-submitting your own address is not a conflict.
	own := "ALICE@example.com"
	p, err := s.UpdateProfile(ctx, a.User.ID, ProfileUpdate{Email: &own})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", p.Email)
}

func TestChangePassword(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	res, err := s.Register(ctx, "Alice", "alice@example.com", "secret1", nil, "")
	require.NoError(t, err)

	require.ErrorIs(t, s.ChangePassword(ctx, res.User.ID, "wrong", "next-pw"), apperr.ErrWrongPassword)
	require.NoError(t, s.ChangePassword(ctx, res.User.ID, "secret1", "next-pw"))

	_, err = s.Login(ctx, "alice@example.com", "next-pw")
	require.NoError(t, err)
}

func TestAdminSelfActionForbidden(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	admin, err := s.Register(ctx, "Root", "root@example.com", "secret1", intPtr(40), "admin")
	require.NoError(t, err)

	_, err = s.ToggleBlock(ctx, admin.User.ID, admin.User.ID, true)
	require.ErrorIs(t, err, apperr.ErrSelfAction)

	_, err = s.ChangeRole(ctx, admin.User.ID, admin.User.ID, "user")
	require.ErrorIs(t, err, apperr.ErrSelfAction)

	require.ErrorIs(t, s.DeleteUser(ctx, admin.User.ID, admin.User.ID), apperr.ErrSelfAction)
}

func TestChangeRoleValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	admin, err := s.Register(ctx, "Root", "root@example.com", "secret1", intPtr(40), "admin")
	require.NoError(t, err)
	target, err := s.Register(ctx, "Bob", "bob@example.com", "secret1", nil, "")
	require.NoError(t, err)

	_, err = s.ChangeRole(ctx, admin.User.ID, target.User.ID, "wizard")
	require.ErrorIs(t, err, apperr.ErrInvalidRole)

	p, err := s.ChangeRole(ctx, admin.User.ID, target.User.ID, "admin")
	require.NoError(t, err)
	require.Equal(t, "admin", p.Role)
}

func TestListUsersPagination(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := s.Register(ctx, "U", string(rune('a'+i))+"@example.com", "secret1", nil, "")
		require.NoError(t, err)
	}

	page, err := s.ListUsers(ctx, 2, 5)
	require.NoError(t, err)
	require.Len(t, page.Users, 5)
	require.Equal(t, 2, page.CurrentPage)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, int64(12), page.TotalUsers)
}

func TestRegisterAdminRequiresAge(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.RegisterAdmin(ctx, "Root", "root@example.com", "secret1", nil)
	require.ErrorIs(t, err, apperr.ErrInvalidAge)

	p, err := s.RegisterAdmin(ctx, "Root", "root@example.com", "secret1", intPtr(35))
	require.NoError(t, err)
	require.Equal(t, "admin", p.Role)
}
