package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rainbowshop/backend/internal/apperr"
	"github.com/rainbowshop/backend/internal/hash"
	"github.com/rainbowshop/backend/internal/logging"
	"github.com/rainbowshop/backend/internal/models"
	"github.com/rainbowshop/backend/internal/token"
	"github.com/rainbowshop/backend/internal/util"
)

const (
	minAge = 18
	maxAge = 120
)

type AuthService struct {
	DB     *gorm.DB
	Tokens *token.Service
}

// AuthResult pairs the profile view with a freshly issued token.
type AuthResult struct {
	User  models.Profile
	Token string
}

// ProfileUpdate carries the optional fields of a partial profile update.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Age   *int
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users       []models.Profile
	CurrentPage int
	TotalPages  int
	TotalUsers  int64
}

func ageValid(age int) bool { return age >= minAge && age <= maxAge }

func (s *AuthService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) findByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Register creates a user, stamps lastLogin and issues a token.
func (s *AuthService) Register(ctx context.Context, name, email, password string, age *int, role string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, apperr.ErrInvalidRole
	}
	if age != nil && !ageValid(*age) {
		return nil, apperr.ErrInvalidAge
	}

	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		l.Warn("register_rejected", "reason", "duplicate email")
		return nil, apperr.ErrDuplicateEmail
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := models.User{
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: pwHash,
		Age:          age,
		Role:         role,
		LastLogin:    &now,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		l.Error("register_failed", "reason", "db create", "error", err)
		return nil, err
	}

	tok, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	l.Info("user_registered", "user_id", user.ID)
	return &AuthResult{User: user.Profile(), Token: tok}, nil
}

// Login verifies credentials and issues a token. A missing user and a
// password mismatch are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.ErrInvalidCredentials
	}
	if user.IsBlocked {
		l.Warn("login_rejected", "reason", "blocked", "user_id", user.ID)
		return nil, apperr.ErrAccountBlocked
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.DB.WithContext(ctx).Model(user).Update("last_login", now).Error; err != nil {
		return nil, err
	}

	tok, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	l.Info("user_logged_in", "user_id", user.ID)
	return &AuthResult{User: user.Profile(), Token: tok}, nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

// UpdateProfile applies only the supplied fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, upd ProfileUpdate) (*models.Profile, error) {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Email != nil {
		newEmail := strings.ToLower(*upd.Email)
		if newEmail != user.Email {
			existing, err := s.findByEmail(ctx, newEmail)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, apperr.ErrEmailTaken
			}
		}
		user.Email = newEmail
	}
	if upd.Age != nil {
		if !ageValid(*upd.Age) {
			return nil, apperr.ErrInvalidAge
		}
		user.Age = upd.Age
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}

	if err := s.DB.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	p := user.Profile()
	return &p, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, current) {
		return apperr.ErrWrongPassword
	}
	pwHash, err := hash.HashPassword(next)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Model(user).Update("password_hash", pwHash).Error
}

// PurchaseHistory returns the user's orders, newest first, with line items.
func (s *AuthService) PurchaseHistory(ctx context.Context, userID uint) ([]models.Order, error) {
	if _, err := s.findByID(ctx, userID); err != nil {
		return nil, err
	}
	var orders []models.Order
	err := s.DB.WithContext(ctx).
		Preload("Products").
		Where("user_id = ?", userID).
		Order("order_date DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListUsers pages over all users, newest first, passwords excluded.
func (s *AuthService) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	offset, limit := util.Calculate(page, limit)
	if page < 1 {
		page = 1
	}

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	err := s.DB.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	profiles := make([]models.Profile, len(users))
	for i := range users {
		profiles[i] = users[i].Profile()
	}

	return &UserPage{
		Users:       profiles,
		CurrentPage: page,
		TotalPages:  util.TotalPages(total, limit),
		TotalUsers:  total,
	}, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*models.Profile, error) {
	return s.GetProfile(ctx, id)
}

// ToggleBlock sets the blocked flag. Admins cannot block themselves.
func (s *AuthService) ToggleBlock(ctx context.Context, actorID, targetID uint, blocked bool) (*models.Profile, error) {
	user, err := s.findByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user.ID == actorID {
		return nil, apperr.ErrSelfAction
	}
	if err := s.DB.WithContext(ctx).Model(user).Update("is_blocked", blocked).Error; err != nil {
		return nil, err
	}
	user.IsBlocked = blocked
	p := user.Profile()
	return &p, nil
}

// ChangeRole switches the target between user and admin. Admins cannot
// change their own role.
func (s *AuthService) ChangeRole(ctx context.Context, actorID, targetID uint, role string) (*models.Profile, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, apperr.ErrInvalidRole
	}
	user, err := s.findByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if user.ID == actorID {
		return nil, apperr.ErrSelfAction
	}
	if err := s.DB.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role
	p := user.Profile()
	return &p, nil
}

// DeleteUser hard-deletes the target account. Admins cannot delete
// themselves.
func (s *AuthService) DeleteUser(ctx context.Context, actorID, targetID uint) error {
	user, err := s.findByID(ctx, targetID)
	if err != nil {
		return err
	}
	if user.ID == actorID {
		return apperr.ErrSelfAction
	}
	return s.DB.WithContext(ctx).Delete(user).Error
}

// RegisterAdmin creates an admin account. Age is mandatory here.
func (s *AuthService) RegisterAdmin(ctx context.Context, name, email, password string, age *int) (*models.Profile, error) {
	if age == nil || !ageValid(*age) {
		return nil, apperr.ErrInvalidAge
	}

	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.ErrDuplicateEmail
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: pwHash,
		Age:          age,
		Role:         models.RoleAdmin,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("admin_registered", "svc", "auth.register_admin", "user_id", user.ID)
	p := user.Profile()
	return &p, nil
}
