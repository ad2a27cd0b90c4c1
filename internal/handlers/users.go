package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	mwauth "github.com/rainbowshop/backend/internal/middleware/auth"
	"github.com/rainbowshop/backend/internal/transport/response"
)

// Admin user management. Every handler here runs behind RequireAdmin.

func (h *AuthHandler) ListUsers(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), 10)

	res, err := h.Auth.ListUsers(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}

	return response.OK(c, http.StatusOK, "", map[string]any{
		"users": res.Users,
		"pagination": map[string]any{
			"currentPage":  res.CurrentPage,
			"totalPages":   res.TotalPages,
			"totalUsers":   res.TotalUsers,
			"usersPerPage": limit,
		},
	})
}

func (h *AuthHandler) GetUserByID(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	profile, err := h.Auth.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "", map[string]any{"user": profile})
}

func (h *AuthHandler) ToggleBlock(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	var req struct {
		IsBlocked bool `json:"isBlocked"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.Auth.ToggleBlock(c.Request().Context(), mwauth.UserID(c), id, req.IsBlocked)
	if err != nil {
		return err
	}

	action := "unblocked"
	if req.IsBlocked {
		action = "blocked"
	}
	return response.OK(c, http.StatusOK, fmt.Sprintf("User %s successfully", action), map[string]any{"user": profile})
}

func (h *AuthHandler) ChangeRole(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	var req struct {
		Role string `json:"role" validate:"required"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.Auth.ChangeRole(c.Request().Context(), mwauth.UserID(c), id, req.Role)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, fmt.Sprintf("User role changed to %s successfully", req.Role), map[string]any{"user": profile})
}

func (h *AuthHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c, "userId")
	if err != nil {
		return err
	}
	if err := h.Auth.DeleteUser(c.Request().Context(), mwauth.UserID(c), id); err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "User deleted successfully", nil)
}

func (h *AuthHandler) RegisterAdmin(c echo.Context) error {
	var req struct {
		Name     string `json:"name" validate:"required,max=50"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Age      *int   `json:"age"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.Auth.RegisterAdmin(c.Request().Context(), req.Name, req.Email, req.Password, req.Age)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusCreated, "Admin user created successfully", map[string]any{"user": profile})
}
