package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rainbowshop/backend/internal/events"
	mwauth "github.com/rainbowshop/backend/internal/middleware/auth"
	"github.com/rainbowshop/backend/internal/service/auth"
	"github.com/rainbowshop/backend/internal/transport/response"
)

type AuthHandler struct {
	Auth     *auth.AuthService
	Producer *events.Producer
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Name     string `json:"name" validate:"required,max=50"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Age      *int   `json:"age"`
		Role     string `json:"role"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.Auth.Register(c.Request().Context(), req.Name, req.Email, req.Password, req.Age, req.Role)
	if err != nil {
		return err
	}

	publish(c, h.Producer, events.TopicUsers, fmt.Sprint(res.User.ID), map[string]any{
		"type":   "user_registered",
		"userId": res.User.ID,
		"email":  res.User.Email,
	})

	return response.OK(c, http.StatusCreated, "User registered successfully", map[string]any{
		"user":  res.User,
		"token": res.Token,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	publish(c, h.Producer, events.TopicUsers, fmt.Sprint(res.User.ID), map[string]any{
		"type":   "user_logged_in",
		"userId": res.User.ID,
	})

	return response.OK(c, http.StatusOK, "Login successful", map[string]any{
		"user":  res.User,
		"token": res.Token,
	})
}

func (h *AuthHandler) GetProfile(c echo.Context) error {
	profile, err := h.Auth.GetProfile(c.Request().Context(), mwauth.UserID(c))
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "", map[string]any{"user": profile})
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	var req struct {
		Name  *string `json:"name" validate:"omitempty,max=50"`
		Email *string `json:"email" validate:"omitempty,email"`
		Age   *int    `json:"age"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.Auth.UpdateProfile(c.Request().Context(), mwauth.UserID(c), auth.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
		Age:   req.Age,
	})
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Profile updated successfully", map[string]any{"user": profile})
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=6"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.Auth.ChangePassword(c.Request().Context(), mwauth.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "Password changed successfully", nil)
}

func (h *AuthHandler) PurchaseHistory(c echo.Context) error {
	orders, err := h.Auth.PurchaseHistory(c.Request().Context(), mwauth.UserID(c))
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "", map[string]any{"purchaseHistory": orders})
}
