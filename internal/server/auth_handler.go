package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/types"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	userService *UserService
	jwtService  *JWTService
	validator   *validator.Validate
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService *UserService, jwtService *JWTService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
		validator:   validator.New(),
	}
}

// Register handles user registration requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	h.issueToken(w, http.StatusCreated, user)
}

// Login handles user login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	h.issueToken(w, http.StatusOK, user)
}

// Logout revokes the bearer token of the request.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.GetClaims(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.jwtService.Revoke(r.Context(), claims); err != nil {
		statusErrorResponse(w, fmt.Errorf("failed to revoke token: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePassword changes the password of the authenticated user.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req types.UpdatePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err = h.userService.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, status int, user *types.User) {
	token, expiresAt, err := h.jwtService.GenerateToken(user.ID)
	if err != nil {
		log.Printf("[auth] token generation for %s failed: %v", user.ID, err)
		errorResponse(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	jsonResponse(w, status, types.LoginResponse{User: user, Token: token, ExpiresAt: expiresAt})
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeAndValidate(w, r, h.validator, dst)
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := v.Struct(dst); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return false
	}
	return true
}

// extractValidationErrors extracts validation error messages from validator errors.
func extractValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	return "validation error: invalid request"
}
