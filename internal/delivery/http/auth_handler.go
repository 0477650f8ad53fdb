package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"paperledger/internal/delivery/http/dto"
	"paperledger/internal/domain"
	"paperledger/internal/middleware"
)

// AuthHandler handles authentication-related requests. This is the
// conventional user-store collaborator: it owns registration and credential
// checks but never touches positions.
type AuthHandler struct {
	userRepo     domain.UserRepository
	startingCash decimal.Decimal
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo domain.UserRepository, startingCash decimal.Decimal) *AuthHandler {
	return &AuthHandler{
		userRepo:     userRepo,
		startingCash: startingCash,
	}
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Username == "" || req.Password == "" {
		return BadRequestResponse(c, "Username and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return UnauthorizedResponse(c, "Invalid credentials")
	}

	token, err := middleware.GenerateJWT(user.ID, user.Username)
	if err != nil {
		log.Printf("ERROR: Failed to generate token for %s: %v", user.Username, err)
		return InternalServerErrorResponse(c, "Failed to generate token")
	}

	h.setTokenCookie(c, token)

	return SuccessResponse(c, dto.LoginResponse{
		Token: token,
		User:  userOutput(user),
	})
}

// Register handles user registration
// POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Username == "" || req.Password == "" {
		return BadRequestResponse(c, "Username and password are required")
	}
	if len(req.Password) < 6 {
		return BadRequestResponse(c, "Password must be at least 6 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.userRepo.GetByUsername(ctx, req.Username); err == nil {
		return ConflictResponse(c, "Username already exists")
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		log.Printf("ERROR: Registration lookup failed for %s: %v", req.Username, err)
		return InternalServerErrorResponse(c, "Registration failed")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: Failed to hash password: %v", err)
		return InternalServerErrorResponse(c, "Registration failed")
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: string(hashed),
		CashBalance:  h.startingCash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := h.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return ConflictResponse(c, "Username already exists")
		}
		log.Printf("ERROR: Failed to create user %s: %v", req.Username, err)
		return InternalServerErrorResponse(c, "Registration failed")
	}

	log.Printf("[OK] Registered new user: %s", user.Username)
	return CreatedResponse(c, userOutput(user))
}

// UpdatePassword replaces a user's password
// POST /api/auth/update-password
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	var req dto.UpdatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Username == "" || len(req.NewPassword) < 6 {
		return BadRequestResponse(c, "Password must be at least 6 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: Failed to hash password: %v", err)
		return InternalServerErrorResponse(c, "Password update failed")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.userRepo.UpdatePassword(ctx, req.Username, string(hashed)); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return NotFoundResponse(c, "User not found")
		}
		log.Printf("ERROR: Password update failed for %s: %v", req.Username, err)
		return InternalServerErrorResponse(c, "Password update failed")
	}

	return SuccessMessageResponse(c, "Password updated successfully", nil)
}

// UpdateEmail renames a user to their new email address
// POST /api/auth/update-email
func (h *AuthHandler) UpdateEmail(c echo.Context) error {
	var req dto.UpdateEmailRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Username == "" || req.NewEmail == "" {
		return BadRequestResponse(c, "Username and new email are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.userRepo.Rename(ctx, req.Username, req.NewEmail); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return NotFoundResponse(c, "User not found")
		}
		log.Printf("ERROR: Email update failed for %s: %v", req.Username, err)
		return InternalServerErrorResponse(c, "Email update failed")
	}

	return SuccessMessageResponse(c, "Email updated successfully", nil)
}

// GoogleLogin provisions or signs in a user from a Google ID token.
// The token signature is NOT verified here; this mirrors the dev-only
// social login and must sit behind a trusted proxy in production.
// POST /api/auth/google-login
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	var req dto.GoogleTokenRequest
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return BadRequestResponse(c, "Invalid request payload")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(req.Token, claims); err != nil {
		return BadRequestResponse(c, "Invalid token")
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return BadRequestResponse(c, "Invalid token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.userRepo.GetByUsername(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		user = &domain.User{
			ID:           uuid.New(),
			Username:     email,
			PasswordHash: "google", // no local password for social accounts
			CashBalance:  h.startingCash,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if err := h.userRepo.Create(ctx, user); err != nil {
			log.Printf("ERROR: Failed to provision google user %s: %v", email, err)
			return InternalServerErrorResponse(c, "Google login failed")
		}
		log.Printf("[OK] Provisioned google user: %s", email)
	} else if err != nil {
		log.Printf("ERROR: Google login lookup failed for %s: %v", email, err)
		return InternalServerErrorResponse(c, "Google login failed")
	}

	token, err := middleware.GenerateJWT(user.ID, user.Username)
	if err != nil {
		log.Printf("ERROR: Failed to generate token for %s: %v", email, err)
		return InternalServerErrorResponse(c, "Google login failed")
	}
	h.setTokenCookie(c, token)

	return SuccessResponse(c, dto.LoginResponse{
		Token: token,
		User:  userOutput(user),
	})
}

// Logout clears the auth cookie
// POST /api/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return SuccessMessageResponse(c, "Logged out", nil)
}

func (h *AuthHandler) setTokenCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   86400, // 24 hours
	})
}

func userOutput(user *domain.User) *dto.UserOutput {
	return &dto.UserOutput{
		ID:          user.ID.String(),
		Username:    user.Username,
		CashBalance: user.CashBalance.StringFixed(2),
	}
}
