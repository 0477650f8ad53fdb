package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func authRequest(t *testing.T, decorate func(*http.Request)) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, AuthMiddleware(okHandler)(c)
}

func TestAuthMiddleware_ValidBearerToken(t *testing.T) {
	token, err := GenerateJWT(uuid.New(), "alice")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	rec, err := authRequest(t, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if err != nil {
		t.Fatalf("middleware error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthMiddleware_CookieFallback(t *testing.T) {
	token, err := GenerateJWT(uuid.New(), "alice")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	rec, err := authRequest(t, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "token", Value: token})
	})
	if err != nil {
		t.Fatalf("middleware error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, err := authRequest(t, nil)
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	_, err := authRequest(t, func(r *http.Request) {
		r.Header.Set("Authorization", "Token abc")
	})
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	claims := &JWTClaims{
		UserID:   uuid.New(),
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(GetJWTSecret()))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	_, err = authRequest(t, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestAuthMiddleware_WrongSigningKey(t *testing.T) {
	claims := &JWTClaims{
		UserID:   uuid.New(),
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	_, err = authRequest(t, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestAuthMiddleware_SetsIdentityInContext(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateJWT(userID, "alice")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	c := e.NewContext(req, httptest.NewRecorder())

	handler := AuthMiddleware(func(c echo.Context) error {
		if got := c.Get("username"); got != "alice" {
			t.Errorf("username in context = %v, want alice", got)
		}
		if got := c.Get("user_id"); got != userID {
			t.Errorf("user_id in context = %v, want %s", got, userID)
		}
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("middleware error = %v", err)
	}
}

func assertHTTPStatus(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an *echo.HTTPError")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("error = %T, want *echo.HTTPError", err)
	}
	if he.Code != want {
		t.Errorf("status = %d, want %d", he.Code, want)
	}
}
