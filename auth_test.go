package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func testAdmin(t *testing.T, email, password string) *Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return &Admin{ID: 1, Email: email, PasswordHash: string(hash), IsActive: true}
}

func TestAdminLoginSuccessSetsCookie(t *testing.T) {
	app, router := newConsoleTestServer(t)
	admin := testAdmin(t, "admin@ddtours.com", "secret")
	app.getAdminByEmail = func(ctx context.Context, email string) (*Admin, error) {
		assert.Equal(t, "admin@ddtours.com", email)
		return admin, nil
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(`{"email":"Admin@DDTours.com","password":"secret"}`))
	req.Header.Set("content-type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@ddtours.com")

	var sessionCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == adminCookieName {
			sessionCookie = cookie
		}
	}
	if assert.NotNil(t, sessionCookie) {
		session, err := app.verifyAdminSessionToken(sessionCookie.Value)
		assert.NoError(t, err)
		assert.Equal(t, "admin@ddtours.com", session.Email)
	}
}

func TestAdminLoginWrongPassword(t *testing.T) {
	app, router := newConsoleTestServer(t)
	admin := testAdmin(t, "admin@ddtours.com", "secret")
	app.getAdminByEmail = func(ctx context.Context, email string) (*Admin, error) {
		return admin, nil
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(`{"email":"admin@ddtours.com","password":"wrong"}`))
	req.Header.Set("content-type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_credentials")
}

func TestAdminLoginUnknownEmail(t *testing.T) {
	app, router := newConsoleTestServer(t)
	app.getAdminByEmail = func(ctx context.Context, email string) (*Admin, error) {
		return nil, nil
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(`{"email":"nope@ddtours.com","password":"secret"}`))
	req.Header.Set("content-type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminLoginInactiveAccount(t *testing.T) {
	app, router := newConsoleTestServer(t)
	admin := testAdmin(t, "admin@ddtours.com", "secret")
	admin.IsActive = false
	app.getAdminByEmail = func(ctx context.Context, email string) (*Admin, error) {
		return admin, nil
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader(`{"email":"admin@ddtours.com","password":"secret"}`))
	req.Header.Set("content-type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminSessionHandler(t *testing.T) {
	app, router := newConsoleTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authenticatedRequest(t, app, http.MethodGet, "/api/v1/admin/session", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@ddtours.com")
}

func TestRequireAdminSessionAcceptsBearerToken(t *testing.T) {
	app, router := newConsoleTestServer(t)
	token, err := app.createAdminSessionToken(AdminSession{Email: "admin@ddtours.com"})
	assert.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdminSessionRejectsGarbageToken(t *testing.T) {
	_, router := newConsoleTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/session", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminLogoutClearsCookie(t *testing.T) {
	app, router := newConsoleTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authenticatedRequest(t, app, http.MethodPost, "/api/v1/admin/logout", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	var cleared *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == adminCookieName {
			cleared = cookie
		}
	}
	if assert.NotNil(t, cleared) {
		assert.Empty(t, cleared.Value)
		assert.True(t, cleared.MaxAge < 0)
	}
}
