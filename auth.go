package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type Admin struct {
	ID           int
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    string
	UpdatedAt    string
}

type AdminSession struct {
	Email string
}

func (a *App) createAdminSessionToken(session AdminSession) (string, error) {
	claims := jwt.MapClaims{
		"email": session.Email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(adminSessionDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.cfg.AppSigningSecret))
}

func (a *App) verifyAdminSessionToken(tokenString string) (*AdminSession, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(a.cfg.AppSigningSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("invalid session payload")
	}
	return &AdminSession{Email: email}, nil
}

// sessionTokenFromRequest accepts either the session cookie or an
// Authorization bearer header, so the SPA and curl both work.
func sessionTokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(adminCookieName); err == nil && token != "" {
		return token
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

func (a *App) requireAdminSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionTokenFromRequest(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Admin session required"})
			c.Abort()
			return
		}
		session, err := a.verifyAdminSessionToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Admin session required"})
			c.Abort()
			return
		}
		c.Set("adminSession", *session)
		c.Next()
	}
}

func getAdminSession(c *gin.Context) (AdminSession, error) {
	value, ok := c.Get("adminSession")
	if !ok {
		return AdminSession{}, fmt.Errorf("missing session")
	}
	session, ok := value.(AdminSession)
	if !ok {
		return AdminSession{}, fmt.Errorf("invalid session")
	}
	return session, nil
}

type adminLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *App) adminLoginHandler(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "email and password are required"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	admin, err := a.getAdminByEmail(c.Request.Context(), email)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	if admin == nil || !admin.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials", "message": "Invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials", "message": "Invalid email or password"})
		return
	}

	token, err := a.createAdminSessionToken(AdminSession{Email: admin.Email})
	if err != nil {
		writeAPIError(c, err)
		return
	}

	secureCookie := !strings.EqualFold(a.cfg.Env, "development")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(adminCookieName, token, int(adminSessionDuration.Seconds()), "/", "", secureCookie, true)

	a.log.Info("admin login", "email", admin.Email)
	c.JSON(http.StatusOK, gin.H{"email": admin.Email, "token": token})
}

func (a *App) adminLogoutHandler(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(adminCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (a *App) adminSessionHandler(c *gin.Context) {
	session, err := getAdminSession(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Admin session required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": session.Email})
}

func (a *App) storeGetAdminByEmail(ctx context.Context, email string) (*Admin, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, is_active,
			to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
			to_char(updated_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
		FROM admins
		WHERE email = $1
	`, email)

	var admin Admin
	if err := row.Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &admin.IsActive, &admin.CreatedAt, &admin.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}
