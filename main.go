package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Arghya-2007/DD-Tours-Travels-Admin/libs/mailer"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/crypto/bcrypt"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const (
	adminCookieName          = "ddtours_admin_session"
	adminSessionDuration     = 12 * time.Hour
	defaultMutationTimeout   = 10 * time.Second
	backendClientTimeout     = 10 * time.Second
	defaultUsersPerPage      = 8
	devCORSOriginLocalhost   = "http://localhost:5173"
	devCORSOriginLoopback    = "http://127.0.0.1:5173"
	trustedProxyLoopbackIPv4 = "127.0.0.1"
	trustedProxyLoopbackIPv6 = "::1"
)

type Config struct {
	Addr                   string
	Env                    string
	DatabaseURL            string
	DataRoot               string
	AdminUIOrigin          string
	AppSigningSecret       string
	BackendBaseURL         string
	BackendToken           string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	ResendAPIKey           string
	MailerFromAddresses    map[string]string
	MutationTimeout        time.Duration
}

type App struct {
	cfg *Config
	db  *sql.DB
	log *slog.Logger

	backend  *TourBackendClient
	manifest *Manifest
	mailer   *mailer.Mailer

	// backend call hooks, swappable in handler tests
	countUsers func(ctx context.Context) (int, error)
	listUsers  func(ctx context.Context, limit int, pageToken string) (*UserPage, error)
	deleteUser func(ctx context.Context, uid string) error
	listTrips  func(ctx context.Context) ([]map[string]any, error)
	createTrip func(ctx context.Context, payload map[string]any) (map[string]any, error)
	updateTrip func(ctx context.Context, id string, payload map[string]any) (map[string]any, error)
	deleteTrip func(ctx context.Context, id string) error
	listBlogs  func(ctx context.Context) ([]map[string]any, error)
	createBlog func(ctx context.Context, payload map[string]any) (map[string]any, error)
	deleteBlog func(ctx context.Context, id string) error

	// store function hooks
	getAdminByEmail   func(ctx context.Context, email string) (*Admin, error)
	getSettings       func(ctx context.Context) (*SiteSettings, error)
	saveSettings      func(ctx context.Context, settings SiteSettings) error
	listExports       func(ctx context.Context) ([]ExportBatch, error)
	getExport         func(ctx context.Context, id int) (*ExportBatch, error)
	insertExport      func(ctx context.Context, batch ExportBatch) (int, error)
	updateExportPaths func(ctx context.Context, id int, csvPath, pdfPath string) error

	notifyStatusChange func(booking Booking, newStatus string)
}

type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string { return e.Message }

func main() {
	if err := loadDotEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		panic(err)
	}

	backend := &TourBackendClient{
		BaseURL: cfg.BackendBaseURL,
		Token:   cfg.BackendToken,
		Client:  &http.Client{Timeout: backendClientTimeout},
	}

	var mailProvider mailer.Provider
	if cfg.ResendAPIKey != "" {
		mailProvider = mailer.NewResendProvider(cfg.ResendAPIKey)
		logger.Info("mailer initialized", "provider", "resend")
	} else {
		mailProvider = mailer.NewLogProvider(logger)
		logger.Info("mailer initialized", "provider", "log")
	}
	mailClient := mailer.New(mailProvider, cfg.MailerFromAddresses[mailProvider.Name()])

	app := &App{
		cfg:      cfg,
		db:       db,
		log:      logger,
		backend:  backend,
		manifest: newManifest(backend, cfg.MutationTimeout),
		mailer:   mailClient,
	}

	// Initialize backend call functions
	app.countUsers = backend.CountUsers
	app.listUsers = backend.ListUsers
	app.deleteUser = backend.DeleteUser
	app.listTrips = backend.ListTrips
	app.createTrip = backend.CreateTrip
	app.updateTrip = backend.UpdateTrip
	app.deleteTrip = backend.DeleteTrip
	app.listBlogs = backend.ListBlogs
	app.createBlog = backend.CreateBlog
	app.deleteBlog = backend.DeleteBlog

	// Initialize store functions
	app.getAdminByEmail = app.storeGetAdminByEmail
	app.getSettings = app.storeGetSettings
	app.saveSettings = app.storeSaveSettings
	app.listExports = app.storeListExports
	app.getExport = app.storeGetExport
	app.insertExport = app.storeInsertExport
	app.updateExportPaths = app.storeUpdateExportPaths

	app.notifyStatusChange = app.sendStatusChangeEmail

	logger.Info(
		"runtime configuration",
		"env", cfg.Env,
		"addr", cfg.Addr,
		"backend", cfg.BackendBaseURL,
		"mutation_timeout", cfg.MutationTimeout.String(),
	)

	if err := app.runMigrations(ctx); err != nil {
		panic(err)
	}

	if err := app.bootstrapAdmin(ctx); err != nil {
		panic(err)
	}

	if err := os.MkdirAll(filepath.Join(cfg.DataRoot, "exports"), 0o755); err != nil {
		panic(err)
	}

	r := app.buildRouter()

	app.log.Info("starting gin API", "addr", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		panic(err)
	}
}

func (a *App) buildRouter() *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies([]string{trustedProxyLoopbackIPv4, trustedProxyLoopbackIPv6}); err != nil {
		panic(err)
	}
	r.Use(gin.Recovery())
	r.Use(a.loggingMiddleware())
	r.Use(a.corsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/admin/login", a.adminLoginHandler)
		api.POST("/admin/logout", a.adminLogoutHandler)

		authed := api.Group("")
		authed.Use(a.requireAdminSession())
		{
			authed.GET("/admin/session", a.adminSessionHandler)

			authed.GET("/bookings", a.listBookingsHandler)
			authed.GET("/bookings/stats", a.bookingStatsHandler)
			authed.GET("/bookings/export", a.exportBookingsCSVHandler)
			authed.PUT("/bookings/status/:id", a.updateBookingStatusHandler)
			authed.DELETE("/bookings/:id", a.deleteBookingHandler)

			authed.GET("/dashboard", a.dashboardHandler)

			authed.GET("/trips", a.listTripsHandler)
			authed.POST("/trips/create", a.createTripHandler)
			authed.PUT("/trips/update/:id", a.updateTripHandler)
			authed.DELETE("/trips/delete/:id", a.deleteTripHandler)

			authed.GET("/users", a.listUsersHandler)
			authed.DELETE("/users/delete/:uid", a.deleteUserHandler)

			authed.GET("/blogs", a.listBlogsHandler)
			authed.POST("/blogs/add", a.createBlogHandler)
			authed.DELETE("/blogs/:id", a.deleteBlogHandler)

			authed.GET("/settings", a.getSettingsHandler)
			authed.PUT("/settings", a.updateSettingsHandler)

			authed.GET("/exports", a.listExportsHandler)
			authed.POST("/exports/generate", a.generateExportHandler)
			authed.GET("/exports/:id/download", a.downloadExportHandler)
		}
	}

	return r
}

func loadConfig() (*Config, error) {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		host := valueFromEnvKeys("PGHOST", "POSTGRES_HOST")
		if host == "" {
			host = "127.0.0.1"
		}
		port := valueFromEnvKeys("PGPORT", "POSTGRES_PORT")
		if port == "" {
			port = "5432"
		}
		dbname := valueFromEnvKeys("PGDATABASE", "POSTGRES_DB")
		user := valueFromEnvKeys("PGUSER", "POSTGRES_USER")
		password := valueFromEnvKeys("PGPASSWORD", "POSTGRES_PASSWORD")
		sslmode := valueFromEnvKeys("PGSSLMODE", "POSTGRES_SSLMODE")
		if sslmode == "" {
			sslmode = "disable"
		}
		if dbname != "" && user != "" {
			databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, password, host, port, dbname, sslmode)
		}
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or PG*/POSTGRES_* variables must be configured")
	}

	secret := strings.TrimSpace(os.Getenv("APP_SIGNING_SECRET"))
	if len(secret) < 16 {
		return nil, fmt.Errorf("APP_SIGNING_SECRET must be at least 16 characters")
	}

	backendBase := strings.TrimSpace(os.Getenv("BACKEND_API_URL"))
	if backendBase == "" {
		backendBase = "http://localhost:5000/api"
	}
	backendBase = strings.TrimRight(backendBase, "/")

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "development"
	}

	cfg := &Config{
		Addr:                   valueOrDefault("GIN_ADDR", ":8080"),
		Env:                    env,
		DatabaseURL:            databaseURL,
		DataRoot:               valueOrDefault("DATA_ROOT", "/var/lib/ddtours"),
		AdminUIOrigin:          strings.TrimRight(strings.TrimSpace(os.Getenv("ADMIN_UI_ORIGIN")), "/"),
		AppSigningSecret:       secret,
		BackendBaseURL:         backendBase,
		BackendToken:           strings.TrimSpace(os.Getenv("BACKEND_API_TOKEN")),
		BootstrapAdminEmail:    strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_EMAIL")),
		BootstrapAdminPassword: strings.TrimSpace(os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")),
		ResendAPIKey:           strings.TrimSpace(os.Getenv("RESEND_API_KEY")),
		MailerFromAddresses: map[string]string{
			"resend": valueOrDefault("MAILER_FROM_ADDRESS_RESEND", "bookings@mail.ddtours.com"),
			"log":    valueOrDefault("MAILER_FROM_ADDRESS_LOG", "bookings@ddtours.local"),
		},
		MutationTimeout: defaultMutationTimeout,
	}

	if raw := strings.TrimSpace(os.Getenv("MUTATION_TIMEOUT_MS")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("MUTATION_TIMEOUT_MS must be a positive integer")
		}
		cfg.MutationTimeout = time.Duration(parsed) * time.Millisecond
	}

	return cfg, nil
}

func loadDotEnvFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.Trim(strings.TrimSpace(line[idx+1:]), "\"")
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func valueFromEnvKeys(keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value
		}
	}
	return ""
}

func (a *App) runMigrations(ctx context.Context) error {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return err
	}

	if _, err := a.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		var exists bool
		if err := a.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, file).Scan(&exists); err != nil {
			return err
		}
		if exists {
			continue
		}

		content, err := migrationFiles.ReadFile(filepath.Join("migrations", file))
		if err != nil {
			return err
		}

		tx, err := a.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, file); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}

		a.log.Info("applied migration", "file", file)
	}

	return nil
}

func (a *App) bootstrapAdmin(ctx context.Context) error {
	email := a.cfg.BootstrapAdminEmail
	password := a.cfg.BootstrapAdminPassword
	if email == "" || password == "" {
		a.log.Info("bootstrap admin not configured")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO admins (email, password_hash, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (email)
		DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			is_active = TRUE,
			updated_at = NOW()
	`, email, string(hash))
	if err != nil {
		return err
	}

	a.log.Info("bootstrap admin ensured", "email", email)
	return nil
}

func (a *App) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
		)
	}
}

func (a *App) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if a.isAllowedCORSOrigin(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *App) isAllowedCORSOrigin(origin string) bool {
	if origin == "" || a.cfg == nil {
		return false
	}
	if a.cfg.AdminUIOrigin != "" && origin == a.cfg.AdminUIOrigin {
		return true
	}
	if !strings.EqualFold(a.cfg.Env, "development") {
		return false
	}
	return origin == devCORSOriginLocalhost || origin == devCORSOriginLoopback
}

func writeAPIError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Code, "message": apiErr.Message})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
}
