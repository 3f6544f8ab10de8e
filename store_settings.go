package main

import (
	"context"
	"database/sql"
	"errors"
)

type SiteSettings struct {
	SiteName           string `json:"siteName"`
	SupportEmail       string `json:"supportEmail"`
	SupportPhone       string `json:"supportPhone"`
	EmailNotifications bool   `json:"emailNotifications"`
	MaintenanceMode    bool   `json:"maintenanceMode"`
}

func defaultSiteSettings() SiteSettings {
	return SiteSettings{
		SiteName:           "DD Tours & Travels",
		SupportEmail:       "support@ddtours.com",
		SupportPhone:       "",
		EmailNotifications: true,
		MaintenanceMode:    false,
	}
}

// storeGetSettings reads the singleton settings row, falling back to the
// defaults when the row was never written.
func (a *App) storeGetSettings(ctx context.Context) (*SiteSettings, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT site_name, support_email, support_phone, email_notifications, maintenance_mode
		FROM settings
		WHERE id = 1
	`)

	var settings SiteSettings
	err := row.Scan(
		&settings.SiteName,
		&settings.SupportEmail,
		&settings.SupportPhone,
		&settings.EmailNotifications,
		&settings.MaintenanceMode,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			defaults := defaultSiteSettings()
			return &defaults, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (a *App) storeSaveSettings(ctx context.Context, settings SiteSettings) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO settings (id, site_name, support_email, support_phone, email_notifications, maintenance_mode)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET
			site_name = EXCLUDED.site_name,
			support_email = EXCLUDED.support_email,
			support_phone = EXCLUDED.support_phone,
			email_notifications = EXCLUDED.email_notifications,
			maintenance_mode = EXCLUDED.maintenance_mode,
			updated_at = NOW()
	`,
		settings.SiteName,
		settings.SupportEmail,
		settings.SupportPhone,
		settings.EmailNotifications,
		settings.MaintenanceMode,
	)
	return err
}
