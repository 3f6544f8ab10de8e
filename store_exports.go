package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"
)

type ExportBatch struct {
	ID           int     `json:"id"`
	Slug         string  `json:"slug"`
	FilterQuery  *string `json:"filterQuery,omitempty"`
	FilterStatus *string `json:"filterStatus,omitempty"`
	GeneratedBy  string  `json:"generatedBy"`
	GeneratedAt  string  `json:"generatedAt"`
	RowCount     int     `json:"rowCount"`
	TotalRevenue float64 `json:"totalRevenue"`
	CSVPath      string  `json:"-"`
	PDFPath      string  `json:"-"`
}

func (a *App) storeInsertExport(ctx context.Context, batch ExportBatch) (int, error) {
	var filterQuery, filterStatus sql.NullString
	if batch.FilterQuery != nil {
		filterQuery = sql.NullString{String: *batch.FilterQuery, Valid: true}
	}
	if batch.FilterStatus != nil {
		filterStatus = sql.NullString{String: *batch.FilterStatus, Valid: true}
	}

	var id int
	err := a.db.QueryRowContext(ctx, `
		INSERT INTO exports (slug, generated_by, row_count, total_revenue, csv_path, pdf_path, filter_query, filter_status)
		VALUES ($1, $2, $3, $4, '', '', $5, $6)
		RETURNING id
	`, batch.Slug, batch.GeneratedBy, batch.RowCount, batch.TotalRevenue, filterQuery, filterStatus).Scan(&id)
	return id, err
}

func (a *App) storeUpdateExportPaths(ctx context.Context, id int, csvPath, pdfPath string) error {
	_, err := a.db.ExecContext(ctx, `
		UPDATE exports
		SET csv_path = $1, pdf_path = $2
		WHERE id = $3
	`, csvPath, pdfPath, id)
	return err
}

func (a *App) storeListExports(ctx context.Context) ([]ExportBatch, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, slug, generated_by, row_count, total_revenue, created_at, filter_query, filter_status
		FROM exports
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := make([]ExportBatch, 0)
	for rows.Next() {
		var batch ExportBatch
		var createdAt time.Time
		var filterQuery, filterStatus sql.NullString
		if err := rows.Scan(&batch.ID, &batch.Slug, &batch.GeneratedBy, &batch.RowCount, &batch.TotalRevenue, &createdAt, &filterQuery, &filterStatus); err != nil {
			return nil, err
		}
		if filterQuery.Valid {
			batch.FilterQuery = &filterQuery.String
		}
		if filterStatus.Valid {
			batch.FilterStatus = &filterStatus.String
		}
		batch.GeneratedAt = createdAt.UTC().Format(time.RFC3339)
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

func (a *App) storeGetExport(ctx context.Context, id int) (*ExportBatch, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, slug, generated_by, row_count, total_revenue, created_at, csv_path, pdf_path, filter_query, filter_status
		FROM exports
		WHERE id = $1
	`, id)

	var batch ExportBatch
	var createdAt time.Time
	var filterQuery, filterStatus sql.NullString
	err := row.Scan(
		&batch.ID, &batch.Slug, &batch.GeneratedBy, &batch.RowCount, &batch.TotalRevenue,
		&createdAt, &batch.CSVPath, &batch.PDFPath, &filterQuery, &filterStatus,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apiError{Status: http.StatusNotFound, Code: "export_not_found", Message: "Export batch not found"}
		}
		return nil, err
	}
	if filterQuery.Valid {
		batch.FilterQuery = &filterQuery.String
	}
	if filterStatus.Valid {
		batch.FilterStatus = &filterStatus.String
	}
	batch.GeneratedAt = createdAt.UTC().Format(time.RFC3339)
	return &batch, nil
}
