package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
)

func (a *App) listExportsHandler(c *gin.Context) {
	exports, err := a.listExports(c.Request.Context())
	if err != nil {
		writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exports": exports})
}

type generateExportRequest struct {
	Query  string `json:"q"`
	Status string `json:"status"`
}

// generateExportHandler snapshots the current manifest into CSV and PDF
// artifacts on disk and records the batch, so past manifests stay
// downloadable after upstream data changes.
func (a *App) generateExportHandler(c *gin.Context) {
	session, err := getAdminSession(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Admin session required"})
		return
	}

	// an empty or missing body means an unfiltered export
	var req generateExportRequest
	_ = c.ShouldBindJSON(&req)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if req.Status != "" && !containsString(bookingStatuses, req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_status", "message": fmt.Sprintf("Unknown status %q", req.Status)})
		return
	}

	ctx := c.Request.Context()
	raws, err := a.manifest.Load(ctx)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	bookings := filterBookings(normalizeBookings(raws), req.Query, req.Status)
	stats := computeBookingStats(bookings)

	csvData, err := bookingsToCSV(bookings)
	if err != nil {
		writeAPIError(c, err)
		return
	}
	pdfData, err := buildManifestPDF(bookings, stats, time.Now())
	if err != nil {
		writeAPIError(c, err)
		return
	}

	batch := ExportBatch{
		Slug:         uuid.NewString(),
		GeneratedBy:  session.Email,
		RowCount:     len(bookings),
		TotalRevenue: stats.Revenue,
	}
	if q := strings.TrimSpace(req.Query); q != "" {
		batch.FilterQuery = &q
	}
	if req.Status != "" {
		status := req.Status
		batch.FilterStatus = &status
	}

	exportID, err := a.insertExport(ctx, batch)
	if err != nil {
		writeAPIError(c, err)
		return
	}

	exportDir := filepath.Join(a.cfg.DataRoot, "exports", strconv.Itoa(exportID))
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		writeAPIError(c, err)
		return
	}

	baseName := fmt.Sprintf("dd-tours-bookings-%s", time.Now().Format("2006-01-02"))
	csvFile := filepath.Join(exportDir, baseName+".csv")
	pdfFile := filepath.Join(exportDir, baseName+".pdf")
	if err := os.WriteFile(csvFile, csvData, 0o644); err != nil {
		writeAPIError(c, err)
		return
	}
	if err := os.WriteFile(pdfFile, pdfData, 0o644); err != nil {
		writeAPIError(c, err)
		return
	}

	relCSV, _ := filepath.Rel(a.cfg.DataRoot, csvFile)
	relPDF, _ := filepath.Rel(a.cfg.DataRoot, pdfFile)
	if err := a.updateExportPaths(ctx, exportID, relCSV, relPDF); err != nil {
		writeAPIError(c, err)
		return
	}

	batch.ID = exportID
	batch.GeneratedAt = time.Now().UTC().Format(time.RFC3339)

	a.log.Info("export batch generated", "id", exportID, "rows", batch.RowCount, "by", session.Email)
	c.JSON(http.StatusCreated, gin.H{"export": batch})
}

func (a *App) downloadExportHandler(c *gin.Context) {
	exportID, err := strconv.Atoi(c.Param("id"))
	if err != nil || exportID < 1 {
		writeAPIError(c, &apiError{Status: http.StatusBadRequest, Code: "invalid_id", Message: "Invalid export ID"})
		return
	}
	format := strings.TrimSpace(c.Query("format"))
	if format != "pdf" {
		format = "csv"
	}

	batch, err := a.getExport(c.Request.Context(), exportID)
	if err != nil {
		writeAPIError(c, err)
		return
	}

	selectedPath := batch.CSVPath
	contentType := "text/csv; charset=utf-8"
	if format == "pdf" {
		selectedPath = batch.PDFPath
		contentType = "application/pdf"
	}
	if selectedPath == "" {
		writeAPIError(c, &apiError{Status: http.StatusNotFound, Code: "export_not_found", Message: "Export artifact not found"})
		return
	}

	body, err := os.ReadFile(filepath.Join(a.cfg.DataRoot, selectedPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeAPIError(c, &apiError{Status: http.StatusNotFound, Code: "export_not_found", Message: "Export artifact not found"})
			return
		}
		writeAPIError(c, err)
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(selectedPath)))
	_, _ = c.Writer.Write(body)
}

func buildManifestPDF(bookings []Booking, stats DashboardStats, now time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 16)
	pdf.Cell(0, 10, "DD Tours & Travels - Booking Manifest")

	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", now.Format("02/01/2006")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Total bookings: %d", stats.Total))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Confirmed revenue: Rs. %s", formatINR(stats.Revenue)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, "Status distribution")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	statusCounts := map[string]int{}
	for _, b := range bookings {
		statusCounts[b.Status]++
	}
	statusKeys := make([]string, 0, len(statusCounts))
	for key := range statusCounts {
		statusKeys = append(statusKeys, key)
	}
	sort.Slice(statusKeys, func(i, j int) bool { return statusCounts[statusKeys[i]] > statusCounts[statusKeys[j]] })
	for _, key := range statusKeys {
		pdf.Cell(0, 6, fmt.Sprintf("- %s: %d", key, statusCounts[key]))
		pdf.Ln(6)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 8, "Top destinations")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	for _, dest := range topDestinations(bookings) {
		pdf.Cell(0, 6, fmt.Sprintf("%d. %s: %d bookings, Rs. %s", dest.Rank, dest.Title, dest.Bookings, formatINR(dest.Revenue)))
		pdf.Ln(6)
	}

	buffer := bytes.NewBuffer(nil)
	if err := pdf.Output(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
