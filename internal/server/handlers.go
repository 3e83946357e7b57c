// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pdiddy/edinet-facts/internal/record"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

var securityCodePattern = regexp.MustCompile(`^[0-9A-Z]{4,5}$`)

type recordResponse struct {
	File         string                     `json:"file"`
	CompanyName  string                     `json:"company_name"`
	PeriodEnd    string                     `json:"period_end"`
	Standard     string                     `json:"standard"`
	Facts        map[string]types.FactValue `json:"facts"`
	Report       types.ClassificationReport `json:"report"`
	SecurityCode string                     `json:"security_code,omitempty"`
	Overwrites   []types.Overwrite          `json:"overwrites,omitempty"`
}

type chartResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) healthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /api/records?query=
func (s *Server) listRecords(c *gin.Context) {
	names, err := record.List(s.cfg.Extraction.JSONDir, c.Query("query"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	respondOK(c, gin.H{"records": names})
}

// GET /api/records/:file
func (s *Server) getRecord(c *gin.Context) {
	rec, ok := s.loadRecord(c)
	if !ok {
		return
	}
	report := s.auditor.Audit(rec)
	respondOK(c, recordResponse{
		File:        c.Param("file"),
		CompanyName: rec.CompanyName,
		PeriodEnd:   rec.PeriodEnd,
		Standard:    report.Standard().String(),
		Facts:       rec.Facts,
		Report:      report,
	})
}

// POST /api/records/:file/chart
func (s *Server) createChart(c *gin.Context) {
	if s.charts == nil {
		respondError(c, http.StatusServiceUnavailable, "charts_disabled", errors.New("chart rendering is not configured"))
		return
	}
	rec, ok := s.loadRecord(c)
	if !ok {
		return
	}
	png, err := s.charts.RenderBytes(rec, s.auditor.Audit(rec).IsIFRS)
	if err != nil {
		s.log.Error("chart render failed", "file", c.Param("file"), "error", err)
		respondError(c, http.StatusInternalServerError, "render_failed", err)
		return
	}
	id, expires := s.cache.Put(png)
	c.JSON(http.StatusCreated, chartResponse{ID: id, URL: "/api/charts/" + id, ExpiresAt: expires})
}

// GET /api/charts/:id
func (s *Server) getChart(c *gin.Context) {
	png, ok := s.cache.Get(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "chart_not_found", fmt.Errorf("chart %q not found or expired", c.Param("id")))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// DELETE /api/charts/:id
func (s *Server) deleteChart(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	if !s.cache.Delete(id) {
		respondError(c, http.StatusNotFound, "chart_not_found", fmt.Errorf("chart %q not found or expired", id))
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/filings (multipart field "file")
func (s *Server) uploadFiling(c *gin.Context) {
	if s.proc == nil {
		respondError(c, http.StatusServiceUnavailable, "pipeline_disabled", errors.New("filing processing is not configured"))
		return
	}
	if limit := s.cfg.Server.MaxUploadBytes; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	name := filepath.Base(fh.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".csv") || strings.HasPrefix(name, ".") {
		respondError(c, http.StatusBadRequest, "invalid_file", fmt.Errorf("%q is not a CSV export", fh.Filename))
		return
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	dir := s.cfg.Extraction.CSVDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		respondError(c, http.StatusInternalServerError, "storage_failed", err)
		return
	}
	dest := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(fh, dest); err != nil {
		respondError(c, http.StatusInternalServerError, "storage_failed", err)
		return
	}

	ctx := c.Request.Context()
	fr, err := s.proc.ProcessFiling(ctx, dest)
	if err != nil {
		s.log.Warn("uploaded filing rejected", "file", name, "error", err)
		if rmErr := os.Remove(dest); rmErr != nil {
			s.log.Warn("removing rejected upload", "path", dest, "error", rmErr)
		}
		respondError(c, http.StatusUnprocessableEntity, "processing_failed", err)
		return
	}
	if err := s.store.Save(ctx); err != nil {
		s.log.Error("index save failed", "error", err)
		respondError(c, http.StatusInternalServerError, "index_failed", err)
		return
	}

	c.JSON(http.StatusCreated, recordResponse{
		File:         filepath.Base(fr.JSONPath),
		CompanyName:  fr.Record.CompanyName,
		PeriodEnd:    fr.Record.PeriodEnd,
		Standard:     fr.Report.Standard().String(),
		Facts:        fr.Record.Facts,
		Report:       fr.Report,
		SecurityCode: fr.Record.SecurityCode,
		Overwrites:   fr.Record.Overwrites,
	})
}

// GET /api/companies/:code
func (s *Server) getCompany(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	if !securityCodePattern.MatchString(code) {
		respondError(c, http.StatusBadRequest, "invalid_code", fmt.Errorf("%q is not a security code", c.Param("code")))
		return
	}
	paths, err := s.store.Paths(c.Request.Context(), code)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "index_failed", err)
		return
	}
	if len(paths) == 0 {
		respondError(c, http.StatusNotFound, "company_not_found", fmt.Errorf("no records for %s", code))
		return
	}
	files := make([]string, len(paths))
	for i, p := range paths {
		files[i] = filepath.Base(p)
	}
	respondOK(c, gin.H{"code": code, "records": files})
}

// loadRecord resolves and reads the record named by the :file parameter,
// writing the error response itself on failure.
func (s *Server) loadRecord(c *gin.Context) (*types.CompanyRecord, bool) {
	path, err := record.Resolve(s.cfg.Extraction.JSONDir, c.Param("file"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_name", err)
		return nil, false
	}
	rec, err := record.Read(path)
	switch {
	case errors.Is(err, record.ErrNotFound):
		respondError(c, http.StatusNotFound, "record_not_found", err)
		return nil, false
	case err != nil:
		respondError(c, http.StatusInternalServerError, "read_failed", err)
		return nil, false
	}
	return rec, true
}
