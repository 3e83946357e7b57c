// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/pdiddy/edinet-facts/internal/chart"
	"github.com/pdiddy/edinet-facts/internal/index"
	"github.com/pdiddy/edinet-facts/internal/pipeline"
	"github.com/pdiddy/edinet-facts/internal/record"
	"github.com/pdiddy/edinet-facts/internal/registry"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- test helpers ---

type fixture struct {
	srv   *Server
	cfg   types.Config
	store *index.MemoryStore
}

func newFixture(t *testing.T, withCharts bool) fixture {
	t.Helper()
	cfg := types.DefaultConfig()
	root := t.TempDir()
	cfg.Extraction.CSVDir = filepath.Join(root, "csv")
	cfg.Extraction.JSONDir = filepath.Join(root, "json_file")
	cfg.Chart.Dir = filepath.Join(root, "charts")

	reg := registry.Default()
	store := index.NewMemoryStore()
	var renderer *chart.Renderer
	if withCharts {
		var err error
		renderer, err = chart.New(types.ChartConfig{Width: 160, Height: 120}, nil)
		require.NoError(t, err)
	}
	srv := New(Deps{
		Config:   cfg,
		Registry: reg,
		Store:    store,
		Pipeline: pipeline.New(reg, store, nil, cfg, nil),
		Charts:   renderer,
	})
	return fixture{srv: srv, cfg: cfg, store: store}
}

func (f fixture) do(t *testing.T, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (f fixture) writeRecord(t *testing.T, name, end string, facts map[string]int64) string {
	t.Helper()
	rec := registry.Default().NewRecord()
	set := func(concept string, v types.Value) {
		fv := rec.Facts[concept]
		fv.Value = v
		rec.Facts[concept] = fv
	}
	set(types.ConceptCompanyName, types.TextValue(name))
	set(types.ConceptEndDate, types.TextValue(end))
	for k, v := range facts {
		set(k, types.IntegerValue(v))
	}
	rec.Derive()
	path, err := record.Write(f.cfg.Extraction.JSONDir, rec)
	require.NoError(t, err)
	return filepath.Base(path)
}

func exportBytes(t *testing.T) []byte {
	t.Helper()
	text := "要素ID\tコンテキストID\t値\t単位\r\n" +
		"jpcrp_cor:CompanyNameCoverPage\tFilingDateInstant\tACME\t－\r\n" +
		"jpdei_cor:CurrentPeriodEndDateDEI\tFilingDateInstant\t2024-03-31\t－\r\n" +
		"jppfs_cor:NetSales\tCurrentYearDuration\t500000000\t円\r\n"
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(text)
	require.NoError(t, err)
	return []byte(out)
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error.Code
}

// --- health ---

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/healthcheck", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

// --- records ---

func TestListRecords(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodGet, "/api/records", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"records":[]}`, rec.Body.String())

	f.writeRecord(t, "ACME", "2024-03-31", nil)
	f.writeRecord(t, "Globex", "2024-03-31", nil)

	tests := []struct {
		query string
		want  string
	}{
		{"", `{"records":["ACME2024-03-31.json","Globex2024-03-31.json"]}`},
		{"acme", `{"records":["ACME2024-03-31.json"]}`},
		{"initech", `{"records":[]}`},
	}
	for _, tt := range tests {
		t.Run("query="+tt.query, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/records?query="+tt.query, nil, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestGetRecord(t *testing.T) {
	f := newFixture(t, false)
	name := f.writeRecord(t, "ACME", "2024-03-31", map[string]int64{"Sales": 500})

	rec := f.do(t, http.MethodGet, "/api/records/"+name, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ACME", body["company_name"])
	assert.Equal(t, "2024-03-31", body["period_end"])
	assert.Equal(t, "GAAP", body["standard"])

	report := body["report"].(map[string]any)
	assert.Equal(t, true, report["missing_material"])
	missing := report["missing"].(map[string]any)
	assert.Equal(t, false, missing["Sales"])
	assert.Equal(t, true, missing["NetAssets"])

	sales := body["facts"].(map[string]any)["Sales"].(map[string]any)
	assert.Equal(t, float64(500), sales["value"])
}

func TestGetRecord_Errors(t *testing.T) {
	f := newFixture(t, false)
	tests := []struct {
		target string
		status int
		code   string
	}{
		{"/api/records/notes.txt", http.StatusBadRequest, "invalid_name"},
		{"/api/records/missing.json", http.StatusNotFound, "record_not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.target, nil, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

// --- charts ---

func TestChartLifecycle(t *testing.T) {
	f := newFixture(t, true)
	name := f.writeRecord(t, "ACME", "2024-03-31", map[string]int64{"Assets": 1e9, "Sales": 5e8})

	rec := f.do(t, http.MethodPost, "/api/records/"+name+"/chart", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created chartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "/api/charts/"+created.ID, created.URL)
	assert.Equal(t, 1, f.srv.cache.Len())

	rec = f.do(t, http.MethodGet, created.URL, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	cfg, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 160, cfg.Width)
	assert.Equal(t, 120, cfg.Height)

	rec = f.do(t, http.MethodDelete, created.URL, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, created.URL, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodDelete, created.URL, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChart_Errors(t *testing.T) {
	t.Run("renderer disabled", func(t *testing.T) {
		f := newFixture(t, false)
		name := f.writeRecord(t, "ACME", "2024-03-31", nil)
		rec := f.do(t, http.MethodPost, "/api/records/"+name+"/chart", nil, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
	t.Run("unknown record", func(t *testing.T) {
		f := newFixture(t, true)
		rec := f.do(t, http.MethodPost, "/api/records/none.json/chart", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
	t.Run("bad id", func(t *testing.T) {
		f := newFixture(t, true)
		rec := f.do(t, http.MethodDelete, "/api/charts/not-a-uuid", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_id", errorCode(t, rec))
	})
}

// --- filings ---

func TestUploadFiling(t *testing.T) {
	f := newFixture(t, false)
	body, ct := multipartBody(t, "file", "7203_S100ABC.csv", exportBytes(t))

	rec := f.do(t, http.MethodPost, "/api/filings", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody(t, rec)
	assert.Equal(t, "ACME2024-03-31.json", resp["file"])
	assert.Equal(t, "7203", resp["security_code"])
	assert.FileExists(t, filepath.Join(f.cfg.Extraction.CSVDir, "7203_S100ABC.csv"))

	paths, err := f.store.Paths(context.Background(), "7203")
	require.NoError(t, err)
	require.Len(t, paths, 1)

	rec = f.do(t, http.MethodGet, "/api/companies/7203", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":"7203","records":["ACME2024-03-31.json"]}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/records/ACME2024-03-31.json", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadFiling_Errors(t *testing.T) {
	f := newFixture(t, false)

	t.Run("no file", func(t *testing.T) {
		body, ct := multipartBody(t, "other", "x.csv", []byte("x"))
		rec := f.do(t, http.MethodPost, "/api/filings", body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "missing_file", errorCode(t, rec))
	})
	t.Run("not a csv", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "report.pdf", []byte("x"))
		rec := f.do(t, http.MethodPost, "/api/filings", body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_file", errorCode(t, rec))
	})
	t.Run("unreadable export", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "7203_bad.csv", []byte("plain\ttext\n"))
		rec := f.do(t, http.MethodPost, "/api/filings", body, ct)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "processing_failed", errorCode(t, rec))
		assert.NoFileExists(t, filepath.Join(f.cfg.Extraction.CSVDir, "7203_bad.csv"))
	})
}

// --- companies ---

func TestGetCompany_Errors(t *testing.T) {
	f := newFixture(t, false)
	tests := []struct {
		code   string
		status int
	}{
		{"12", http.StatusBadRequest},
		{"9999", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/companies/"+tt.code, nil, "")
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

// --- CORS ---

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/api/records", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST"))
}

// --- cache ---

func TestChartCache(t *testing.T) {
	c := NewChartCache(0)
	id, expires := c.Put([]byte("png"))
	assert.False(t, expires.IsZero())

	got, ok := c.Get(id)
	require.True(t, ok)
	assert.Equal(t, []byte("png"), got)

	assert.True(t, c.Delete(id))
	assert.False(t, c.Delete(id))
	_, ok = c.Get(id)
	assert.False(t, ok)
}
