// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package edinet

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/edinet-facts/internal/httputil"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

const listBody = `{
  "metadata": {"title": "提出された書類を把握するためのAPI", "status": "200", "message": "OK", "resultset": {"count": 3}},
  "results": [
    {"seqNumber": 1, "docID": "S100AAAA", "secCode": "72030", "filerName": "トヨタ自動車株式会社",
     "docTypeCode": "120", "fundCode": null, "csvFlag": "1", "legalStatus": "1", "periodEnd": "2024-03-31"},
    {"seqNumber": 2, "docID": "S100BBBB", "secCode": null, "filerName": "ファンド",
     "docTypeCode": "120", "fundCode": "G01234", "csvFlag": "1", "legalStatus": "1"},
    {"seqNumber": 3, "docID": "S100CCCC", "secCode": "67580", "filerName": "ソニーグループ株式会社",
     "docTypeCode": "140", "fundCode": null, "csvFlag": "1", "legalStatus": "1"}
  ]
}`

func testClient(ts *httptest.Server) *Client {
	return NewClient(types.EdinetConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "edinet-facts/test"},
		BaseURL:    ts.URL,
		APIKey:     "test-key",
		MaxRetries: 2,
	}, ts.Client())
}

func TestDocuments(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents.json", r.URL.Path)
		assert.Equal(t, "2024-06-21", r.URL.Query().Get("date"))
		assert.Equal(t, "2", r.URL.Query().Get("type"))
		assert.Equal(t, "test-key", r.URL.Query().Get("Subscription-Key"))
		assert.Equal(t, "edinet-facts/test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(listBody))
	}))
	defer ts.Close()

	docs, err := testClient(ts).Documents(context.Background(), time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "S100AAAA", docs[0].DocID)
	assert.Nil(t, docs[0].FundCode)

	reports := AnnualReports(docs)
	require.Len(t, reports, 1)
	assert.Equal(t, "72030_S100AAAA.zip", reports[0].ArchiveName())
}

func TestDocuments_APIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantSt  int
		wantMsg string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"StatusCode": 401, "message": "Access denied due to invalid subscription key."}`, 401, "invalid subscription key"},
		{"metadata error with 200", http.StatusOK, `{"metadata": {"status": "400", "message": "Bad Request"}}`, 400, "Bad Request"},
		{"plain text", http.StatusNotFound, `not here`, 404, "not here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := testClient(ts).Documents(context.Background(), time.Now())
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tt.wantSt, apiErr.Status)
			assert.Contains(t, apiErr.Message, tt.wantMsg)
		})
	}
}

func TestDownload(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "/documents/S100AAAA", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("PK\x03\x04zip"))
	}))
	defer ts.Close()

	var buf bytes.Buffer
	require.NoError(t, testClient(ts).Download(context.Background(), "S100AAAA", DownloadCSV, &buf))
	assert.Equal(t, "PK\x03\x04zip", buf.String())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDownload_JSONErrorWith200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"metadata": {"status": "404", "message": "Not Found"}}`))
	}))
	defer ts.Close()

	var buf bytes.Buffer
	err := testClient(ts).Download(context.Background(), "S100ZZZZ", DownloadCSV, &buf)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.Status)
	assert.Zero(t, buf.Len())
}

func TestClient_RateLimited(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"metadata": {"status": "200"}, "results": []}`))
	}))
	defer ts.Close()

	c := NewClient(types.EdinetConfig{BaseURL: ts.URL, RequestInterval: 50 * time.Millisecond}, ts.Client())
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Documents(context.Background(), time.Now())
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Documents(ctx, time.Now())
	assert.Error(t, err)
}
