package http

import (
	"bytes"
	"context"
	"log/slog"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tippool/internal/events"
	"tippool/internal/log"
	"tippool/internal/metrics"
	"tippool/internal/profiles"
	"tippool/internal/services"
	"tippool/internal/storage"
	"tippool/internal/vision/stub"
)

func newTestServer(t *testing.T) (*Server, *storage.MemoryStore) {
	t.Helper()

	store := storage.NewMemoryStore()
	registry := profiles.Default()
	logger := log.New(log.Config{Level: slog.LevelError, Format: "text", Component: "test"})
	reg := prometheus.NewRegistry()

	dist := services.NewDistributionService(store, events.NoopPublisher{}, registry, "usd")
	extr := services.NewExtractionService(store, stub.New("Alice: 10\nBob: 20"), 2)

	s := NewServer(Config{
		Addr:               ":0",
		RateLimitPerMinute: 1000,
		CacheTTL:           time.Minute,
		CacheMaxEntries:    16,
		MaxUploadBytes:     1 << 20,
	}, logger, dist, extr, store, registry, nil, metrics.New(reg), reg)
	t.Cleanup(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
	})
	return s, store
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestCreateDistribution(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/distributions",
		`{"total_amount":"100.00","partners":[{"name":"Alice","hours":"10"},{"name":"Bob","hours":"10"},{"name":"Carol","hours":"10"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp distributionResponse
	decodeData(t, rec, &resp)

	assert.Equal(t, "usd", resp.Profile)
	assert.Equal(t, int64(333), resp.HourlyRate.Cents)
	require.Len(t, resp.PartnerPayouts, 3)
	assert.Equal(t, int64(3334), resp.PartnerPayouts[0].Payout.Cents)
	assert.Equal(t, int64(3333), resp.PartnerPayouts[1].Payout.Cents)
	assert.NotEmpty(t, resp.PartnerPayouts[0].BillBreakdown)

	// The created record must be readable back.
	got := doJSON(t, s, http.MethodGet, "/api/distributions/"+resp.ID.String(), "")
	assert.Equal(t, http.StatusOK, got.Code)
}

func TestCreateDistributionValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantKind string
	}{
		{
			name:     "malformed json",
			body:     `{"total_amount":`,
			wantCode: http.StatusBadRequest,
			wantKind: "bad_request",
		},
		{
			name:     "unknown field",
			body:     `{"amount":"10.00"}`,
			wantCode: http.StatusBadRequest,
			wantKind: "bad_request",
		},
		{
			name:     "no partners",
			body:     `{"total_amount":"100.00","partners":[]}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "invalid_input",
		},
		{
			name:     "negative hours",
			body:     `{"total_amount":"100.00","partners":[{"name":"Alice","hours":"-1"}]}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "invalid_input",
		},
		{
			name:     "unknown profile",
			body:     `{"total_amount":"100.00","partners":[{"name":"Alice","hours":"10"}],"profile":"klingon"}`,
			wantCode: http.StatusUnprocessableEntity,
			wantKind: "unknown_profile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/distributions", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			var envelope errorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
			assert.Equal(t, tt.wantKind, envelope.Error.Kind)
		})
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	s, store := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/distributions/preview",
		`{"total_amount":"50.00","partners":[{"name":"Alice","hours":"5"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := store.ListDistributions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestGetDistributionNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/distributions/1b4e28ba-2fa1-11d2-883f-0016d3cca427", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/distributions/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDistributions(t *testing.T) {
	s, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/distributions",
			fmt.Sprintf(`{"total_amount":"%d.00","partners":[{"name":"Alice","hours":"1"}]}`, 10+i))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, s, http.MethodGet, "/api/distributions?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []distributionResponse
	decodeData(t, rec, &resp)
	assert.Len(t, resp, 2)

	rec = doJSON(t, s, http.MethodGet, "/api/distributions?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDistributionSummary(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/distributions",
		`{"total_amount":"47.00","partners":[{"name":"Alice","hours":"1"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created distributionResponse
	decodeData(t, rec, &created)

	rec = doJSON(t, s, http.MethodGet, "/api/distributions/"+created.ID.String()+"/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		Bills []struct {
			Denomination string `json:"denomination"`
			Quantity     int64  `json:"quantity"`
		} `json:"bills"`
	}
	decodeData(t, rec, &summary)
	// $47 = 2x$20 + 1x$5 + 2x$1
	require.Len(t, summary.Bills, 3)
	assert.Equal(t, "20.00", summary.Bills[0].Denomination)
	assert.Equal(t, int64(2), summary.Bills[0].Quantity)
}

func TestListProfiles(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []profileResponse
	decodeData(t, rec, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, "usd", resp[0].Name)
	assert.NotEmpty(t, resp[0].Denominations)
}

func TestCreateExtraction(t *testing.T) {
	s, store := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="image"; filename="timesheet.png"`}
	hdr["Content-Type"] = []string{"image/png"}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/extractions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp extractionResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, storage.JobPending, resp.Status)

	job, err := store.GetExtractionJob(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png-bytes"), job.Image)
	assert.Equal(t, "image/png", job.ImageType)

	// Status endpoint reflects the stored job.
	got := doJSON(t, s, http.MethodGet, "/api/extractions/"+resp.ID.String(), "")
	assert.Equal(t, http.StatusOK, got.Code)
}

func TestCreateExtractionRejectsWrongType(t *testing.T) {
	s, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="image"; filename="notes.txt"`}
	hdr["Content-Type"] = []string{"text/plain"}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/extractions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitAppliesToWrites(t *testing.T) {
	store := storage.NewMemoryStore()
	registry := profiles.Default()
	logger := log.New(log.Config{Level: slog.LevelError, Format: "text", Component: "test"})
	reg := prometheus.NewRegistry()
	dist := services.NewDistributionService(store, events.NoopPublisher{}, registry, "usd")
	extr := services.NewExtractionService(store, stub.New("x"), 2)

	s := NewServer(Config{
		Addr:               ":0",
		RateLimitPerMinute: 1,
		CacheTTL:           time.Minute,
		CacheMaxEntries:    16,
		MaxUploadBytes:     1 << 20,
	}, logger, dist, extr, store, registry, nil, metrics.New(reg), reg)
	defer func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
	}()

	body := `{"total_amount":"10.00","partners":[{"name":"Alice","hours":"1"}]}`
	rec := doJSON(t, s, http.MethodPost, "/api/distributions", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/distributions", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Reads are never limited.
	rec = doJSON(t, s, http.MethodGet, "/api/distributions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
