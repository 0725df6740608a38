package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/cyrkana"
	"github.com/aretw0/cyrkana/internal/testutils"
	cyrhttp "github.com/aretw0/cyrkana/pkg/adapters/http"
	"github.com/aretw0/cyrkana/pkg/adapters/memory"
	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, opts ...cyrhttp.Option) (*cyrkana.Engine, *httptest.Server) {
	t.Helper()
	pack := testutils.Pack(t)
	eng := cyrkana.New(cyrkana.WithSource(memory.New(pack)))
	srv := httptest.NewServer(cyrhttp.NewHandler(eng, opts...))
	t.Cleanup(srv.Close)
	return eng, srv
}

func do(t *testing.T, method, url string, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func initBody(t *testing.T) string {
	pack := testutils.Pack(t)
	b, err := json.Marshal(cyrhttp.InitRequest{Profiles: pack.Profiles, Phonetic: pack.Phonetic})
	require.NoError(t, err)
	return string(b)
}

func TestServer_FullFlow(t *testing.T) {
	_, srv := newServer(t)
	pack := testutils.Pack(t)

	resp, _ := do(t, "GET", srv.URL+"/profiles", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = do(t, "POST", srv.URL+"/init", initBody(t))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, "POST", srv.URL+"/init", initBody(t))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := do(t, "GET", srv.URL+"/profiles", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profiles []domain.Profile
	require.NoError(t, json.Unmarshal(body, &profiles))
	require.Len(t, profiles, 4)
	assert.Equal(t, "rus_standard", profiles[0].ID)

	resp, body = do(t, "POST", srv.URL+"/keys", `{"key":"А","buffer":"К","profile_id":"rus_standard"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "schema_not_loaded")

	resp, _ = do(t, "PUT", srv.URL+"/schemas/schema_rus_v1", string(pack.Schemas["schema_rus_v1"]))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, "POST", srv.URL+"/keys", `{"key":"А","buffer":"К","profile_id":"rus_standard"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"output":"か","buffer":"","action":"commit"}`, string(body))

	resp, body = do(t, "POST", srv.URL+"/keys", `{"key":"К","buffer":"","profile_id":"rus_standard"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"output":"","buffer":"К","action":"composing"}`, string(body))
}

func TestServer_ActivateLoadsFromSource(t *testing.T) {
	_, srv := newServer(t)

	resp, _ := do(t, "POST", srv.URL+"/init", initBody(t))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := do(t, "POST", srv.URL+"/profiles/ukr_cyrillic/activate", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"inputSchemaId":"schema_ukr_v1"`)

	resp, body = do(t, "POST", srv.URL+"/keys", `{"key":"І","buffer":"К","profile_id":"ukr_cyrillic"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"output":"き","buffer":"","action":"commit"}`, string(body))

	resp, _ = do(t, "POST", srv.URL+"/profiles/nope/activate", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_BadRequests(t *testing.T) {
	_, srv := newServer(t)

	resp, body := do(t, "POST", srv.URL+"/init", `{"profiles":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "invalid_request")

	resp, body = do(t, "POST", srv.URL+"/init", `{"profiles":{"id":1},"phonetic":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "configuration")

	resp, _ = do(t, "POST", srv.URL+"/init", initBody(t))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, "PUT", srv.URL+"/schemas/x", `{"А":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "configuration")

	resp, _ = do(t, "POST", srv.URL+"/keys", `{"key":"А","buffer":"","profile_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_BodyLimit(t *testing.T) {
	_, srv := newServer(t, cyrhttp.WithMaxBodyBytes(16))

	resp, _ := do(t, "POST", srv.URL+"/init", initBody(t))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestServer_PutSchemaReadErrors(t *testing.T) {
	eng := cyrkana.New()
	handler := cyrhttp.NewHandler(eng, cyrhttp.WithMaxBodyBytes(16))

	tests := []struct {
		name   string
		body   io.Reader
		status int
		kind   string
	}{
		{"Too Large", strings.NewReader(`{"КА":{"kana_key":"ka"},"А":{"kana_key":"a"}}`), http.StatusRequestEntityTooLarge, "request_too_large"},
		{"Broken Body", failingReader{}, http.StatusBadRequest, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/schemas/schema_rus_v1", tt.body)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var body cyrhttp.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.Kind)
		})
	}
}

func TestServer_RequestID(t *testing.T) {
	_, srv := newServer(t)

	resp, _ := do(t, "GET", srv.URL+"/healthz", "")
	assert.NotEmpty(t, resp.Header.Get(cyrhttp.RequestIDHeader))

	req, err := http.NewRequest("GET", srv.URL+"/version", nil)
	require.NoError(t, err)
	req.Header.Set(cyrhttp.RequestIDHeader, "req-42")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, "req-42", resp2.Header.Get(cyrhttp.RequestIDHeader))

	var v map[string]string
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&v))
	assert.Equal(t, cyrkana.Version, v["version"])
}

func TestServer_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "cyrkana_keys_total 1\n")
	})
	_, srv := newServer(t, cyrhttp.WithMetricsHandler(metrics))

	resp, body := do(t, "GET", srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "cyrkana_keys_total")
}

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Initialize(ctx context.Context, p, ph []byte) error {
	return m.Called(ctx, p, ph).Error(0)
}
func (m *mockEngine) LoadSchema(ctx context.Context, id string, data []byte) error {
	return m.Called(ctx, id, data).Error(0)
}
func (m *mockEngine) ProcessKey(ctx context.Context, key, buffer, profileID string) (domain.Outcome, error) {
	args := m.Called(ctx, key, buffer, profileID)
	return args.Get(0).(domain.Outcome), args.Error(1)
}
func (m *mockEngine) Profiles() ([]domain.Profile, error) {
	args := m.Called()
	p, _ := args.Get(0).([]domain.Profile)
	return p, args.Error(1)
}
func (m *mockEngine) Activate(ctx context.Context, id string) (domain.Profile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Profile), args.Error(1)
}
func (m *mockEngine) Initialized() bool { return m.Called().Bool(0) }

func TestServer_InternalError(t *testing.T) {
	eng := new(mockEngine)
	eng.On("ProcessKey", mock.Anything, "А", "", "p").
		Return(domain.Outcome{}, fmt.Errorf("%w: engine state is poisoned", domain.ErrInternal))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/keys", strings.NewReader(`{"key":"А","buffer":"","profile_id":"p"}`))
	cyrhttp.NewHandler(eng).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"internal"`)
	eng.AssertExpectations(t)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.NewConfigurationError("profiles", fmt.Errorf("bad")), http.StatusBadRequest},
		{fmt.Errorf("%w: x", domain.ErrProfileNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: x", domain.ErrSchemaNotLoaded), http.StatusConflict},
		{domain.ErrAlreadyInitialized, http.StatusConflict},
		{domain.ErrNotInitialized, http.StatusServiceUnavailable},
		{domain.ErrInternal, http.StatusInternalServerError},
		{fmt.Errorf("unexpected"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, _ := cyrhttp.StatusFor(tt.err)
		assert.Equal(t, tt.status, status, "%v", tt.err)
	}
}
