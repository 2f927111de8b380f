package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "github.com/aeturrell/deploy-api/internal/errors"
	"github.com/aeturrell/deploy-api/internal/shared/testutil"
)

func TestAPIKeyAuth(t *testing.T) {
	keys := map[string]string{"s3cret": "ops"}

	tests := []struct {
		name       string
		keys       map[string]string
		header     string
		wantStatus int
		wantClient string
	}{
		{name: "valid key", keys: keys, header: "s3cret", wantStatus: http.StatusOK, wantClient: "ops"},
		{name: "missing key", keys: keys, wantStatus: http.StatusUnauthorized},
		{name: "wrong key", keys: keys, header: "guess", wantStatus: http.StatusUnauthorized},
		{name: "no keys configured", keys: nil, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)

			var client string
			handler := APIKeyAuth(logger, tt.keys)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				client, _ = r.Context().Value(ClientKey).(string)
				okHandler(w, r)
			}))

			r := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
			if tt.header != "" {
				r.Header.Set("X-API-Key", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantClient, client)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, apierrors.TypeUnauthorized, decodeProblem(t, w)["type"])
			}
		})
	}
}

func TestAuditLog(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := APIKeyAuth(logger, map[string]string{"k": "ops"})(
		AuditLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})))

	r := httptest.NewRequest(http.MethodPost, "/admin/reload", nil)
	r.Header.Set("X-API-Key", "k")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	testutil.AssertLogContains(t, logs, slog.LevelInfo, "audit log complete")
	testutil.AssertLogAttr(t, logs, "client", "ops")
	testutil.AssertLogAttr(t, logs, "status", int64(http.StatusAccepted))
}
