package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_PARAMETER", "bad year")
	assert.Equal(t, "bad year", err.Error())
}

func TestInvalidParameterError(t *testing.T) {
	err := InvalidParameterError("year", "twenty", "must be an integer")

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "INVALID_PARAMETER", err.ErrorCode)
	assert.Equal(t, `Invalid value "twenty" for parameter year`, err.Message)
	assert.Equal(t, ValidationError{Field: "year", Message: "must be an integer"}, err.Details)
}

func TestNotFoundError(t *testing.T) {
	err := NotFoundError("year 1999")

	assert.Equal(t, http.StatusNotFound, err.StatusCode)
	assert.Equal(t, "year 1999 not found", err.Message)
	assert.Equal(t, "year 1999", err.Details)
}

func TestReloadError(t *testing.T) {
	err := ReloadError(fmt.Errorf("failed to open deaths_data.parquet"))

	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.Equal(t, "RELOAD_FAILED", err.ErrorCode)
	assert.Equal(t, "failed to open deaths_data.parquet", err.Details)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "year must be an integer", "/year/abc/geo_code/E06000047").
		WithExtension("trace_id", "abc123").
		WithExtension("status", 999)

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, TypeValidation, got["type"])
	assert.Equal(t, "Bad Request", got["title"])
	assert.Equal(t, float64(http.StatusBadRequest), got["status"], "extensions cannot override standard members")
	assert.Equal(t, "year must be an integer", got["detail"])
	assert.Equal(t, "/year/abc/geo_code/E06000047", got["instance"])
	assert.Equal(t, "abc123", got["trace_id"])
}

func TestProblemDetails_OmitsEmptyMembers(t *testing.T) {
	data, err := json.Marshal(NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", ""))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.NotContains(t, got, "detail")
	assert.NotContains(t, got, "instance")
}

func TestWriteProblem(t *testing.T) {
	w := httptest.NewRecorder()

	WriteProblem(w, NewProblemDetails(http.StatusTooManyRequests, TypeRateLimit, "Too Many Requests", "slow down", "/years"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, ContentTypeProblem, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"detail":"slow down"`)
}
