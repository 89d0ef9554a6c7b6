package responder

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_SyncEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	err := Write(rec, OK(map[string]any{"object": map[string]any{"pk": 1}}))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))

	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "sync", env["type"])
	assert.Equal(t, float64(200), env["status"])
	assert.Contains(t, env["metadata"], "object")
}

func TestWrite_ErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, Write(rec, Unauthorized()))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"type":"error","status":401,"metadata":{"error":"unauthorized"}}`, rec.Body.String())
}

func TestResult_ZeroValueDefaults(t *testing.T) {
	env := Result{Payload: map[string]any{}}.Envelope()

	assert.Equal(t, KindSync, env.Type)
	assert.Equal(t, http.StatusOK, env.Status)
}

func TestError_Result(t *testing.T) {
	t.Run("default status is 400", func(t *testing.T) {
		res := (&Error{Payload: Payload{"error": "x"}}).Result()
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.True(t, res.IsError())
	})

	t.Run("object not found is 404", func(t *testing.T) {
		res := ObjectNotFound().Result()
		assert.Equal(t, http.StatusNotFound, res.Status)
		assert.Equal(t, Payload{"error": "object_not_found"}, res.Payload)
	})

	t.Run("field errors", func(t *testing.T) {
		res := FieldErrors(map[string]string{"title": "This field is required."}).Result()
		assert.Equal(t, http.StatusBadRequest, res.Status)
		assert.Equal(t, Payload{"errors": map[string]string{"title": "This field is required."}}, res.Payload)
	})
}

func TestAsError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", ObjectNotFound())

	rerr, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, rerr.Status)

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
}
