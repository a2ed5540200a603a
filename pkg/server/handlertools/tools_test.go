package handlertools

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getzep/textlab/pkg/models"
	"github.com/getzep/textlab/pkg/store"
)

func TestExtractQueryStringValueToInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/?param=123", nil)
	got, err := IntFromQuery[int](req, "param")
	assert.NoError(t, err, "extractQueryStringValueToInt() error = %v", err)
	assert.Equal(t, 123, got, "extractQueryStringValueToInt() = %v, want %v", got, 123)

	req = httptest.NewRequest("GET", "/?param=abc", nil)
	_, err = IntFromQuery[int](req, "param")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestFloatAndBoolFromQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/?c=0.5&zero=0&async=true&bad=maybe", nil)

	f, err := FloatFromQuery(req, "c")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, 0.5, *f)

	f, err = FloatFromQuery(req, "zero")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Zero(t, *f)

	f, err = FloatFromQuery(req, "missing")
	assert.NoError(t, err)
	assert.Nil(t, f)

	_, err = FloatFromQuery(req, "bad")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	b, err := BoolFromQuery(req, "async")
	assert.NoError(t, err)
	assert.True(t, b)

	_, err = BoolFromQuery(req, "bad")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestStatusFromError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", models.NewValidationError("missing column"), http.StatusBadRequest},
		{"not trained", models.NewNotTrainedError("sentiment", ""), http.StatusNotFound},
		{"not found", models.NewNotFoundError("job"), http.StatusNotFound},
		{"timeout", fmt.Errorf("%w: deadline", models.ErrTrainingTimeout), http.StatusGatewayTimeout},
		{"storage", store.NewStorageError("disk full", errors.New("ENOSPC")), http.StatusInternalServerError},
		{"wrapped stage", models.NewStageError("train", -1, models.NewValidationError("x")), http.StatusBadRequest},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"dataset too large", models.NewTooLargeError("dataset big.csv", 10), http.StatusRequestEntityTooLarge},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFromError(tc.err, http.StatusInternalServerError))
		})
	}
}

func TestRenderError(t *testing.T) {
	rr := httptest.NewRecorder()
	RenderError(rr, models.NewNotTrainedError("spam", models.AlgorithmSVM), http.StatusInternalServerError)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "no svm model trained for task spam")
}

func TestParseUUIDFromURL(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/{uuid}", func(w http.ResponseWriter, r *http.Request) {
		urlUUID := UUIDFromURL(r, w, "uuid")
		assert.NotNil(t, urlUUID)
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	// Test with valid UUID
	validUUID := uuid.New()
	res, err := http.Get(ts.URL + "/" + validUUID.String())
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// Test with invalid UUID
	res, err = http.Get(ts.URL + "/invalid_uuid")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
