package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMiddleware(t *testing.T, handlerErr error) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Middleware()(func(c echo.Context) error {
		if handlerErr != nil {
			return handlerErr
		}
		return c.String(http.StatusOK, "success")
	})
	require.NoError(t, handler(c))
	return rec
}

func TestMiddlewareStructuredError(t *testing.T) {
	HTTPErrorsTotal.Reset()

	rec := runMiddleware(t, ValidationError("liveId is required").WithField("field", "liveId"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "liveId is required", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
	assert.Equal(t, "liveId", resp.Context["field"])

	assert.Equal(t, 1.0, counterValue(HTTPErrorsTotal.WithLabelValues("validation")))
}

func TestMiddlewareStandardError(t *testing.T) {
	HTTPErrorsTotal.Reset()

	rec := runMiddleware(t, fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error)
	assert.Equal(t, TypeInternal, resp.Type)
}

func TestMiddlewareNoError(t *testing.T) {
	HTTPErrorsTotal.Reset()

	rec := runMiddleware(t, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", rec.Body.String())
	assert.Equal(t, 0.0, counterValue(HTTPErrorsTotal.WithLabelValues("validation")))
}

func TestWrapHTTPErrorMapping(t *testing.T) {
	tests := []struct {
		code     int
		wantType ErrorType
	}{
		{http.StatusBadRequest, TypeValidation},
		{http.StatusNotFound, TypeNotFound},
		{http.StatusConflict, TypeConflict},
		{http.StatusBadGateway, TypeExternal},
		{http.StatusServiceUnavailable, TypeExternal},
		{http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		err := WrapHTTPError(echo.NewHTTPError(tt.code, "msg"))
		assert.Equal(t, tt.wantType, err.Type)
	}
}

func TestWrapHTTPErrorNonStringMessage(t *testing.T) {
	err := WrapHTTPError(echo.NewHTTPError(http.StatusBadRequest, 12345))
	assert.Equal(t, "internal server error", err.Message)
	assert.Equal(t, TypeValidation, err.Type)
}

func counterValue(counter prometheus.Counter) float64 {
	ch := make(chan prometheus.Metric, 1)
	counter.Collect(ch)
	close(ch)

	m := &dto.Metric{}
	_ = (<-ch).Write(m)
	return m.GetCounter().GetValue()
}
