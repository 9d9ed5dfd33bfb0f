package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("debug", "json", &buf)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("k", "v").Info("hello")
	assert.Contains(t, buf.String(), `"k":"v"`)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestNewLogger_Fallbacks(t *testing.T) {
	logger := NewLogger("nonsense", "nonsense", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	_, isText := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}

func TestMetrics_RegisterAndServe(t *testing.T) {
	m := NewMetrics(nil)
	m.LoginsTotal.WithLabelValues("STUDENT", "success").Inc()
	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/courses", "200").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lms_logins_total")
	assert.Contains(t, rec.Body.String(), "lms_http_requests_total")
}

func TestHealthHandler_NoDB(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthHandler_DBOk(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	rec := httptest.NewRecorder()
	NewHealthHandler(db).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
