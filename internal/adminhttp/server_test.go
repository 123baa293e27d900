package adminhttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatrag/ragcore/internal/queue"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeStats struct {
	result map[string]queue.QueueStat
	err    error
}

func (f *fakeStats) Stats(ctx context.Context) (map[string]queue.QueueStat, error) {
	return f.result, f.err
}

type fakeRequeuer struct {
	gotKind, gotID string
	err            error
}

func (f *fakeRequeuer) Requeue(ctx context.Context, kind, id string) error {
	f.gotKind, f.gotID = kind, id
	return f.err
}

func signedToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestHealthzReportsOK(t *testing.T) {
	srv := New(&fakeStats{}, &fakeRequeuer{}, "")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestQueueStatsReturnsSourceData(t *testing.T) {
	stats := &fakeStats{result: map[string]queue.QueueStat{
		"ask": {Pending: 3, Failed: 1, Completed: 50},
	}}
	srv := New(stats, &fakeRequeuer{}, "")
	req := httptest.NewRequest(http.MethodGet, "/queue/stats", nil)
	rec := httptest.NewRecorder()

	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pending":3`)
}

func TestQueueStatsPropagatesSourceFailure(t *testing.T) {
	srv := New(&fakeStats{err: errors.New("db down")}, &fakeRequeuer{}, "")
	req := httptest.NewRequest(http.MethodGet, "/queue/stats", nil)
	rec := httptest.NewRecorder()

	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequeueRejectsUnknownKind(t *testing.T) {
	srv := New(&fakeStats{}, &fakeRequeuer{}, "")
	req := httptest.NewRequest(http.MethodPost, "/queue/bogus/42/requeue", nil)
	rec := httptest.NewRecorder()

	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequeueCallsRequeuerWithPathParams(t *testing.T) {
	requeuer := &fakeRequeuer{}
	srv := New(&fakeStats{}, requeuer, "")
	req := httptest.NewRequest(http.MethodPost, "/queue/ask/42/requeue", nil)
	rec := httptest.NewRecorder()

	srv.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ask", requeuer.gotKind)
	assert.Equal(t, "42", requeuer.gotID)
}

func TestQueueStatsRejectsMissingBearerTokenWhenSecretSet(t *testing.T) {
	srv := New(&fakeStats{}, &fakeRequeuer{}, "s3cret")
	req := httptest.NewRequest(http.MethodGet, "/queue/stats", nil)
	rec := httptest.NewRecorder()

	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQueueStatsRejectsTokenSignedWithWrongSecret(t *testing.T) {
	srv := New(&fakeStats{}, &fakeRequeuer{}, "s3cret")
	req := httptest.NewRequest(http.MethodGet, "/queue/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "wrong"))
	rec := httptest.NewRecorder()

	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQueueStatsAcceptsValidBearerToken(t *testing.T) {
	stats := &fakeStats{result: map[string]queue.QueueStat{"ask": {Pending: 1}}}
	srv := New(stats, &fakeRequeuer{}, "s3cret")
	req := httptest.NewRequest(http.MethodGet, "/queue/stats", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "s3cret"))
	rec := httptest.NewRecorder()

	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzIgnoresAuthWhenSecretSet(t *testing.T) {
	srv := New(&fakeStats{}, &fakeRequeuer{}, "s3cret")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	srv.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
