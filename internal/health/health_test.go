package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func storageChecker(err error) Checker {
	return NewPingChecker("storage", stubPinger{err: err})
}

func kafkaChecker(err error) Checker {
	return NewPingChecker("kafka", stubPinger{err: err}).Optional()
}

func TestProbes(t *testing.T) {
	brokenDB := errors.New("database is locked")
	brokenKafka := errors.New("kafka: client has run out of available brokers")

	tests := []struct {
		name        string
		checkers    map[string]Checker
		wantOverall Status
		wantHealthz int
		wantReadyz  int
	}{
		{
			name:        "no checkers",
			wantOverall: StatusHealthy,
			wantHealthz: http.StatusOK,
			wantReadyz:  http.StatusOK,
		},
		{
			name:        "storage healthy",
			checkers:    map[string]Checker{"storage": storageChecker(nil)},
			wantOverall: StatusHealthy,
			wantHealthz: http.StatusOK,
			wantReadyz:  http.StatusOK,
		},
		{
			name:        "storage down",
			checkers:    map[string]Checker{"storage": storageChecker(brokenDB)},
			wantOverall: StatusUnhealthy,
			wantHealthz: http.StatusServiceUnavailable,
			wantReadyz:  http.StatusServiceUnavailable,
		},
		{
			name:        "kafka down does not block checkout",
			checkers:    map[string]Checker{"storage": storageChecker(nil), "kafka": kafkaChecker(brokenKafka)},
			wantOverall: StatusDegraded,
			wantHealthz: http.StatusOK,
			wantReadyz:  http.StatusOK,
		},
		{
			name:        "storage down wins over degraded kafka",
			checkers:    map[string]Checker{"storage": storageChecker(brokenDB), "kafka": kafkaChecker(brokenKafka)},
			wantOverall: StatusUnhealthy,
			wantHealthz: http.StatusServiceUnavailable,
			wantReadyz:  http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler("v1.0.0")
			for name, checker := range tt.checkers {
				handler.RegisterChecker(name, checker)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			require.Equal(t, tt.wantHealthz, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var response Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.wantOverall, response.Status)
			assert.Equal(t, "v1.0.0", response.Version)
			assert.Len(t, response.Checks, len(tt.checkers))

			w = httptest.NewRecorder()
			handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.wantReadyz, w.Code)
		})
	}
}

func TestHealthHandler_ReportsFailureMessage(t *testing.T) {
	handler := NewHandler("dev")
	handler.RegisterChecker("storage", storageChecker(errors.New("database is locked")))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var response Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	check := response.Checks["storage"]
	assert.Equal(t, "storage", check.Name)
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.Equal(t, "database is locked", check.Message)
}

func TestLivenessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestRunChecks_InParallelWithDeadline(t *testing.T) {
	handler := NewHandler("dev")
	handler.timeout = 500 * time.Millisecond

	slow := func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("check must receive a deadline")
		}
		select {
		case <-time.After(100 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	handler.RegisterChecker("storage", NewSimpleChecker("storage", slow))
	handler.RegisterChecker("kafka", NewSimpleChecker("kafka", slow).Optional())

	started := time.Now()
	checks, overall := handler.runChecks(context.Background())

	assert.Less(t, time.Since(started), 190*time.Millisecond, "checks must run concurrently")
	assert.Equal(t, StatusHealthy, overall)
	assert.Len(t, checks, 2)
}

func TestRunChecks_TimeoutMarksUnhealthy(t *testing.T) {
	handler := NewHandler("dev")
	handler.timeout = 20 * time.Millisecond
	handler.RegisterChecker("storage", NewSimpleChecker("storage", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	checks, overall := handler.runChecks(context.Background())

	assert.Equal(t, StatusUnhealthy, overall)
	assert.Contains(t, checks["storage"].Message, "deadline exceeded")
}
