package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()

	m.BookingCreated("indoor", "full")
	m.BookingCreated("indoor", "full")
	m.BookingCreated("outdoor", "split")
	m.BookingConflict()
	m.BookingCancelled()
	m.BookingCompleted(3)
	m.ParticipantJoined("pending")

	if got := testutil.ToFloat64(m.BookingsCreated.WithLabelValues("indoor", "full")); got != 2 {
		t.Errorf("expected 2 indoor/full bookings, got %v", got)
	}
	if got := testutil.ToFloat64(m.BookingConflicts); got != 1 {
		t.Errorf("expected 1 conflict, got %v", got)
	}
	if got := testutil.ToFloat64(m.BookingsCompleted); got != 3 {
		t.Errorf("expected 3 completed, got %v", got)
	}
	if got := testutil.ToFloat64(m.ParticipantsAdded.WithLabelValues("pending")); got != 1 {
		t.Errorf("expected 1 pending join, got %v", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.BookingCreated("indoor", "full")
	m.BookingConflict()
	m.BookingCancelled()
	m.BookingCompleted(1)
	m.ParticipantJoined("paid")

	next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, errors.New("boom")
	}
	if _, err := m.Interceptor()(next)(context.Background(), connect.NewRequest(&struct{}{})); err == nil {
		t.Error("expected error to pass through")
	}
}

func TestInterceptorAndHandler(t *testing.T) {
	m := New()
	next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeAlreadyExists, errors.New("taken"))
	}
	m.Interceptor()(next)(context.Background(), connect.NewRequest(&struct{}{}))

	if n := testutil.CollectAndCount(m.RPCDuration); n != 1 {
		t.Errorf("expected one observed series, got %d", n)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `corepadel_rpc_duration_seconds_count{code="already_exists"`) {
		t.Errorf("expected rpc histogram in exposition, got:\n%s", body)
	}
}
