package health

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New().With("engine", &mockPinger{}).With("cache_store", &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["engine"] != CheckOK {
		t.Errorf("expected engine %q, got %q", CheckOK, r.Checks["engine"])
	}
	if r.Checks["cache_store"] != CheckOK {
		t.Errorf("expected cache_store %q, got %q", CheckOK, r.Checks["cache_store"])
	}
}

func TestCheck_PartialFailure(t *testing.T) {
	svc := New().
		With("engine", &mockPinger{err: errors.New("conn refused")}).
		With("cache_store", &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["engine"] != CheckError {
		t.Errorf("expected engine %q, got %q", CheckError, r.Checks["engine"])
	}
}

func TestCheck_AllFailing(t *testing.T) {
	svc := New().With("index", PingFunc(func(context.Context) error { return errors.New("closed") }))
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_NoChecks(t *testing.T) {
	r := New().Check(context.Background())
	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 0 {
		t.Errorf("expected no checks, got %v", r.Checks)
	}
}

func TestWith_NilIgnored(t *testing.T) {
	var p Pinger
	svc := New().With("engine", &mockPinger{}).With("cache_store", p)
	if got := svc.Names(); !reflect.DeepEqual(got, []string{"engine"}) {
		t.Errorf("Names = %v", got)
	}
}
