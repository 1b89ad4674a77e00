package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestMonitor_SeededFromProbe(t *testing.T) {
	up := NewMonitor(context.Background(), ProberFunc(func(context.Context) bool { return true }))
	if !up.Online() {
		t.Fatalf("expected online seed")
	}
	down := NewMonitor(context.Background(), ProberFunc(func(context.Context) bool { return false }))
	if down.Online() {
		t.Fatalf("expected offline seed")
	}
}

func TestMonitor_SetNotifiesOnTransitionsOnly(t *testing.T) {
	m := NewMonitor(context.Background(), ProberFunc(func(context.Context) bool { return true }))
	ch := m.Subscribe()

	m.Set(true) // no change
	m.Set(false)
	m.Set(false) // no change
	m.Set(true)

	first := <-ch
	second := <-ch
	if first.Online || !second.Online {
		t.Fatalf("unexpected transitions %+v %+v", first, second)
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra transition %+v", extra)
	default:
	}
}

func TestMonitor_RunAppliesProbes(t *testing.T) {
	var online atomic.Bool
	online.Store(true)
	m := NewMonitor(context.Background(), ProberFunc(func(context.Context) bool { return online.Load() }))
	ch := m.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	online.Store(false)
	select {
	case tr := <-ch:
		if tr.Online {
			t.Fatalf("expected offline transition")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no transition observed")
	}

	cancel()
	<-done
	if _, ok := <-ch; ok {
		t.Fatalf("subscriber channel should be closed after Run returns")
	}
}

func TestHTTPProber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("unexpected probe path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	p := NewHTTPProber(srv.URL + "/")
	if !p.Probe(context.Background()) {
		t.Fatalf("expected reachable gateway")
	}
	srv.Close()
	if p.Probe(context.Background()) {
		t.Fatalf("expected unreachable gateway after close")
	}
}
