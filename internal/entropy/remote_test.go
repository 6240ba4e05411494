package entropy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fakeRandomOrg(t *testing.T, delay time.Duration, values []float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"random": map[string]any{"data": values},
			},
		})
	}))
}

func newTestRemote(srv *httptest.Server) *Remote {
	return &Remote{
		apiKey:   "test-key",
		client:   srv.Client(),
		endpoint: srv.URL,
	}
}

func TestRemoteDrawDoesNotWaitOnRefill(t *testing.T) {
	srv := fakeRandomOrg(t, 300*time.Millisecond, []float64{0.25, 0.5})
	defer srv.Close()

	r := newTestRemote(srv)

	// The pool is empty, so this draw triggers a refill. It must still
	// return immediately via the crypto fallback instead of waiting out
	// the slow round trip.
	start := time.Now()
	f := r.Float()
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("draw stalled %v behind the refill", elapsed)
	}
	if f < 0 || f >= 1 {
		t.Fatalf("Float out of range: %v", f)
	}
}

func TestRemotePoolRefillsInBackground(t *testing.T) {
	srv := fakeRandomOrg(t, 0, []float64{0.125, 0.875})
	defer srv.Close()

	r := newTestRemote(srv)
	r.Float() // kicks off the refill

	deadline := time.After(time.Second)
	for {
		r.mu.Lock()
		n := len(r.pool)
		r.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("pool never refilled")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if f := r.Float(); f != 0.125 {
		t.Fatalf("expected first pooled fraction 0.125, got %v", f)
	}
}
