package entropy

// Remote randomness via random.org with a local pool.
// Falls back to crypto/rand when the API is unavailable.

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	remoteEndpoint = "https://api.random.org/json-rpc/4/invoke"

	// Pool size below which a background refill is kicked off.
	remoteLowWater = 10
)

// Remote is a Source fed by random.org decimal fractions. Draws are served
// from a local pool that refills off the caller's goroutine; an empty pool
// falls back to crypto/rand, so a slow or dead API never blocks a draw and
// never stalls the simulation.
type Remote struct {
	apiKey   string
	client   *http.Client
	endpoint string

	mu        sync.Mutex
	pool      []float64
	refilling bool
}

// NewRemote creates a random.org-backed source. Returns nil if apiKey is
// empty; callers should then use Crypto or Seeded instead.
func NewRemote(apiKey string) *Remote {
	if apiKey == "" {
		return nil
	}
	return &Remote{
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: remoteEndpoint,
	}
}

// Float returns a random float64 in [0, 1) from the local pool. A low pool
// triggers an asynchronous refill; while the pool is empty, crypto/rand
// fills in.
func (r *Remote) Float() float64 {
	if r == nil {
		return cryptoFloat()
	}

	r.mu.Lock()
	if len(r.pool) < remoteLowWater && !r.refilling {
		r.refilling = true
		go r.refill()
	}
	if len(r.pool) == 0 {
		r.mu.Unlock()
		return cryptoFloat()
	}
	val := r.pool[0]
	r.pool = r.pool[1:]
	r.mu.Unlock()
	return val
}

func (r *Remote) IntN(n int) int {
	if n <= 0 {
		panic("entropy: IntN with non-positive n")
	}
	return int(r.Float() * float64(n))
}

// Read always uses crypto/rand; the pool holds decimal fractions, not bytes.
func (r *Remote) Read(p []byte) (int, error) {
	return Crypto{}.Read(p)
}

// refill fetches a batch of fractions and appends them to the pool. The
// HTTP round trip runs without holding r.mu, so concurrent draws keep
// going against the remaining pool (or crypto fallback) in the meantime.
func (r *Remote) refill() {
	defer func() {
		r.mu.Lock()
		r.refilling = false
		r.mu.Unlock()
	}()

	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateDecimalFractions",
		"params": map[string]any{
			"apiKey":        r.apiKey,
			"n":             100,
			"decimalPlaces": 6,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		slog.Debug("random.org marshal failed", "error", err)
		return
	}

	resp, err := r.client.Post(r.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Debug("random.org fetch failed", "error", err)
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Debug("random.org read failed", "error", err)
		return
	}

	var result struct {
		Result struct {
			Random struct {
				Data []float64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		slog.Debug("random.org parse failed", "error", err)
		return
	}

	if result.Error != nil {
		slog.Debug("random.org API error", "error", result.Error.Message)
		return
	}

	r.mu.Lock()
	r.pool = append(r.pool, result.Result.Random.Data...)
	r.mu.Unlock()
	slog.Debug("random.org pool refilled", "count", len(result.Result.Random.Data))
}
