package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tablebook/pkg/logger"

	"github.com/go-redis/redis/v8"
)

func countingHandler(calls *int, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"id":1}`))
	})
}

func TestIdempotency_ReplaysSuccessfulResponse(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	calls := 0
	handler := Idempotency(store, "", logger.Discard())(countingHandler(&calls, http.StatusCreated))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/reservations", nil)
		req.Header.Set(DefaultIdempotencyHeader, "abc")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i, w.Code)
		}
		if w.Body.String() != `{"id":1}` {
			t.Fatalf("request %d: unexpected body %s", i, w.Body.String())
		}
		if i == 1 && w.Header().Get("Idempotent-Replayed") != "true" {
			t.Error("expected replay header on second response")
		}
	}

	if calls != 1 {
		t.Errorf("expected handler to run once, ran %d times", calls)
	}
}

func TestIdempotency_ScopedByPath(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	calls := 0
	handler := Idempotency(store, "", logger.Discard())(countingHandler(&calls, http.StatusCreated))

	for _, path := range []string{"/reservations", "/customers"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set(DefaultIdempotencyHeader, "same-key")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls != 2 {
		t.Errorf("expected 2 handler calls, got %d", calls)
	}
}

func TestIdempotency_SkipsFailuresAndReads(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"failed post", http.MethodPost, "/reservations", http.StatusBadRequest},
		{"get", http.MethodGet, "/reservations/5", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			handler := Idempotency(store, "", logger.Discard())(countingHandler(&calls, tt.status))
			for i := 0; i < 2; i++ {
				req := httptest.NewRequest(tt.method, tt.path, nil)
				req.Header.Set(DefaultIdempotencyHeader, "k")
				handler.ServeHTTP(httptest.NewRecorder(), req)
			}
			if calls != 2 {
				t.Errorf("expected 2 handler calls, got %d", calls)
			}
		})
	}
}

func TestInMemoryIdempotencyStore_Expires(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Millisecond)
	defer store.Stop()

	ctx := context.Background()
	if err := store.Set(ctx, "k", &CachedResponse{StatusCode: http.StatusOK}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, found, _ := store.Get(ctx, "k"); found {
		t.Error("expected entry to expire")
	}
}

type fakeRedisClient struct {
	data    map[string]string
	lastTTL time.Duration
	getErr  error
	closed  bool
}

func newFakeRedisClient() *fakeRedisClient {
	return &fakeRedisClient{data: make(map[string]string)}
}

func (f *fakeRedisClient) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	value, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(value, nil)
}

func (f *fakeRedisClient) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	raw, ok := value.([]byte)
	if !ok {
		return redis.NewStatusResult("", errors.New("unexpected value type"))
	}
	f.data[key] = string(raw)
	f.lastTTL = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedisClient) Close() error {
	f.closed = true
	return nil
}

func TestRedisIdempotencyStore(t *testing.T) {
	client := newFakeRedisClient()
	store := NewRedisIdempotencyStore(client, time.Hour)
	ctx := context.Background()

	if _, found, err := store.Get(ctx, "missing"); found || err != nil {
		t.Fatalf("expected miss without error, got found=%v err=%v", found, err)
	}

	response := &CachedResponse{
		StatusCode: http.StatusCreated,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(`{"id":7}`),
	}
	if err := store.Set(ctx, "POST /reservations k", response); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.lastTTL != time.Hour {
		t.Errorf("expected ttl 1h, got %v", client.lastTTL)
	}

	cached, found, err := store.Get(ctx, "POST /reservations k")
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if cached.StatusCode != http.StatusCreated || string(cached.Body) != `{"id":7}` {
		t.Errorf("unexpected cached response: %+v", cached)
	}
	if cached.Headers.Get("Content-Type") != "application/json" {
		t.Errorf("expected headers to round trip, got %v", cached.Headers)
	}

	store.Stop()
	if !client.closed {
		t.Error("expected Stop to close the client")
	}
}

func TestIdempotency_StoreErrorServesRequest(t *testing.T) {
	client := newFakeRedisClient()
	client.getErr = errors.New("connection refused")
	store := NewRedisIdempotencyStore(client, time.Hour)

	calls := 0
	handler := Idempotency(store, "", logger.Discard())(countingHandler(&calls, http.StatusCreated))

	req := httptest.NewRequest(http.MethodPost, "/customers", nil)
	req.Header.Set(DefaultIdempotencyHeader, "k")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusCreated || calls != 1 {
		t.Errorf("expected request to be served, got status %d calls %d", w.Code, calls)
	}
}
