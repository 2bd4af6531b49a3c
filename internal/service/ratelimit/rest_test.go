package ratelimit_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ranjit123-yst/ananya/internal/service/ratelimit"
)

// fakeRedis emulates the Redis REST endpoint the remote counter speaks to.
type fakeRedis struct {
	counts map[string]int64
	ttls   map[string]int64
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{counts: make(map[string]int64), ttls: make(map[string]int64)}
}

func (f *fakeRedis) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing bearer token on %s", r.URL.Path)
		}

		parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
		switch parts[0] {
		case "incr":
			f.counts[parts[1]]++
			fmt.Fprintf(w, `{"result":%d}`, f.counts[parts[1]])
		case "decr":
			f.counts[parts[1]]--
			fmt.Fprintf(w, `{"result":%d}`, f.counts[parts[1]])
		case "expire":
			f.ttls[parts[1]] = 86400
			fmt.Fprint(w, `{"result":1}`)
		case "ttl":
			fmt.Fprintf(w, `{"result":%d}`, f.ttls[parts[1]])
		case "get":
			if count, ok := f.counts[parts[1]]; ok {
				fmt.Fprintf(w, `{"result":"%d"}`, count)
			} else {
				fmt.Fprint(w, `{"result":null}`)
			}
		default:
			t.Errorf("unexpected command %q", parts[0])
		}
	}
}

func TestRestCounterIncr(t *testing.T) {
	redis := newFakeRedis()
	server := httptest.NewServer(redis.handler(t))
	defer server.Close()

	counter := ratelimit.NewRestCounter(server.URL, "test-token", 24*time.Hour)
	ctx := context.Background()

	count, _, ok, err := counter.Incr(ctx, "ip_abc", 5)
	if err != nil {
		t.Fatalf("Incr err: %v", err)
	}
	if count != 1 || !ok {
		t.Fatalf("first Incr = (%d, %v), want (1, true)", count, ok)
	}
	if redis.ttls["ratelimit:ip_abc"] == 0 {
		t.Fatal("fresh key should receive an expiry")
	}

	count, _, ok, err = counter.Incr(ctx, "ip_abc", 5)
	if err != nil {
		t.Fatalf("Incr err: %v", err)
	}
	if count != 2 || !ok {
		t.Fatalf("second Incr = (%d, %v), want (2, true)", count, ok)
	}
}

func TestRestCounterCeiling(t *testing.T) {
	redis := newFakeRedis()
	server := httptest.NewServer(redis.handler(t))
	defer server.Close()

	counter := ratelimit.NewRestCounter(server.URL, "test-token", 24*time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, _, ok, err := counter.Incr(ctx, "ip_abc", 2); err != nil || !ok {
			t.Fatalf("Incr %d = (ok=%v, err=%v)", i, ok, err)
		}
	}

	count, _, ok, err := counter.Incr(ctx, "ip_abc", 2)
	if err != nil {
		t.Fatalf("Incr err: %v", err)
	}
	if ok {
		t.Fatal("Incr past the ceiling should report rejection")
	}
	if count != 2 {
		t.Fatalf("reported count = %d, want clamped to 2", count)
	}
	if redis.counts["ratelimit:ip_abc"] != 2 {
		t.Fatalf("stored count = %d, the overshoot should be undone", redis.counts["ratelimit:ip_abc"])
	}
}

func TestRestCounterPeek(t *testing.T) {
	redis := newFakeRedis()
	server := httptest.NewServer(redis.handler(t))
	defer server.Close()

	counter := ratelimit.NewRestCounter(server.URL, "test-token", 24*time.Hour)
	ctx := context.Background()

	count, _, err := counter.Peek(ctx, "ip_new")
	if err != nil {
		t.Fatalf("Peek err: %v", err)
	}
	if count != 0 {
		t.Fatalf("fresh identity count = %d, want 0", count)
	}

	counter.Incr(ctx, "ip_new", 5)

	count, _, err = counter.Peek(ctx, "ip_new")
	if err != nil {
		t.Fatalf("Peek err: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after one use = %d, want 1", count)
	}
}

func TestRestCounterUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	counter := ratelimit.NewRestCounter(server.URL, "test-token", 24*time.Hour)
	if _, _, _, err := counter.Incr(context.Background(), "ip_abc", 5); err == nil {
		t.Fatal("expected error from unreachable backend")
	}
}
