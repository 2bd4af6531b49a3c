package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RestCounter delegates counting to a Redis-compatible REST service (Upstash
// style: GET {base}/{command}/{args...} with a bearer token). Atomicity of the
// increment is the remote service's job.
type RestCounter struct {
	base   string
	token  string
	window time.Duration
	client *http.Client
}

// NewRestCounter builds a counter against the given REST endpoint.
func NewRestCounter(base, token string, window time.Duration) *RestCounter {
	return &RestCounter{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		window: window,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *RestCounter) key(identity string) string {
	return "ratelimit:" + identity
}

func (c *RestCounter) Incr(ctx context.Context, identity string, limit int) (int, time.Time, bool, error) {
	key := c.key(identity)
	now := time.Now()

	count, err := c.command(ctx, "incr", key)
	if err != nil {
		return 0, time.Time{}, false, err
	}

	resetAt := now.Add(c.window)
	if count == 1 {
		// Fresh window: bind the key's lifetime to it.
		ttl := int64(c.window / time.Second)
		if _, err := c.command(ctx, "expire", key, strconv.FormatInt(ttl, 10)); err != nil {
			return 0, time.Time{}, false, err
		}
	} else if ttl, err := c.command(ctx, "ttl", key); err != nil {
		log.Printf("[ratelimit] ttl lookup failed for %s, reporting a full window: %v", key, err)
	} else if ttl > 0 {
		resetAt = now.Add(time.Duration(ttl) * time.Second)
	}

	if count > int64(limit) {
		// Undo the overshoot so the stored count never exceeds the ceiling.
		if _, err := c.command(ctx, "decr", key); err != nil {
			return limit, resetAt, false, err
		}
		return limit, resetAt, false, nil
	}

	return int(count), resetAt, true, nil
}

func (c *RestCounter) Peek(ctx context.Context, identity string) (int, time.Time, error) {
	key := c.key(identity)
	now := time.Now()

	count, err := c.command(ctx, "get", key)
	if err != nil {
		return 0, time.Time{}, err
	}
	if count == 0 {
		return 0, now.Add(c.window), nil
	}

	resetAt := now.Add(c.window)
	if ttl, err := c.command(ctx, "ttl", key); err != nil {
		log.Printf("[ratelimit] ttl lookup failed for %s, reporting a full window: %v", key, err)
	} else if ttl > 0 {
		resetAt = now.Add(time.Duration(ttl) * time.Second)
	}
	return int(count), resetAt, nil
}

// command issues a single REST command and parses the numeric result. A null
// result (missing key) reads as zero.
func (c *RestCounter) command(ctx context.Context, parts ...string) (int64, error) {
	segments := make([]string, len(parts))
	for i, part := range parts {
		segments[i] = url.PathEscape(part)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/"+strings.Join(segments, "/"), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("counter service returned status %d", resp.StatusCode)
	}

	var payload struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode counter response: %w", err)
	}
	return parseResult(payload.Result)
}

func parseResult(raw json.RawMessage) (int64, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return 0, nil
	}
	text = strings.Trim(text, `"`)
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected counter result %q", raw)
	}
	return value, nil
}
