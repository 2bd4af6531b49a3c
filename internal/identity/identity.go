package identity

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
)

// fallbackAddr is used when no proxy header carries a client address.
const fallbackAddr = "127.0.0.1"

// ClientIP extracts the originating client address from proxy headers, first
// non-empty wins.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if cfIP := r.Header.Get("CF-Connecting-IP"); cfIP != "" {
		return cfIP
	}
	return fallbackAddr
}

// Hash derives the visitor token from a network origin. FNV-1a keeps the raw
// address out of server state; it is a rate-limit and session key, not an
// access-control boundary, so collisions between distinct origins are
// tolerated.
func Hash(origin string) string {
	h := fnv.New32a()
	h.Write([]byte(origin))
	return fmt.Sprintf("ip_%x", h.Sum32())
}

// FromRequest resolves the visitor token for an inbound request.
func FromRequest(r *http.Request) string {
	return Hash(ClientIP(r))
}
