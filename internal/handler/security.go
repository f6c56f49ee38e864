package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/ordway/salesdesk/internal/domain/auth"
)

// APIKeyHeader carries the caller's key on every request.
const APIKeyHeader = "X-API-Key"

// Security authenticates requests via HMAC-SHA256 hashed API keys and places
// the key owner's user ID into the request context.
type Security struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurity creates a Security middleware with the given API key repository
// and HMAC pepper.
func NewSecurity(apikeys auth.Repository, pepper []byte) *Security {
	return &Security{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Authenticate wraps next, rejecting requests that do not carry a valid API
// key. The key is never stored or compared in plaintext: the request value is
// HMAC-hashed, looked up, and verified with a constant-time comparison to
// prevent timing attacks.
func (s *Security) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			writeErrorBody(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing API key", nil)
			return
		}

		mac := hmac.New(sha256.New, s.pepper)
		mac.Write([]byte(key))
		hash := mac.Sum(nil)

		info, err := s.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
		if err != nil {
			writeErrorBody(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key", nil)
			return
		}

		// Constant-time comparison guards against timing side-channels even
		// though the lookup already succeeded: the stored hash could differ
		// from what we computed if the repository returns a stale/wrong row.
		storedBytes, err := hex.DecodeString(info.KeyHash)
		if err != nil {
			writeErrorBody(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key", nil)
			return
		}
		if subtle.ConstantTimeCompare(hash, storedBytes) != 1 {
			writeErrorBody(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), info.UserID)))
	})
}
