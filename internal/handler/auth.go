package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/trialkart/checkout-api/internal/domain/auth"
	"github.com/trialkart/checkout-api/pkg/httpmiddleware"
)

// APIKeyHeader carries the client's API key.
const APIKeyHeader = "api_key"

type identityKey struct{}

// IdentityFromContext returns the authenticated API key identity, if any.
func IdentityFromContext(ctx context.Context) (*auth.APIKeyInfo, bool) {
	info, ok := ctx.Value(identityKey{}).(*auth.APIKeyInfo)
	return info, ok
}

// APIKeyAuth returns a middleware authenticating requests via HMAC-SHA256
// hashed API keys: the incoming key is hashed with the pepper, looked up,
// and compared in constant time before the identity is placed in the
// request context.
func APIKeyAuth(apikeys auth.Repository, pepper []byte) httpmiddleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				respondError(w, http.StatusUnauthorized, "api key required")
				return
			}

			mac := hmac.New(sha256.New, pepper)
			mac.Write([]byte(key))
			hash := mac.Sum(nil)

			info, err := apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			// Constant-time comparison guards against timing side-channels
			// even though the lookup already succeeded: the stored hash could
			// differ from what we computed if the repository returns a stale
			// or wrong row.
			stored, err := hex.DecodeString(info.KeyHash)
			if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userID extracts the authenticated user, responding 401 when absent.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	info, ok := IdentityFromContext(r.Context())
	if !ok || info.UserID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return info.UserID, true
}
