// Package auth models API key identities for the storefront API.
package auth

import "context"

// APIKeyInfo holds the identity behind a validated API key. UserID is the
// shopper the key acts for; it scopes the in-memory cart and order history.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	UserID  string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
