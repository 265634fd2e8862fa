package cart

import "sync"

// Store keeps one Cart per user for the lifetime of the process. Carts are
// created lazily on first access. There is no ambient global: the store is
// constructed in the wiring layer and injected wherever carts are needed.
type Store struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{carts: make(map[string]*Cart)}
}

// Get returns the cart for the given user, creating it if necessary.
func (s *Store) Get(userID string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		c = New()
		s.carts[userID] = c
	}
	return c
}

// Drop discards the cart for the given user, ending the session.
func (s *Store) Drop(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}
