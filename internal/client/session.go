package client

import (
	"sync"
	"sync/atomic"

	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// credentialState is one immutable generation of the session's credential
// pair. Replacement swaps the whole pointer, so a reader never observes an
// access token from one generation paired with a refresh token from another.
type credentialState struct {
	pair       domain.TokenPair
	generation uint64
}

// Session holds the client's credential pair and serializes refreshes.
// Reads are lock-free; the mutex is only taken on the refresh path.
type Session struct {
	cred atomic.Pointer[credentialState]
	gen  atomic.Uint64

	// refreshMu is the single-flight gate: concurrent 401 handlers all funnel
	// through it, and whoever enters first does the rotation while the rest
	// block. Waiters detect a completed rotation by the generation bump.
	refreshMu sync.Mutex
}

// NewSession creates an empty, unauthenticated Session.
func NewSession() *Session {
	return &Session{}
}

// Set installs a fresh credential pair as a new generation.
func (s *Session) Set(pair domain.TokenPair) {
	s.cred.Store(&credentialState{pair: pair, generation: s.gen.Add(1)})
}

// Clear drops the credential pair, returning the session to the
// unauthenticated state.
func (s *Session) Clear() {
	s.cred.Store(nil)
}

// Current returns the credential pair and its generation. ok is false when no
// session is established.
func (s *Session) Current() (pair domain.TokenPair, generation uint64, ok bool) {
	state := s.cred.Load()
	if state == nil {
		return domain.TokenPair{}, 0, false
	}
	return state.pair, state.generation, true
}

// Authenticated reports whether a credential pair is present.
func (s *Session) Authenticated() bool {
	return s.cred.Load() != nil
}
