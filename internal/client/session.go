package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sonvt1710/graylog2-server/internal/shares"
)

var (
	// ErrStaleResponse reports a prepare answer overtaken by a newer request. The answer
	// was discarded and the session state is unchanged.
	ErrStaleResponse = errors.New("client: stale sharing response discarded")
	// ErrNotOpened is returned by edits made before Open succeeded.
	ErrNotOpened = errors.New("client: sharing session not opened")
	// ErrValidationFailed blocks Submit while the last state carries a failed validation.
	ErrValidationFailed = errors.New("client: sharing selection failed validation")
)

// Sharer is the server side of a sharing session.
type Sharer interface {
	Prepare(ctx context.Context, entity string, selection *shares.GranteeCapabilities) (*shares.EntityShareState, error)
	Update(ctx context.Context, entity string, selection shares.GranteeCapabilities) (*shares.EntityShareState, error)
}

// Session is one sharing dialog for one entity. It holds the current state and replaces
// it with each server answer. Every request takes a monotonic token; an answer whose token
// is older than the newest issued one is dropped.
//
// Edits build on the newest requested selection, so an edit whose answer is dropped still
// reaches the server through the request that overtook it.
type Session struct {
	api    Sharer
	entity string

	mu      sync.Mutex
	state   *shares.EntityShareState
	pending *shares.GranteeCapabilities
	issued  uint64
}

// NewSession creates a session for entity.
func NewSession(api Sharer, entity string) (*Session, error) {
	if api == nil {
		return nil, errors.New("client: sharer is required")
	}
	entity = strings.TrimSpace(entity)
	if entity == "" {
		return nil, errors.New("client: entity is required")
	}
	return &Session{api: api, entity: entity}, nil
}

// Entity returns the GRN the session shares.
func (s *Session) Entity() string {
	return s.entity
}

// State returns the latest accepted state, or nil before Open.
func (s *Session) State() *shares.EntityShareState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CanSubmit reports whether Submit would reach the server. Error grantees do not block
// submission; the server validates them.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != nil && !s.state.ValidationResult().Failed
}

// Open loads the persisted sharing state.
func (s *Session) Open(ctx context.Context) (*shares.EntityShareState, error) {
	token := s.nextToken()
	state, err := s.api.Prepare(ctx, s.entity, nil)
	return s.accept(token, state, err)
}

// Select sets the capability of a grantee and asks the server to evaluate the result.
// ErrStaleResponse means a later edit was issued; that edit's request already carries this one.
func (s *Session) Select(ctx context.Context, granteeID, capabilityID string) (*shares.EntityShareState, error) {
	return s.edit(ctx, func(sel shares.GranteeCapabilities) shares.GranteeCapabilities {
		return sel.Set(granteeID, capabilityID)
	})
}

// Remove drops a grantee from the selection and asks the server to evaluate the result.
// Stale answers behave as for Select.
func (s *Session) Remove(ctx context.Context, granteeID string) (*shares.EntityShareState, error) {
	return s.edit(ctx, func(sel shares.GranteeCapabilities) shares.GranteeCapabilities {
		return sel.Remove(granteeID)
	})
}

// Submit applies the selection of the latest accepted state. Edits still in flight are
// superseded and answer ErrStaleResponse. A rejected submission still installs the state
// the server returned.
func (s *Session) Submit(ctx context.Context) (*shares.EntityShareState, error) {
	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		return nil, ErrNotOpened
	}
	if s.state.ValidationResult().Failed {
		s.mu.Unlock()
		return nil, ErrValidationFailed
	}
	selection := s.state.SelectedGranteeCapabilities()
	s.pending = nil
	s.issued++
	token := s.issued
	s.mu.Unlock()

	state, err := s.api.Update(ctx, s.entity, selection)
	return s.accept(token, state, err)
}

func (s *Session) edit(ctx context.Context, change func(shares.GranteeCapabilities) shares.GranteeCapabilities) (*shares.EntityShareState, error) {
	s.mu.Lock()
	if s.state == nil {
		s.mu.Unlock()
		return nil, ErrNotOpened
	}
	base := s.state.SelectedGranteeCapabilities()
	if s.pending != nil {
		base = *s.pending
	}
	selection := change(base)
	s.pending = &selection
	s.issued++
	token := s.issued
	s.mu.Unlock()

	state, err := s.api.Prepare(ctx, s.entity, &selection)
	return s.accept(token, state, err)
}

func (s *Session) nextToken() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.issued++
	return s.issued
}

// accept installs state when token is still the newest. A state delivered alongside an
// error (a rejected update) is installed as well. The newest answer settles the pending
// selection either way.
func (s *Session) accept(token uint64, state *shares.EntityShareState, err error) (*shares.EntityShareState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.issued {
		return nil, ErrStaleResponse
	}
	s.pending = nil
	if state != nil {
		s.state = state
	}
	return state, err
}
