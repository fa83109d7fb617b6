// Package identity provides identity-provider implementations for the
// engine's IdentityProvider port.
package identity

import (
	"context"
	"sync"

	"github.com/solatis/waykeeper/internal/types"
)

// Accounts is the lookup surface the db-backed provider needs.
// Implemented by *db.Store.
type Accounts interface {
	GetAccount(ctx context.Context, id types.IdentityID) (*types.Identity, error)
}

// StaticProvider holds an identity in memory and fans out change
// notifications to subscribers. Used by the CLI (identity resolved once
// from the database) and by embedding hosts that receive auth callbacks.
type StaticProvider struct {
	mu           sync.Mutex
	identity     *types.Identity
	initializing bool
	subscribers  map[int]func()
	nextSub      int
}

// NewStaticProvider creates a provider with no identity, not initializing.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		subscribers: make(map[int]func()),
	}
}

// Current returns the identity and whether one is set.
func (p *StaticProvider) Current() (types.Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.identity == nil {
		return types.Identity{}, false
	}
	return *p.identity, true
}

// Initializing reports whether auth state is still being resolved.
func (p *StaticProvider) Initializing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initializing
}

// SetInitializing toggles the initializing flag and notifies subscribers.
func (p *StaticProvider) SetInitializing(v bool) {
	p.mu.Lock()
	p.initializing = v
	p.mu.Unlock()
	p.notify()
}

// SetIdentity installs (or clears, with nil) the identity and notifies
// subscribers.
func (p *StaticProvider) SetIdentity(id *types.Identity) {
	p.mu.Lock()
	if id == nil {
		p.identity = nil
	} else {
		cp := *id
		p.identity = &cp
	}
	p.mu.Unlock()
	p.notify()
}

// Subscribe registers a change callback and returns its cancel function.
func (p *StaticProvider) Subscribe(fn func()) (cancel func()) {
	p.mu.Lock()
	key := p.nextSub
	p.nextSub++
	p.subscribers[key] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subscribers, key)
		p.mu.Unlock()
	}
}

// notify invokes subscribers outside the lock; callbacks may call back
// into the provider.
func (p *StaticProvider) notify() {
	p.mu.Lock()
	fns := make([]func(), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Load resolves an account from storage and installs it as the current
// identity. Clears the initializing flag regardless of outcome.
func (p *StaticProvider) Load(ctx context.Context, accounts Accounts, id types.IdentityID) error {
	account, err := accounts.GetAccount(ctx, id)
	if err != nil {
		p.SetInitializing(false)
		return err
	}
	p.mu.Lock()
	p.initializing = false
	cp := *account
	p.identity = &cp
	p.mu.Unlock()
	p.notify()
	return nil
}
