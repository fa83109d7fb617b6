// internal/engine/engine.go
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/solatis/waykeeper/internal/core/config"
	"github.com/solatis/waykeeper/internal/nav"
	"github.com/solatis/waykeeper/internal/rules"
	"github.com/solatis/waykeeper/internal/types"
)

/*
 * Decision cycle orchestration.
 *
 * One cycle: trigger -> guards -> fetch remote state (retrying) ->
 * classify location -> evaluate rule table -> maybe transition -> reset.
 *
 * Triggers run the cycle synchronously on the notifier's goroutine; a
 * trigger arriving while a cycle is in flight is dropped by the reentrancy
 * guard (staleness is preferable to unbounded queuing of navigation
 * intents).
 *
 * Failure semantics: no error escapes a cycle as a panic or unhandled
 * return. Fetch failure after retries reports once and falls back to the
 * main-app route - unless the user is already inside the app group, in
 * which case nothing moves. Side-effect failures are reported and the
 * decision stands.
 *
 * The engine exposes one observable result per cycle via Status and the
 * optional status listener: the resolved route, whether a decision is in
 * progress, the last fetch error, and readiness.
 */

// Status is the engine's observable result, consumed by the UI shell to
// gate rendering and show progress.
type Status struct {
	ResolvedRoute types.Route
	IsDeciding    bool
	LastError     error
	IsReady       bool
}

// Deps are the collaborator ports the engine consumes. All fields are
// required except Reporter, which defaults to NopReporter.
type Deps struct {
	Identity      IdentityProvider
	Router        Router
	Subscriptions SubscriptionStore
	Setups        SetupStore
	Evaluator     *rules.Evaluator
	Reporter      Reporter
}

// Engine is the navigation decision engine. One instance exists per active
// user session; it exclusively owns its session flags.
type Engine struct {
	cfg           *config.EngineConfig
	identity      IdentityProvider
	router        Router
	subscriptions SubscriptionStore
	setups        SetupStore
	evaluator     *rules.Evaluator
	reporter      Reporter
	logger        *slog.Logger
	now           func() time.Time

	reentrancy reentrancyGuard
	liveness   livenessGuard
	navG       *navGuard

	mu            sync.Mutex
	flags         types.SessionFlags
	activeContext map[string]string
	status        Status
	onStatus      func(Status)

	unsubscribes []func()
}

// Option configures optional engine behaviour.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock injects the time source used by the navigation cooldown and
// rule snapshots. Used by tests to step time deterministically.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithStatusListener registers a callback invoked after every status
// change. Called outside the engine lock; must not re-enter RunCycle.
func WithStatusListener(fn func(Status)) Option {
	return func(e *Engine) { e.onStatus = fn }
}

// New creates an engine instance from validated config and collaborators.
func New(cfg *config.EngineConfig, deps Deps, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errNilDep("cfg")
	}
	if deps.Identity == nil {
		return nil, errNilDep("identity provider")
	}
	if deps.Router == nil {
		return nil, errNilDep("router")
	}
	if deps.Subscriptions == nil {
		return nil, errNilDep("subscription store")
	}
	if deps.Setups == nil {
		return nil, errNilDep("setup store")
	}
	if deps.Evaluator == nil {
		return nil, errNilDep("evaluator")
	}

	reporter := deps.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}

	e := &Engine{
		cfg:           cfg,
		identity:      deps.Identity,
		router:        deps.Router,
		subscriptions: deps.Subscriptions,
		setups:        deps.Setups,
		evaluator:     deps.Evaluator,
		reporter:      reporter,
		logger:        slog.Default(),
		now:           time.Now,
		flags:         make(types.SessionFlags),
		activeContext: make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.navG = newNavGuard(cfg.NavCooldown, e.now)

	return e, nil
}

// Start subscribes to identity and route changes. Each change triggers one
// decision cycle on the notifier's goroutine.
func (e *Engine) Start(ctx context.Context) {
	e.unsubscribes = append(e.unsubscribes,
		e.identity.Subscribe(func() { _ = e.RunCycle(ctx) }),
		e.router.Subscribe(func() { _ = e.RunCycle(ctx) }),
	)
}

// Close tears the engine down. All in-flight cycle continuations become
// no-ops; no transition is issued after Close returns. Idempotent.
func (e *Engine) Close() {
	if !e.liveness.close() {
		return
	}
	for _, unsub := range e.unsubscribes {
		unsub()
	}
	e.unsubscribes = nil
}

// Status returns the engine's current observable result.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// SetActiveContext records an app-context value (active workspace, project)
// exposed to rule conditions on subsequent cycles.
func (e *Engine) SetActiveContext(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeContext[key] = value
}

// Flags returns a copy of the session flags. Testing and introspection;
// mutation happens exclusively through rule side-effect patches.
func (e *Engine) Flags() types.SessionFlags {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flags.Clone()
}

// RunCycle executes one complete decision cycle.
//
// Returns types.ErrEngineClosed after teardown and types.ErrCycleInFlight
// when a cycle is already running (the trigger is dropped). Both are
// drop signals, not failures; trigger callbacks ignore them. All other
// failure paths are handled inside the cycle and return nil.
func (e *Engine) RunCycle(ctx context.Context) error {
	if !e.liveness.alive() {
		return types.ErrEngineClosed
	}
	if e.identity.Initializing() {
		// Auth state unresolved: no decision may run, readiness withheld.
		return nil
	}
	if !e.reentrancy.tryAcquire() {
		return types.ErrCycleInFlight
	}
	defer e.reentrancy.release()

	cycle := types.NewCycleID()
	e.setStatus(func(s *Status) { s.IsDeciding = true })

	identity, authenticated := e.identity.Current()

	var state remoteState
	if authenticated {
		var err error
		state, err = e.fetchRemoteState(ctx, identity.ID, cycle)
		if !e.liveness.alive() {
			// Torn down mid-fetch: discard the stale result.
			return types.ErrEngineClosed
		}
		if err != nil {
			e.degradeToFallback(err, identity.ID, cycle)
			return nil
		}
	}

	snap := e.snapshot(identity, authenticated, state)
	decision, patch, effErr := e.evaluator.Evaluate(ctx, snap)
	if effErr != nil {
		// Side-effect failure is diagnostic; the decision stands.
		e.reporter.Report(effErr, map[string]any{
			"cycle":    cycle,
			"identity": identity.ID,
			"rule":     decision.Rule,
		})
	}

	if !e.liveness.alive() {
		return types.ErrEngineClosed
	}

	e.mu.Lock()
	e.flags.Merge(patch)
	e.mu.Unlock()

	e.execute(decision, snap.Path, cycle)

	e.setStatus(func(s *Status) {
		s.ResolvedRoute = decision.Target
		s.IsDeciding = false
		s.LastError = nil
		s.IsReady = true
	})
	return nil
}

// snapshot assembles the immutable evaluation input for this cycle.
func (e *Engine) snapshot(identity types.Identity, authenticated bool, state remoteState) rules.Snapshot {
	path := e.router.CurrentPath()

	e.mu.Lock()
	flags := e.flags.Clone()
	active := make(map[string]string, len(e.activeContext))
	for k, v := range e.activeContext {
		active[k] = v
	}
	e.mu.Unlock()

	snap := rules.Snapshot{
		Subscription:  state.subscription,
		Setup:         state.setup,
		Flags:         flags,
		Path:          path,
		Nav:           nav.Classify(path),
		ActiveContext: active,
		Now:           e.now(),
	}
	if authenticated {
		id := identity
		snap.Identity = &id
	}
	return snap
}

// degradeToFallback handles fetch failure after exhausted retries: report
// once, then move to the main-app route so the user is never stalled on an
// indeterminate screen - unless they are already inside the app group.
func (e *Engine) degradeToFallback(err error, id types.IdentityID, cycle types.CycleID) {
	e.reporter.Report(err, map[string]any{
		"cycle":    cycle,
		"identity": id,
	})

	fallback := types.Decision{Target: e.cfg.FallbackRoute, Rule: "fetch-fallback"}
	currentPath := e.router.CurrentPath()
	if !nav.Classify(currentPath).InApp {
		e.execute(fallback, currentPath, cycle)
	}

	e.setStatus(func(s *Status) {
		s.ResolvedRoute = fallback.Target
		s.IsDeciding = false
		s.LastError = err
		s.IsReady = true
	})
}

// setStatus mutates the observable status under the lock and notifies the
// listener outside it.
func (e *Engine) setStatus(mutate func(*Status)) {
	e.mu.Lock()
	mutate(&e.status)
	snapshot := e.status
	listener := e.onStatus
	e.mu.Unlock()

	if listener != nil {
		listener(snapshot)
	}
}

// errNilDep reports a missing required collaborator.
func errNilDep(name string) error {
	return fmt.Errorf("%s cannot be nil", name)
}
