package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/solatis/waykeeper/internal/core/config"
	"github.com/solatis/waykeeper/internal/core/db"
	"github.com/solatis/waykeeper/internal/core/identity"
	"github.com/solatis/waykeeper/internal/engine"
	"github.com/solatis/waykeeper/internal/rules"
	"github.com/solatis/waykeeper/internal/types"
	"github.com/spf13/cobra"
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Run one decision cycle for an identity and print the outcome",
	RunE:  runDecide,
}

func init() {
	rootCmd.AddCommand(decideCmd)
	decideCmd.Flags().String("identity", "", "identity id (omit for signed-out decision)")
	decideCmd.Flags().String("path", "/", "current route path")
}

// decideOutput is the JSON result printed for one cycle.
type decideOutput struct {
	Identity  string      `json:"identity,omitempty"`
	PathIn    string      `json:"path_in"`
	Resolved  types.Route `json:"resolved"`
	Navigated bool        `json:"navigated"`
	PathOut   string      `json:"path_out"`
	LastError string      `json:"last_error,omitempty"`
}

func runDecide(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if dbURL == "" {
		return fmt.Errorf("--db-url required")
	}
	database, err := db.Open(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}
	store, err := db.NewStore(queries)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	provider := identity.NewStaticProvider()
	identityArg, _ := cmd.Flags().GetString("identity")
	if identityArg != "" {
		id, err := types.ParseIdentityID(identityArg)
		if err != nil {
			return fmt.Errorf("invalid identity id: %w", err)
		}
		if err := provider.Load(ctx, store, id); err != nil && !errors.Is(err, types.ErrAccountNotFound) {
			return fmt.Errorf("failed to load identity: %w", err)
		}
	}

	pathArg, _ := cmd.Flags().GetString("path")
	router := newMemoryRouter(pathArg)

	evaluator, err := rules.NewEvaluator(rules.DefaultTable(store))
	if err != nil {
		return fmt.Errorf("failed to build rule table: %w", err)
	}

	eng, err := engine.New(cfg, engine.Deps{
		Identity:      provider,
		Router:        router,
		Subscriptions: store,
		Setups:        store,
		Evaluator:     evaluator,
		Reporter:      engine.LogReporter{Logger: slog.Default()},
	}, engine.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer eng.Close()

	if err := eng.RunCycle(ctx); err != nil {
		return fmt.Errorf("decision cycle: %w", err)
	}

	status := eng.Status()
	out := decideOutput{
		Identity:  identityArg,
		PathIn:    pathArg,
		Resolved:  status.ResolvedRoute,
		Navigated: router.Replaced(),
		PathOut:   router.CurrentPath(),
	}
	if status.LastError != nil {
		out.LastError = status.LastError.Error()
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// memoryRouter is an in-process Router recording the single transition a
// decide run may issue.
type memoryRouter struct {
	mu          sync.Mutex
	path        string
	replaced    bool
	subscribers []func()
}

func newMemoryRouter(path string) *memoryRouter {
	return &memoryRouter{path: path}
}

// CurrentPath returns the current route path.
func (r *memoryRouter) CurrentPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}

// Replace records a history-replacing transition.
func (r *memoryRouter) Replace(target types.Route, params types.Params) error {
	r.mu.Lock()
	r.path = string(target)
	r.replaced = true
	fns := append([]func(){}, r.subscribers...)
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

// Subscribe registers a route-change callback.
func (r *memoryRouter) Subscribe(fn func()) (cancel func()) {
	r.mu.Lock()
	r.subscribers = append(r.subscribers, fn)
	idx := len(r.subscribers) - 1
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		r.subscribers[idx] = func() {}
		r.mu.Unlock()
	}
}

// Replaced reports whether a transition was issued.
func (r *memoryRouter) Replaced() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaced
}
