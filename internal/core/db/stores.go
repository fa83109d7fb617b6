package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/solatis/waykeeper/internal/types"
)

/*
 * Store adapters over the named-query layer.
 *
 * Store implements the engine's SubscriptionStore and SetupStore ports,
 * the rules package's Provisioner, and account lookup for the CLI identity
 * provider. sql.ErrNoRows maps to the domain NotFound sentinels so the
 * fetcher can distinguish "record absent" (terminal, meaningful) from
 * transport failure (retried).
 */

// accountRow mirrors the accounts table.
type accountRow struct {
	IdentityID    string `db:"identity_id"`
	Email         string `db:"email"`
	EmailVerified bool   `db:"email_verified"`
}

// subscriptionRow mirrors the subscriptions table.
type subscriptionRow struct {
	IdentityID       string       `db:"identity_id"`
	Plan             string       `db:"plan"`
	Status           string       `db:"status"`
	IsActive         bool         `db:"is_active"`
	TrialEndsAt      sql.NullTime `db:"trial_ends_at"`
	CurrentPeriodEnd sql.NullTime `db:"current_period_end"`
}

// setupRow mirrors the setup_states table.
type setupRow struct {
	IdentityID     string `db:"identity_id"`
	FirstTimeSetup bool   `db:"first_time_setup"`
	ShowOnboarding bool   `db:"show_onboarding"`
}

// Store exposes account, subscription, and setup records through the
// engine's port contracts.
type Store struct {
	queries *Queries
}

// NewStore creates a store over loaded named queries.
func NewStore(queries *Queries) (*Store, error) {
	if queries == nil {
		return nil, fmt.Errorf("queries cannot be nil")
	}
	return &Store{queries: queries}, nil
}

// GetAccount returns the account for an identity.
// Returns types.ErrAccountNotFound when none exists.
func (s *Store) GetAccount(ctx context.Context, id types.IdentityID) (*types.Identity, error) {
	var row accountRow
	err := s.queries.GetContext(ctx, "get-account-by-identity", &row, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &types.Identity{
		ID:            types.IdentityID(row.IdentityID),
		Email:         row.Email,
		EmailVerified: row.EmailVerified,
	}, nil
}

// ListAccounts returns all accounts, ordered by identity id.
func (s *Store) ListAccounts(ctx context.Context) ([]types.Identity, error) {
	var rows []accountRow
	if err := s.queries.SelectContext(ctx, "list-accounts", &rows); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]types.Identity, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.Identity{
			ID:            types.IdentityID(row.IdentityID),
			Email:         row.Email,
			EmailVerified: row.EmailVerified,
		})
	}
	return out, nil
}

// GetSubscription returns the billing record for an identity.
// Returns types.ErrSubscriptionNotFound when no record exists.
func (s *Store) GetSubscription(ctx context.Context, id types.IdentityID) (*types.SubscriptionRecord, error) {
	var row subscriptionRow
	err := s.queries.GetContext(ctx, "get-subscription-by-identity", &row, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	rec := &types.SubscriptionRecord{
		Plan:     types.Plan(row.Plan),
		Status:   types.SubscriptionStatus(row.Status),
		IsActive: row.IsActive,
	}
	if row.TrialEndsAt.Valid {
		t := row.TrialEndsAt.Time
		rec.TrialEndsAt = &t
	}
	if row.CurrentPeriodEnd.Valid {
		t := row.CurrentPeriodEnd.Time
		rec.CurrentPeriodEnd = &t
	}
	return rec, nil
}

// GetSetup returns the provisioning record for an identity.
// Returns types.ErrSetupNotFound when setup was never provisioned.
func (s *Store) GetSetup(ctx context.Context, id types.IdentityID) (*types.SetupRecord, error) {
	var row setupRow
	err := s.queries.GetContext(ctx, "get-setup-by-identity", &row, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrSetupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get setup: %w", err)
	}
	return &types.SetupRecord{
		FirstTimeSetup: row.FirstTimeSetup,
		ShowOnboarding: row.ShowOnboarding,
	}, nil
}

// ProvisionDefaults creates the default setup record for an identity.
// Idempotent: an existing record is left untouched (ON CONFLICT DO NOTHING).
func (s *Store) ProvisionDefaults(ctx context.Context, id types.IdentityID) error {
	if id == "" {
		return types.ErrEmptyIdentity
	}
	if _, err := s.queries.ExecContext(ctx, "insert-default-setup", string(id)); err != nil {
		return fmt.Errorf("provision defaults: %w", err)
	}
	return nil
}
