package cmd

import (
	"context"
	"fmt"

	"github.com/solatis/waykeeper/internal/core/db"
	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List known accounts (useful for picking a decide --identity)",
	RunE:  runAccounts,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
}

func runAccounts(cmd *cobra.Command, args []string) error {
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

	accounts, err := store.ListAccounts(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%-36s  %-30s  %s\n", "IDENTITY", "EMAIL", "VERIFIED")
	for _, a := range accounts {
		fmt.Printf("%-36s  %-30s  %t\n", a.ID, a.Email, a.EmailVerified)
	}
	return nil
}
