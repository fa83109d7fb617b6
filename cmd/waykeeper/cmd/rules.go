package cmd

import (
	"fmt"

	"github.com/solatis/waykeeper/internal/rules"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the routing rule table in evaluation order",
	RunE:  runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	evaluator, err := rules.NewEvaluator(rules.DefaultTable(nil))
	if err != nil {
		return err
	}

	fmt.Printf("%-30s %8s  %s\n", "RULE", "PRIORITY", "TARGET")
	for _, r := range evaluator.Rules() {
		fmt.Printf("%-30s %8d  %s\n", r.Name, r.Priority, r.Target)
	}
	return nil
}
