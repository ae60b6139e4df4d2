package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/jmcleod/racetrack/storage"
)

var countersJSON bool

var countersCmd = &cobra.Command{
	Use:   "counters",
	Short: "Print the completion counters",
	Long: `Prints the completion count of every game mode from the configured
store, as shown on the /stats page.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		lb, err := openLeaderboard(cmd.Context(), cfg, clockwork.NewRealClock())
		if err != nil {
			return err
		}
		defer lb.Close()
		return printCounters(cmd.Context(), lb, cmd.OutOrStdout(), countersJSON)
	},
}

func init() {
	rootCmd.AddCommand(countersCmd)
	countersCmd.Flags().BoolVar(&countersJSON, "json", false, "Output as JSON")
}

func printCounters(ctx context.Context, lb storage.Leaderboard, w io.Writer, asJSON bool) error {
	counters, err := lb.Counters(ctx)
	if err != nil {
		return fmt.Errorf("failed to read counters: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(counters)
	}

	if len(counters) == 0 {
		fmt.Fprintln(w, "No counters.")
		return nil
	}
	fmt.Fprintln(w, "Completion Counters")
	for _, c := range counters {
		fmt.Fprintf(w, "%s: %d\n", c.Mode, c.Count)
	}
	return nil
}
