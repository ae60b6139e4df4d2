package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"text/tabwriter"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/jmcleod/racetrack/api"
	"github.com/jmcleod/racetrack/storage"
)

var leaderboardJSON bool

// leaderboardFlags map the command's flags to the GET /api/race parameters.
var leaderboardFlags = map[string]string{
	"mode":    "mode",
	"sort":    "sort",
	"sort-by": "sortBy",
	"limit":   "limit",
	"offset":  "offset",
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Query the race leaderboard",
	Long: `Lists finished races from the configured store. The flags follow the
same rules as the query parameters of GET /api/race: unknown sort
directions and columns fall back to the defaults, and a negative limit
lists every race.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		values := url.Values{}
		for flag, param := range leaderboardFlags {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				values.Set(param, v)
			}
		}

		lb, err := openLeaderboard(cmd.Context(), cfg, clockwork.NewRealClock())
		if err != nil {
			return err
		}
		defer lb.Close()
		return printLeaderboard(cmd.Context(), lb, api.ParseLeaderboardQuery(values), cmd.OutOrStdout(), leaderboardJSON)
	},
}

func init() {
	rootCmd.AddCommand(leaderboardCmd)
	f := leaderboardCmd.Flags()
	f.String("mode", "", "Game mode to list (exact match)")
	f.String("sort", "ASC", "Sort direction: ASC or DESC")
	f.String("sort-by", storage.DefaultSortBy, "Sort column: id, mode, time or created_at")
	f.String("limit", fmt.Sprint(storage.DefaultLimit), "Maximum number of races, negative for all")
	f.String("offset", "0", "Number of races to skip")
	f.BoolVar(&leaderboardJSON, "json", false, "Output as JSON")
}

func printLeaderboard(ctx context.Context, lb storage.Leaderboard, q storage.Query, w io.Writer, asJSON bool) error {
	races, err := lb.Races(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to query leaderboard: %w", err)
	}
	params := api.NewLeaderboardParams(q)

	if asJSON {
		if races == nil {
			races = []storage.Race{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(api.LeaderboardResponse{Result: "ok", Params: params, Results: races})
	}

	fmt.Fprintf(w, "Mode: %q  Sort: %s %s  Offset: %d  Limit: %d\n\n",
		params.Mode, params.SortBy, params.Sort, params.Offset, params.Limit)
	if len(races) == 0 {
		fmt.Fprintln(w, "No races.")
		return nil
	}
	_, offset := q.Window()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tID\tNAME\tTIME\tFINISHED")
	for i, r := range races {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n",
			offset+i+1, r.ID, r.Name, formatRaceTime(r.Time), r.CreatedAt.UTC().Format(time.DateTime))
	}
	return tw.Flush()
}

// formatRaceTime renders milliseconds as m:ss.mmm.
func formatRaceTime(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d.%03d", int64(d/time.Minute), int64(d%time.Minute/time.Second), ms%1000)
}
