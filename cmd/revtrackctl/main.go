package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"revtrack/internal/backend"
	"revtrack/internal/cli"
	"revtrack/internal/config"
	"revtrack/internal/core"
)

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	backend string
	dbPath  string
	dataDir string
	asJSON  bool
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &rootOptions{
		backend: cfg.DataBackend,
		dbPath:  cfg.SQLiteDBPath,
		dataDir: cfg.DataDir,
	}

	root := &cobra.Command{
		Use:           "revtrackctl",
		Short:         "Inspect and maintain revtrack data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.backend, "backend", opts.backend, "data backend: "+strings.Join(backend.GetBackendTypeStrings(), "|"))
	root.PersistentFlags().StringVar(&opts.dbPath, "db", opts.dbPath, "SQLite database path")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", opts.dataDir, "seed directory for the memory backend")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of text")

	root.AddCommand(newBucketCmd(opts))
	root.AddCommand(newRangeCmd(opts))
	root.AddCommand(newProgressCmd(opts))
	root.AddCommand(newSummaryCmd(opts))
	root.AddCommand(newCallsCmd(opts))
	root.AddCommand(newConsistencyCmd(opts))
	return root
}

// session is an open data store plus the writer commands print to.
type session struct {
	*backend.Result
	out    io.Writer
	asJSON bool
}

func openSession(cmd *cobra.Command, opts *rootOptions) (*session, error) {
	cfg := config.Load()
	cfg.DataBackend = opts.backend
	cfg.SQLiteDBPath = opts.dbPath
	cfg.DataDir = opts.dataDir
	cfg.LogLevel = "error"
	logger := cli.SetupLogger(cfg)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(cmd.Context(), backendCfg)
	if err != nil {
		return nil, err
	}
	return &session{Result: result, out: cmd.OutOrStdout(), asJSON: opts.asJSON}, nil
}

func (s *session) close() {
	if err := s.Cleanup(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "cleanup:", err)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newBucketCmd(opts *rootOptions) *cobra.Command {
	var granularity string
	cmd := &cobra.Command{
		Use:   "bucket [date]",
		Short: "Print the bucket key a date falls in (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := core.ParseGranularity(granularity)
			if err != nil {
				return err
			}
			d := core.DateOf(time.Now())
			if len(args) == 1 {
				if d, err = core.ParseDate(args[0]); err != nil {
					return err
				}
			}
			key := core.ResolveBucket(d, g)
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"date": d, "type": g, "key": key})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
	cmd.Flags().StringVar(&granularity, "type", "monthly", "granularity: daily|weekly|monthly|yearly")
	return cmd
}

func newRangeCmd(opts *rootOptions) *cobra.Command {
	var granularity string
	cmd := &cobra.Command{
		Use:   "range <key>",
		Short: "Print the first and last day of a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := core.ParseGranularity(granularity)
			if err != nil {
				return err
			}
			r, err := core.BucketRange(core.BucketKey(args[0]), g)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), r)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", r.Start, r.End)
			return nil
		},
	}
	cmd.Flags().StringVar(&granularity, "type", "monthly", "granularity: daily|weekly|monthly|yearly")
	return cmd
}

func newProgressCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show progress of every goal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			progress := s.Service.GoalProgress()
			if s.asJSON {
				return printJSON(s.out, progress)
			}
			if len(progress) == 0 {
				_, _ = fmt.Fprintln(s.out, "no goals")
				return nil
			}
			tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "GOAL\tPERIOD\tCURRENT\tTARGET\tPERCENT\tDONE")
			for _, p := range progress {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f%%\t%t\n",
					p.Goal.ID, p.Goal.Period,
					p.CurrentAmount.StringFixed(2), p.Goal.TargetAmount.StringFixed(2),
					p.ProgressPercentage, p.IsCompleted)
			}
			_, _ = fmt.Fprintf(tw, "\ncompletion rate\t%.1f%%\n", core.CompletionRate(progress))
			return tw.Flush()
		},
	}
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the revenue summary for today, this week and this month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			sum := s.Service.Summary(core.EntryFilter{}, core.CallFilter{})
			if s.asJSON {
				return printJSON(s.out, sum)
			}
			tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "PERIOD\tCURRENT\tPREVIOUS\tGROWTH")
			for _, row := range []struct {
				name string
				p    core.PeriodComparison
			}{
				{"today", sum.Day},
				{"week", sum.Week},
				{"month", sum.Month},
			} {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\n",
					row.name, row.p.Current.StringFixed(2), row.p.Previous.StringFixed(2), row.p.Growth)
			}
			_, _ = fmt.Fprintf(tw, "conversion rate\t%.1f%%\t%.1f%%\t%.1f%%\n",
				sum.ConversionRate.Current, sum.ConversionRate.Previous, sum.ConversionRate.Growth)
			return tw.Flush()
		},
	}
}

func newCallsCmd(opts *rootOptions) *cobra.Command {
	calls := &cobra.Command{Use: "calls", Short: "Call statistics and conversions"}

	var from, to string
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show call statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter core.CallFilter
			for _, f := range []struct {
				raw string
				dst **core.Date
			}{{from, &filter.From}, {to, &filter.To}} {
				if f.raw == "" {
					continue
				}
				d, err := core.ParseDate(f.raw)
				if err != nil {
					return err
				}
				*f.dst = &d
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			st := s.Service.CallStats(filter)
			if s.asJSON {
				return printJSON(s.out, st)
			}
			tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintf(tw, "calls\t%d\n", st.TotalCalls)
			_, _ = fmt.Fprintf(tw, "completed\t%d\n", st.CompletedCalls)
			_, _ = fmt.Fprintf(tw, "no-show\t%d\n", st.NoShowCalls)
			_, _ = fmt.Fprintf(tw, "show rate\t%.1f%%\n", st.ShowRate)
			_, _ = fmt.Fprintf(tw, "conversions\t%d\n", st.Conversions)
			_, _ = fmt.Fprintf(tw, "conversion rate\t%.1f%%\n", st.ConversionRate)
			_, _ = fmt.Fprintf(tw, "revenue\t%s\n", st.TotalRevenue.StringFixed(2))
			return tw.Flush()
		},
	}
	stats.Flags().StringVar(&from, "from", "", "first call date (YYYY-MM-DD)")
	stats.Flags().StringVar(&to, "to", "", "last call date (YYYY-MM-DD)")

	convert := &cobra.Command{
		Use:   "convert <call-id> <amount>",
		Short: "Mark a call converted and write its revenue entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return err
			}
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			c, err := s.Service.ConvertCall(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			if s.asJSON {
				return printJSON(s.out, c)
			}
			_, _ = fmt.Fprintf(s.out, "converted %s for %s, entry %s\n",
				c.ID, c.ConversionAmount.StringFixed(2), core.DerivedEntryID(c.ID))
			return nil
		},
	}

	revert := &cobra.Command{
		Use:   "revert <call-id>",
		Short: "Clear a call conversion and remove its revenue entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			c, err := s.Service.RevertCall(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if s.asJSON {
				return printJSON(s.out, c)
			}
			_, _ = fmt.Fprintf(s.out, "reverted %s\n", c.ID)
			return nil
		},
	}

	calls.AddCommand(stats, convert, revert)
	return calls
}

func newConsistencyCmd(opts *rootOptions) *cobra.Command {
	var repair bool
	cmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check that converted calls and their revenue entries agree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			drift := s.Service.Consistency()
			if repair && len(drift) > 0 {
				if drift, err = s.Service.RepairConversions(cmd.Context()); err != nil {
					return err
				}
			}
			if s.asJSON {
				if drift == nil {
					drift = []core.Drift{}
				}
				return printJSON(s.out, map[string]any{"drift": drift, "repaired": repair && len(drift) > 0})
			}
			if len(drift) == 0 {
				_, _ = fmt.Fprintln(s.out, "consistent")
				return nil
			}
			tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "KIND\tCALL\tENTRY")
			for _, d := range drift {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Kind, d.CallID, d.EntryID)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if repair {
				_, _ = fmt.Fprintf(s.out, "repaired %d\n", len(drift))
				return nil
			}
			return fmt.Errorf("%d inconsistencies found, rerun with --repair", len(drift))
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "rewrite derived entries to match their calls")
	return cmd
}
