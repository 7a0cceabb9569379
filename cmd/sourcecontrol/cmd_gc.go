package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/utkarsh5026/sourcevault/cmd/ui"
	"github.com/utkarsh5026/sourcevault/pkg/config"
	"github.com/utkarsh5026/sourcevault/pkg/gc"
	"github.com/utkarsh5026/sourcevault/pkg/repository/sourcerepo"
)

func newGCCmd(a *app) *cobra.Command {
	var expire, grace string
	var dryRun, metrics bool

	cmd := &cobra.Command{
		Use:   "gc [--expire <age>] [--grace <age>] [--dry-run]",
		Short: "Expire old log entries and delete unreachable objects",
		Long: `Expire movement-log entries older than gc.reflogexpire, then delete every
object not reachable from a reference, a remaining log entry or the index.
Unreachable objects younger than gc.prunegrace are kept.

Ages accept Go durations ("36h"), days ("30d") or "never".`,
		Example: `  srcc gc
  srcc gc --dry-run
  srcc gc --expire 30d --grace 0
  srcc gc --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("expire") {
				a.settings = append(a.settings, config.KeyReflogExpire+"="+expire)
			}
			if cmd.Flags().Changed("grace") {
				a.settings = append(a.settings, config.KeyPruneGrace+"="+grace)
			}

			var reg *prometheus.Registry
			if metrics {
				reg = prometheus.NewRegistry()
				a.repoOpts = append(a.repoOpts, sourcerepo.WithGCMetrics(gc.NewMetrics(reg)))
			}

			repo, err := a.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			policy, err := repo.GCPolicy()
			if err != nil {
				return err
			}
			policy.DryRun = dryRun

			report, err := repo.GC().Collect(ctxOf(cmd), policy)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			verb := "Removed"
			if report.DryRun {
				verb = "Would remove"
				fmt.Fprintln(out, ui.InfoMessage("Dry run: nothing was deleted"))
			}
			table := ui.NewTable(out, "Run", report.RunID)
			rows := [][2]string{
				{verb, fmt.Sprintf("%d objects", report.Removed)},
				{"Reclaimed", humanize.Bytes(uint64(report.BytesReclaimed))},
				{"Kept", fmt.Sprintf("%d objects", report.Kept)},
				{"Within grace", fmt.Sprintf("%d objects", report.Skipped)},
				{"Expired log entries", fmt.Sprint(report.ExpiredLogEntries)},
				{"Duration", report.Duration.Round(time.Millisecond).String()},
			}
			for _, r := range rows {
				if err := table.Row(r[0], r[1]); err != nil {
					return err
				}
			}
			if err := table.Render(); err != nil {
				return err
			}
			if reg == nil {
				return nil
			}
			return printMetrics(out, reg)
		},
	}

	cmd.Flags().StringVar(&expire, "expire", "", "Drop log entries older than this age")
	cmd.Flags().StringVar(&grace, "grace", "", "Keep unreachable objects younger than this age")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Report what would be removed without deleting")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Print the collector's Prometheus series for this run")
	return cmd
}

// printMetrics writes every gathered series as a "series | value" table.
// Histograms contribute their _count and _sum.
func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}

	var rows [][2]string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			series := mf.GetName()
			if pairs := m.GetLabel(); len(pairs) > 0 {
				labels := make([]string, 0, len(pairs))
				for _, lp := range pairs {
					labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
				}
				series += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case m.GetCounter() != nil:
				rows = append(rows, [2]string{series, formatSample(m.GetCounter().GetValue())})
			case m.GetGauge() != nil:
				rows = append(rows, [2]string{series, formatSample(m.GetGauge().GetValue())})
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				rows = append(rows,
					[2]string{series + "_count", strconv.FormatUint(h.GetSampleCount(), 10)},
					[2]string{series + "_sum", formatSample(h.GetSampleSum())})
			}
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })

	table := ui.NewTable(w, "Series", "Value")
	for _, r := range rows {
		if err := table.Row(r[0], r[1]); err != nil {
			return err
		}
	}
	return table.Render()
}

func formatSample(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
