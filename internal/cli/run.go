package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/vcq/internal/harness"
	"github.com/roach88/vcq/internal/profile"
	"github.com/roach88/vcq/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Plans    bool // print each query's plan
	Profiles bool // print each query's profile tree
	Metrics  bool // print Prometheus metrics after the run
}

// QueryRun is the output of one query plus its profile.
type QueryRun struct {
	*harness.QueryOutput
	Profile string `json:"profile,omitempty"`
}

// ScenarioRun is the output of one scenario.
type ScenarioRun struct {
	Name    string     `json:"name"`
	Pass    bool       `json:"pass"`
	Queries []QueryRun `json:"queries"`
	Errors  []string   `json:"errors,omitempty"`
}

// RunResult is the run command's payload.
type RunResult struct {
	Backend   string        `json:"backend"`
	Scenarios []ScenarioRun `json:"scenarios"`
	Metrics   string        `json:"metrics,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml|dir>...",
		Short: "Run scenario queries and print their results",
		Long: `Write each scenario's graph into the configured store, run its queries
and print the results.

All scenarios share one store and one graph id space, so a SQLite file or
badger directory accumulates every scenario that was run against it.
Assertions are evaluated but do not change the exit code; use "vcq test"
for that.

Examples:
  vcq run ./scenarios
  vcq run social.yaml --plans --profiles
  vcq run ./scenarios --backend sqlite --db /tmp/graph.db --metrics`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Plans, "plans", false, "print query plans")
	cmd.Flags().BoolVar(&opts.Profiles, "profiles", false, "print query profiles")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics after the run")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	files, err := findScenarioFiles(paths, "")
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	kv, err := openStore(opts.Config.Storage)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer closeStore(kv)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	metrics := profile.NewMetrics(reg)

	result := RunResult{Backend: opts.Config.Storage.Backend}
	for _, file := range files {
		run, err := runScenarioFile(ctx, opts, file, kv, metrics)
		if err != nil {
			_ = formatter.Error(ErrCodeFailed, err.Error(), map[string]string{"file": file})
			return WrapExitError(ExitCommandError, "scenario execution failed", err)
		}
		result.Scenarios = append(result.Scenarios, run)
	}

	if opts.Metrics {
		var b strings.Builder
		if err := writeMetrics(&b, reg); err != nil {
			return WrapExitError(ExitCommandError, "failed to gather metrics", err)
		}
		result.Metrics = b.String()
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	printRunText(cmd.OutOrStdout(), opts, result)
	return nil
}

func runScenarioFile(ctx context.Context, opts *RunOptions, file string, kv store.KeyColumnValueStore, metrics *profile.Metrics) (ScenarioRun, error) {
	s, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioRun{}, err
	}

	recorders := make(map[string]*profile.Recorder)
	hopts := harness.Options{
		Graph: opts.Config.GraphOptions(),
		Profiler: func(name string) profile.Profiler {
			r := profile.NewRecorder(name)
			recorders[name] = r
			return profile.Tee(r, metrics.Profiler("query"))
		},
	}
	result, err := harness.RunWith(ctx, s, kv, hopts)
	if err != nil {
		return ScenarioRun{}, fmt.Errorf("%s: %w", s.Name, err)
	}
	slog.Info("scenario run", "scenario", s.Name, "queries", len(result.Outputs), "pass", result.Pass)

	run := ScenarioRun{Name: s.Name, Pass: result.Pass, Errors: result.Errors}
	for _, out := range result.Outputs {
		qr := QueryRun{QueryOutput: out}
		if r, ok := recorders[out.Name]; ok && opts.Profiles {
			qr.Profile = r.String()
		}
		if !opts.Plans {
			qr.QueryOutput = withoutPlan(out)
		}
		run.Queries = append(run.Queries, qr)
	}
	return run, nil
}

func withoutPlan(out *harness.QueryOutput) *harness.QueryOutput {
	c := *out
	c.Plan = ""
	return &c
}

// writeMetrics renders every gathered family in the text exposition format.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func printRunText(w io.Writer, opts *RunOptions, result RunResult) {
	for _, s := range result.Scenarios {
		mark := "✓"
		if !s.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, s.Name)
		for _, q := range s.Queries {
			if q.ErrorCode != "" {
				fmt.Fprintf(w, "  %s: error %s\n", q.Name, q.ErrorCode)
			} else {
				fmt.Fprintf(w, "  %s (%d)\n", q.Name, q.Count)
			}
			for _, row := range q.Rows {
				fmt.Fprintf(w, "    %s\n", row)
			}
			if opts.Plans && q.Plan != "" {
				for _, line := range strings.Split(strings.TrimSuffix(q.Plan, "\n"), "\n") {
					fmt.Fprintf(w, "    | %s\n", line)
				}
			}
			if q.Profile != "" {
				for _, line := range strings.Split(strings.TrimSuffix(q.Profile, "\n"), "\n") {
					fmt.Fprintf(w, "    ~ %s\n", line)
				}
			}
		}
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	if result.Metrics != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, result.Metrics)
	}
}
