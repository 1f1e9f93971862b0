package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	appanalyses "github.com/Zeeeepa/graph-sitter-sub004/internal/application/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/bootstrap"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/vcs"
)

const (
	lastSarif    = "last.sarif"
	lastSnapshot = "snapshot.msgpack"
	topIssues    = 10
)

// ThresholdError is returned by run when --fail-on matches findings.
type ThresholdError struct {
	Severity issues.Severity
	Count    int
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("%d issue(s) at or above %s", e.Count, e.Severity)
}

type runResult struct {
	Analysis *analyses.Analysis `json:"analysis"`
	Issues   []*issues.Issue    `json:"top_issues"`
	Sarif    string             `json:"sarif"`
	Snapshot string             `json:"snapshot"`
}

func (a *app) runCmd() *cobra.Command {
	var failOn, branch string
	cmd := &cobra.Command{
		Use:   "run [path|git-url]",
		Short: "Analyse a local module or a git repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "."
			if len(args) == 1 {
				src = args[0]
			}
			var minSev issues.Severity
			if failOn != "" {
				sev, err := issues.ParseSeverity(failOn)
				if err != nil {
					return err
				}
				minSev = sev
			}
			if !vcs.IsRemote(src) {
				abs, err := filepath.Abs(src)
				if err != nil {
					return err
				}
				src = abs
			}

			cfg, err := a.config()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, err := bootstrap.New(ctx, cfg, a.logger(cfg))
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.Analyses.Trigger(ctx, appanalyses.TriggerCommand{
				TenantID: localTenant,
				Source:   src,
				Branch:   branch,
			})
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}
			out, err := a.saveArtifacts(ctx, svc.Store, res)
			if err != nil {
				return err
			}
			page, err := svc.Analyses.Issues(ctx, localTenant, res.ID, issues.Filter{}, 1, topIssues)
			if err != nil {
				return err
			}
			out.Issues = page.Data

			if a.asJSON {
				if err := writeJSON(a.out, out); err != nil {
					return err
				}
			} else {
				a.printRun(out)
			}
			if minSev != "" {
				if n := res.Counts.AtLeast(minSev); n > 0 {
					return &ThresholdError{Severity: minSev, Count: n}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&failOn, "fail-on", "", "exit 1 when issues of this severity or worse exist")
	cmd.Flags().StringVar(&branch, "branch", "", "branch to clone for git sources")
	return cmd
}

// saveArtifacts copies the SARIF report and the graph snapshot into the state directory.
func (a *app) saveArtifacts(ctx context.Context, store bootstrap.Store, res *analyses.Analysis) (*runResult, error) {
	if err := os.MkdirAll(a.stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	out := &runResult{
		Analysis: res,
		Sarif:    filepath.Join(a.stateDir, lastSarif),
		Snapshot: filepath.Join(a.stateDir, lastSnapshot),
	}
	for key, dst := range map[string]string{res.SarifKey: out.Sarif, res.SnapshotKey: out.Snapshot} {
		if err := copyArtifact(ctx, store, key, dst); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func copyArtifact(ctx context.Context, store bootstrap.Store, key, dst string) error {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("open %s: %w", key, err)
	}
	defer rc.Close()
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return f.Close()
}

func (a *app) printRun(r *runResult) {
	an := r.Analysis
	w := a.out
	fmt.Fprintf(w, "%s %s %s\n", colorTitle.Sprint("Analysis"), an.ID, colorDim.Sprintf("(%dms)", an.DurationMS))
	fmt.Fprintf(w, "  source   %s", an.Source)
	if an.Branch != "" {
		fmt.Fprintf(w, " @ %s", an.Branch)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  health   %s %.1f\n", gradeColor(an.Health.Grade).Sprint(an.Health.Grade), an.Health.Score)
	fmt.Fprintf(w, "  files    %d  loc %d  symbols %d  dead code %d\n", an.Files, an.LOC, an.Symbols, an.DeadCode)
	c := an.Counts
	fmt.Fprintf(w, "  issues   %s %s %s %s %s\n",
		colorCritical.Sprintf("critical %d", c.Critical),
		colorHigh.Sprintf("high %d", c.High),
		colorMedium.Sprintf("medium %d", c.Medium),
		colorLow.Sprintf("low %d", c.Low),
		colorInfo.Sprintf("info %d", c.Info))
	if len(r.Issues) > 0 {
		fmt.Fprintln(w)
		for _, is := range r.Issues {
			fmt.Fprintf(w, "  %-8s %s:%d %s %s\n",
				severityColor(is.Severity).Sprint(is.Severity), is.File, is.Line, is.Message, colorDim.Sprint(is.Rule))
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  sarif    %s\n  snapshot %s\n", r.Sarif, r.Snapshot)
}
