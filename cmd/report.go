package cmd

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/photo-grouper/internal/cluster"
	"github.com/kozaktomas/photo-grouper/internal/export"
)

// runReport is the YAML document written by --report.
type runReport struct {
	RunID       string          `yaml:"run_id"`
	InputDir    string          `yaml:"input_dir"`
	StartedAt   time.Time       `yaml:"started_at"`
	Duration    string          `yaml:"duration"`
	Adjudicator string          `yaml:"adjudicator"`
	DryRun      bool            `yaml:"dry_run"`
	Thresholds  reportThreshold `yaml:"thresholds"`
	Total       int             `yaml:"total"`
	Stats       reportStats     `yaml:"stats"`
	OutputDir   string          `yaml:"output_dir"`
	Groups      []reportGroup   `yaml:"groups"`
	Failures    []string        `yaml:"failures"`
	CopyErrors  []reportCopyErr `yaml:"copy_errors,omitempty"`
}

type reportThreshold struct {
	Accept float64 `yaml:"accept"`
	Reject float64 `yaml:"reject"`
}

type reportStats struct {
	Comparisons   int `yaml:"comparisons"`
	AutoAccepted  int `yaml:"auto_accepted"`
	Adjudications int `yaml:"adjudications"`
	Confirmed     int `yaml:"confirmed"`
	NewGroups     int `yaml:"new_groups"`
}

type reportGroup struct {
	Name           string   `yaml:"name"`
	Representative string   `yaml:"representative"`
	Members        []string `yaml:"members"`
}

type reportCopyErr struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	Error       string `yaml:"error"`
}

func newRunReport(runID string, started time.Time, opts groupOptions, result *cluster.Result, stats cluster.Stats, summary *export.Summary) *runReport {
	r := &runReport{
		RunID:       runID,
		InputDir:    opts.inputDir,
		StartedAt:   started.UTC(),
		Duration:    time.Since(started).Round(time.Millisecond).String(),
		Adjudicator: opts.adjudicator,
		DryRun:      opts.dryRun,
		Thresholds:  reportThreshold{Accept: opts.thresholds.Accept, Reject: opts.thresholds.Reject},
		Total:       summary.Total,
		Stats: reportStats{
			Comparisons:   stats.Comparisons,
			AutoAccepted:  stats.AutoAccepted,
			Adjudications: stats.Adjudications,
			Confirmed:     stats.Confirmed,
			NewGroups:     stats.NewGroups,
		},
		OutputDir: summary.OutputDir,
		Failures:  []string{},
	}

	for i, g := range result.Groups {
		members := make([]string, 0, g.Len())
		for _, ref := range g.Members() {
			members = append(members, string(ref))
		}
		r.Groups = append(r.Groups, reportGroup{
			Name:           opts.layout.GroupDir(i),
			Representative: string(g.Representative()),
			Members:        members,
		})
	}
	for _, ref := range result.Failures {
		r.Failures = append(r.Failures, string(ref))
	}
	for _, ce := range summary.CopyErrors {
		r.CopyErrors = append(r.CopyErrors, reportCopyErr{
			Source:      ce.Source,
			Destination: ce.Destination,
			Error:       ce.Err.Error(),
		})
	}
	return r
}

func writeReport(path string, report *runReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
