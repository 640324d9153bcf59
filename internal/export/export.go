// Package export copies grouped photos into per-person output directories.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/kozaktomas/photo-grouper/internal/cluster"
	"github.com/kozaktomas/photo-grouper/internal/constants"
)

// Layout names the directories created under the input directory.
type Layout struct {
	Dir         string // defaults to Faces_Agrupadas
	FailureDir  string // defaults to Falha_na_Identificacao, created inside Dir
	GroupPrefix string // defaults to Pessoa_
}

func (l Layout) withDefaults() Layout {
	if l.Dir == "" {
		l.Dir = constants.OutputDirName
	}
	if l.FailureDir == "" {
		l.FailureDir = constants.FailureDirName
	}
	if l.GroupPrefix == "" {
		l.GroupPrefix = constants.GroupDirPrefix
	}
	return l
}

// GroupDir returns the directory name of the group at the 0-based index.
func (l Layout) GroupDir(index int) string {
	return l.withDefaults().GroupPrefix + strconv.Itoa(index+1)
}

// CopyError records a single file that could not be copied.
type CopyError struct {
	Source      string
	Destination string
	Err         error
}

// Summary describes a finished export.
type Summary struct {
	OutputDir  string
	FailureDir string
	Groups     int
	Failures   int
	Total      int // photos processed, including decode failures
	Copied     int
	CopyErrors []CopyError
}

// Materializer writes a clustering result to disk.
type Materializer struct {
	layout Layout
	logger *zap.Logger
}

// NewMaterializer creates a Materializer for the given layout.
func NewMaterializer(layout Layout, logger *zap.Logger) *Materializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Materializer{layout: layout.withDefaults(), logger: logger}
}

// Prepare creates the output and failure directories under inputDir.
func (m *Materializer) Prepare(inputDir string) (outputDir, failureDir string, err error) {
	outputDir = filepath.Join(inputDir, m.layout.Dir)
	failureDir = filepath.Join(outputDir, m.layout.FailureDir)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.MkdirAll(failureDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create failure directory: %w", err)
	}
	return outputDir, failureDir, nil
}

// Export copies every group into its own numbered directory and every decode
// failure into the failure directory. Originals are never modified. A file
// that cannot be copied is logged and skipped; only failing to create the
// output or failure directory aborts the export.
func (m *Materializer) Export(ctx context.Context, inputDir string, result *cluster.Result) (*Summary, error) {
	outputDir, failureDir, err := m.Prepare(inputDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		OutputDir:  outputDir,
		FailureDir: failureDir,
		Groups:     len(result.Groups),
		Failures:   len(result.Failures),
		Total:      result.Total(),
	}

	for _, ref := range result.Failures {
		m.copyInto(ctx, summary, ref, failureDir)
	}

	for i, g := range result.Groups {
		groupDir := filepath.Join(outputDir, m.layout.GroupDir(i))
		if err := os.MkdirAll(groupDir, 0o755); err != nil {
			m.logger.Error("failed to create group directory", zap.String("dir", groupDir), zap.Error(err))
			for _, ref := range g.Members() {
				summary.CopyErrors = append(summary.CopyErrors, CopyError{Source: string(ref), Destination: groupDir, Err: err})
			}
			continue
		}
		for _, ref := range g.Members() {
			m.copyInto(ctx, summary, ref, groupDir)
		}
	}

	return summary, nil
}

// Plan returns the summary an export of result would produce without
// touching the filesystem.
func (m *Materializer) Plan(inputDir string, result *cluster.Result) *Summary {
	outputDir := filepath.Join(inputDir, m.layout.Dir)
	return &Summary{
		OutputDir:  outputDir,
		FailureDir: filepath.Join(outputDir, m.layout.FailureDir),
		Groups:     len(result.Groups),
		Failures:   len(result.Failures),
		Total:      result.Total(),
	}
}

func (m *Materializer) copyInto(ctx context.Context, summary *Summary, ref cluster.Ref, dir string) {
	dst := filepath.Join(dir, filepath.Base(string(ref)))
	if err := ctx.Err(); err != nil {
		summary.CopyErrors = append(summary.CopyErrors, CopyError{Source: string(ref), Destination: dst, Err: err})
		return
	}
	if err := CopyFile(string(ref), dst); err != nil {
		m.logger.Error("failed to copy image",
			zap.String("source", string(ref)),
			zap.String("destination", dst),
			zap.Error(err),
		)
		summary.CopyErrors = append(summary.CopyErrors, CopyError{Source: string(ref), Destination: dst, Err: err})
		return
	}
	summary.Copied++
}

// CopyFile copies src to dst, keeping the permission bits and modification
// time of src. An existing dst is overwritten.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("source is not a regular file: %s", src)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy data: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close destination: %w", err)
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time: %w", err)
	}
	return nil
}
