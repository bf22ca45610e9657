// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manuscript

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// outputPrefix is prepended to the input name for the default output.
const outputPrefix = "formatted_"

// FileResult is the outcome of formatting one file.
type FileResult struct {
	Input     string
	Output    string
	ProofPath string
	Status    types.RunStatus
	Report    *types.RunReport
	Citations []types.Citation
	RunID     string
	Err       error
}

// DefaultOutputPath returns formatted_<base><ext> next to the input. Legacy
// inputs produce a .docx output.
func DefaultOutputPath(input string) string {
	dir := filepath.Dir(input)
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(filepath.Base(input), ext)
	if strings.EqualFold(ext, ".doc") {
		ext = ".docx"
	}
	return filepath.Join(dir, outputPrefix+base+ext)
}

// plannedOutput is where input is written when no explicit output path is
// given. An input without an extension later gets its format's extension.
func plannedOutput(input string, opts Options) string {
	out := DefaultOutputPath(input)
	if opts.OutputDir != "" {
		out = filepath.Join(opts.OutputDir, filepath.Base(out))
	}
	return out
}

// proofPath swaps the output's extension for .pdf.
func proofPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".pdf"
}

// FormatFile formats the manuscript at input and writes the output in the
// format the input was read as, or in the format named by the extension of
// an explicit opts.OutputPath. An existing output is left alone and the
// input reported as skipped unless opts.Force is set. Every run, including
// failed ones, is recorded when opts.History is set.
func FormatFile(ctx context.Context, input string, opts Options) (*FileResult, error) {
	res := &FileResult{Input: input, Output: opts.OutputPath}
	started := time.Now()

	err := formatFile(ctx, res, opts)
	switch {
	case err != nil:
		res.Status = types.RunFailed
		res.Err = err
	case res.Status == "":
		res.Status = types.RunFormatted
	}

	if opts.History != nil && res.Status != types.RunSkipped {
		res.RunID = recordRun(ctx, res, started, opts)
	}
	return res, err
}

func formatFile(ctx context.Context, res *FileResult, opts Options) error {
	log := opts.logger().With(zap.String("input", res.Input))

	loaded, err := Load(ctx, res.Input, opts)
	if err != nil {
		return err
	}
	defer loaded.Doc.Close()

	if res.Output == "" {
		res.Output = plannedOutput(res.Input, opts)
	}
	ext := loaded.Format.Extension()
	switch outExt := filepath.Ext(res.Output); {
	case outExt == "":
		res.Output += ext
	case opts.OutputPath != "":
		ext = outExt
	}
	if !opts.Force {
		if _, err := os.Stat(res.Output); err == nil {
			log.Debug("output exists, skipping", zap.String("output", res.Output))
			res.Status = types.RunSkipped
			return nil
		}
	}

	result, err := Process(loaded.Doc, opts)
	if err != nil {
		return err
	}
	res.Report = result.Report
	res.Citations = result.Citations

	data, err := renderBytes(result, ext, opts.Format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(res.Output), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(res.Output, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", res.Output, err)
	}

	if opts.PDFProof {
		proof, err := renderBytes(result, ".pdf", opts.Format)
		if err != nil {
			return err
		}
		res.ProofPath = proofPath(res.Output)
		if err := os.WriteFile(res.ProofPath, proof, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", res.ProofPath, err)
		}
	}

	log.Info("manuscript formatted", zap.String("output", res.Output))
	return nil
}

func recordRun(ctx context.Context, res *FileResult, started time.Time, opts Options) string {
	run := types.RunRecord{
		StartedAt:  started,
		InputPath:  res.Input,
		OutputPath: res.Output,
		Status:     res.Status,
		Config:     opts.Format,
		Citations:  res.Citations,
	}
	if res.Report != nil {
		run.Report = *res.Report
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
		run.OutputPath = ""
	}

	id, err := opts.History.Record(ctx, run)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			opts.logger().Warn("recording run history failed",
				zap.String("input", res.Input), zap.Error(err))
		}
		return ""
	}
	return id
}
