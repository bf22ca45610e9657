// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manuscript runs the formatting pipeline: load a source document,
// extract its content model and citations, lay it out with figures and
// tables reflowed, and render the result in the source's format.
package manuscript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/manuscript-formatter/internal/extract"
	"github.com/pdiddy/manuscript-formatter/internal/reflow"
	"github.com/pdiddy/manuscript-formatter/internal/render"
	"github.com/pdiddy/manuscript-formatter/internal/source"
	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// Pipeline errors. Each is fatal for the run it occurs in.
var (
	ErrLoad          = errors.New("loading manuscript")
	ErrInputTooLarge = errors.New("input too large")
	ErrRender        = errors.New("rendering manuscript")

	// ErrDuplicateOutput fails a batch input whose output would overwrite
	// the output of an earlier input.
	ErrDuplicateOutput = errors.New("duplicate output path")
)

// DefaultMaxInputBytes is the input size limit when Options leaves it unset.
const DefaultMaxInputBytes = 50 << 20

// LegacyConverter turns a legacy Word document into a DOCX package.
type LegacyConverter interface {
	ConvertLegacy(ctx context.Context, doc []byte) ([]byte, error)
}

// Recorder stores a finished run.
type Recorder interface {
	Record(ctx context.Context, run types.RunRecord) (string, error)
}

// Options configures a pipeline run.
type Options struct {
	Format types.FormatConfig

	// MaxInputBytes rejects larger inputs; zero means DefaultMaxInputBytes.
	MaxInputBytes int64

	// OutputPath overrides the default output location for FormatFile.
	OutputPath string

	// OutputDir places default-named outputs in this directory instead of
	// next to their inputs.
	OutputDir string

	// PDFProof also writes a PDF rendering next to the output.
	PDFProof bool

	// Force overwrites an existing output instead of skipping the input.
	Force bool

	// Legacy converts .doc inputs; nil rejects them with ErrLegacyWord.
	Legacy LegacyConverter

	// History records every run when set.
	History Recorder

	Log *zap.Logger
}

func (o Options) maxInputBytes() int64 {
	if o.MaxInputBytes > 0 {
		return o.MaxInputBytes
	}
	return DefaultMaxInputBytes
}

func (o Options) logger() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

// Loaded is an opened input together with its detected format. Format is
// the format the document was read as, so a converted legacy input reports
// FormatDOCX.
type Loaded struct {
	Doc    source.Document
	Format source.Format
}

// Load reads, size-checks and opens the manuscript at path. Legacy Word
// inputs are converted through opts.Legacy when it is set.
func Load(ctx context.Context, path string, opts Options) (*Loaded, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if info.Size() > opts.maxInputBytes() {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)",
			ErrInputTooLarge, filepath.Base(path), info.Size(), opts.maxInputBytes())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return LoadBytes(ctx, path, data, opts)
}

// LoadBytes opens an in-memory manuscript. name supplies the extension
// hint and the directory for relative Markdown images.
func LoadBytes(ctx context.Context, name string, data []byte, opts Options) (*Loaded, error) {
	if int64(len(data)) > opts.maxInputBytes() {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)",
			ErrInputTooLarge, filepath.Base(name), len(data), opts.maxInputBytes())
	}

	format, err := source.DetectFormat(name, data)
	if errors.Is(err, source.ErrLegacyWord) && opts.Legacy != nil {
		opts.logger().Info("converting legacy word document", zap.String("input", name))
		data, err = opts.Legacy.ConvertLegacy(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoad, filepath.Base(name), err)
		}
		format, err = source.DetectFormat(name, data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	doc, err := source.Load(format, data, filepath.Dir(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, filepath.Base(name), err)
	}
	return &Loaded{Doc: doc, Format: format}, nil
}

// Result is the outcome of Process.
type Result struct {
	Model     *types.ContentModel
	Citations []types.Citation
	Layout    *types.Layout
	Report    *types.RunReport
}

// Process extracts the content model and citations from doc and lays out
// the formatted document. The configuration is validated first.
func Process(doc source.Document, opts Options) (*Result, error) {
	if err := opts.Format.Validate(); err != nil {
		return nil, err
	}
	log := opts.logger()

	model, citations, report, err := extract.Analyze(doc, log)
	if err != nil {
		return nil, err
	}
	layout, stats := reflow.Layout(model, citations, opts.Format, log)
	stats.Apply(report)

	log.Info("manuscript processed",
		zap.String("title", model.Title),
		zap.Int("body_paragraphs", report.BodyParagraphs),
		zap.Int("figures", report.Figures),
		zap.Int("tables", report.Tables),
		zap.Int("citations", report.Citations),
		zap.Int("placeholders", report.Placeholders),
		zap.Int("warnings", len(report.Warnings)))

	return &Result{Model: model, Citations: citations, Layout: layout, Report: report}, nil
}

// Render writes the result's layout with the renderer for ext.
func Render(w io.Writer, result *Result, ext string, cfg types.FormatConfig) error {
	r, err := render.ForExtension(ext)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	if err := r.Render(w, result.Layout, cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

// renderBytes renders the result into memory.
func renderBytes(result *Result, ext string, cfg types.FormatConfig) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, result, ext, cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
