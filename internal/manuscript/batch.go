// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manuscript

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/manuscript-formatter/pkg/types"
)

// BatchResult holds the outcome of a batch formatting run.
type BatchResult struct {
	Formatted int
	Skipped   int
	Failed    int

	// Files holds one result per input, in input order.
	Files []*FileResult
}

// Total returns the number of manuscripts processed.
func (r BatchResult) Total() int {
	return r.Formatted + r.Skipped + r.Failed
}

// HasFailures reports whether any manuscript failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// FormatBatch formats the inputs with up to jobs documents in flight,
// printing one status line per input to w and a summary at the end. A
// failing document does not stop the others; a cancelled context fails the
// documents not yet started. An input whose output or proof path is already
// claimed by an earlier input fails with ErrDuplicateOutput and is not
// formatted. opts.OutputPath is ignored.
func FormatBatch(ctx context.Context, inputs []string, jobs int, opts Options, w io.Writer) BatchResult {
	if jobs < 1 {
		jobs = 1
	}
	opts.OutputPath = ""

	files := make([]*FileResult, len(inputs))
	claimed := make(map[string]string)
	for i, input := range inputs {
		if err := claimOutputs(claimed, input, opts); err != nil {
			files[i] = &FileResult{Input: input, Output: plannedOutput(input, opts), Status: types.RunFailed, Err: err}
			printStatus(w, files[i])
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, input := range inputs {
		if files[i] != nil {
			continue
		}
		g.Go(func() error {
			var res *FileResult
			if err := gctx.Err(); err != nil {
				res = &FileResult{Input: input, Status: types.RunFailed, Err: err}
			} else {
				res, _ = FormatFile(gctx, input, opts)
			}
			files[i] = res

			mu.Lock()
			printStatus(w, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	result := BatchResult{Files: files}
	for _, f := range files {
		switch f.Status {
		case types.RunFormatted:
			result.Formatted++
		case types.RunSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d formatted, %d skipped, %d failed (total: %d)\n",
		result.Formatted, result.Skipped, result.Failed, result.Total())
	return result
}

// claimOutputs records the paths input will write in claimed, keyed to the
// input. It fails when one of them already belongs to another input.
func claimOutputs(claimed map[string]string, input string, opts Options) error {
	out := filepath.Clean(plannedOutput(input, opts))
	paths := []string{out}
	if opts.PDFProof {
		paths = append(paths, proofPath(out))
	}
	for _, p := range paths {
		if first, ok := claimed[p]; ok {
			return fmt.Errorf("%w: %s is also written for %s", ErrDuplicateOutput, p, first)
		}
	}
	for _, p := range paths {
		claimed[p] = input
	}
	return nil
}

func printStatus(w io.Writer, res *FileResult) {
	switch res.Status {
	case types.RunFormatted:
		fmt.Fprintf(w, "formatted: %s -> %s\n", res.Input, res.Output)
	case types.RunSkipped:
		fmt.Fprintf(w, "skipped: %s (%s already exists)\n", res.Input, res.Output)
	default:
		fmt.Fprintf(w, "failed:  %s (%v)\n", res.Input, res.Err)
	}
}
