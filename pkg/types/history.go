// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// RunStatus is the outcome of one formatting run.
type RunStatus string

const (
	RunFormatted RunStatus = "formatted"
	RunSkipped   RunStatus = "skipped"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one formatting run as kept in the history store.
type RunRecord struct {
	ID         string       `json:"id" yaml:"id"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	InputPath  string       `json:"input_path" yaml:"input_path"`
	OutputPath string       `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Status     RunStatus    `json:"status" yaml:"status"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
	Config     FormatConfig `json:"config" yaml:"config"`
	Report     RunReport    `json:"report" yaml:"report"`
	Citations  []Citation   `json:"citations,omitempty" yaml:"citations,omitempty"`
}
