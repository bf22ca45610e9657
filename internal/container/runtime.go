// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container pipes documents through conversion images run by a
// local docker or podman. The formatter uses it to turn legacy Word files
// into DOCX packages with LibreOffice.
package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runtime is a local container engine able to run a conversion image.
type Runtime interface {
	// Name is the engine binary, "docker" or "podman".
	Name() string

	// Available reports whether the engine is installed and its daemon or
	// service answers.
	Available(ctx context.Context) bool

	// ImageExists returns nil when the conversion image is present locally.
	// Images are never pulled.
	ImageExists(ctx context.Context, image string) error

	// Run feeds stdin to a throwaway container of image and copies its
	// stdout to stdout. The container has no network and a read-only root
	// filesystem with a scratch /tmp.
	Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error
}

// engine describes how one container binary is driven.
type engine struct {
	bin        string
	imageCheck []string
}

// engines in preference order.
var engines = []engine{
	{bin: "docker", imageCheck: []string{"image", "inspect"}},
	{bin: "podman", imageCheck: []string{"image", "exists"}},
}

// executor runs engine commands; tests replace it.
type executor interface {
	LookPath(file string) (string, error)
	Check(ctx context.Context, name string, args ...string) error
	Pipe(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Check(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (osExecutor) Pipe(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

type engineRuntime struct {
	engine
	exec executor
}

func (r *engineRuntime) Name() string { return r.bin }

func (r *engineRuntime) Available(ctx context.Context) bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.Check(ctx, r.bin, "info") == nil
}

func (r *engineRuntime) ImageExists(ctx context.Context, image string) error {
	args := append(append([]string(nil), r.imageCheck...), image)
	if err := r.exec.Check(ctx, r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s (build it with `mage sofficeImage`): %w", image, r.bin, err)
	}
	return nil
}

// runArgs are the isolation flags shared by docker and podman.
func runArgs(image string) []string {
	return []string{
		"run", "--rm", "-i",
		"--network", "none",
		"--read-only", "--tmpfs", "/tmp",
		image,
	}
}

func (r *engineRuntime) Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error {
	var stderr bytes.Buffer
	if err := r.exec.Pipe(ctx, r.bin, runArgs(image), stdin, stdout, &stderr); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return fmt.Errorf("%s run %s: %w: %s", r.bin, image, err, msg)
		}
		return fmt.Errorf("%s run %s: %w", r.bin, image, err)
	}
	return nil
}

// lastLine returns the final non-blank line of a command's stderr, which
// is where soffice and the engines put the reason for a failure.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// DetectRuntime returns docker when it answers, otherwise podman.
func DetectRuntime(ctx context.Context) (Runtime, error) {
	return detectRuntime(ctx, osExecutor{})
}

func detectRuntime(ctx context.Context, ex executor) (Runtime, error) {
	names := make([]string, 0, len(engines))
	for _, e := range engines {
		rt := &engineRuntime{engine: e, exec: ex}
		if rt.Available(ctx) {
			return rt, nil
		}
		names = append(names, e.bin)
	}
	return nil, fmt.Errorf("no container runtime available: tried %s", strings.Join(names, ", "))
}
