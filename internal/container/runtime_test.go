// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExec answers LookPath and Check from sets and delegates Pipe.
type fakeExec struct {
	onPath map[string]bool
	checks map[string]bool // "bin arg1 arg2"
	pipe   func(name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

func (f *fakeExec) LookPath(file string) (string, error) {
	if f.onPath[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (f *fakeExec) Check(_ context.Context, name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if f.checks[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (f *fakeExec) Pipe(_ context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if f.pipe != nil {
		return f.pipe(name, args, stdin, stdout, stderr)
	}
	return nil
}

func dockerWith(f *fakeExec) Runtime { return &engineRuntime{engine: engines[0], exec: f} }
func podmanWith(f *fakeExec) Runtime { return &engineRuntime{engine: engines[1], exec: f} }

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *fakeExec
		wantName string
	}{
		{
			name:     "docker answers",
			exec:     &fakeExec{onPath: map[string]bool{"docker": true}, checks: map[string]bool{"docker info": true}},
			wantName: "docker",
		},
		{
			name:     "only podman installed",
			exec:     &fakeExec{onPath: map[string]bool{"podman": true}, checks: map[string]bool{"podman info": true}},
			wantName: "podman",
		},
		{
			name: "docker daemon down",
			exec: &fakeExec{
				onPath: map[string]bool{"docker": true, "podman": true},
				checks: map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "docker preferred",
			exec: &fakeExec{
				onPath: map[string]bool{"docker": true, "podman": true},
				checks: map[string]bool{"docker info": true, "podman info": true},
			},
			wantName: "docker",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(context.Background(), tt.exec)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, rt.Name())
		})
	}
}

func TestDetectRuntimeNone(t *testing.T) {
	_, err := detectRuntime(context.Background(), &fakeExec{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tried docker, podman")
}

func TestImageExists(t *testing.T) {
	tests := []struct {
		name    string
		rt      func(*fakeExec) Runtime
		checks  map[string]bool
		wantErr bool
	}{
		{name: "docker present", rt: dockerWith, checks: map[string]bool{"docker image inspect " + DefaultSofficeImage: true}},
		{name: "docker missing", rt: dockerWith, wantErr: true},
		{name: "podman present", rt: podmanWith, checks: map[string]bool{"podman image exists " + DefaultSofficeImage: true}},
		{name: "podman missing", rt: podmanWith, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rt(&fakeExec{checks: tt.checks}).ImageExists(context.Background(), DefaultSofficeImage)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), DefaultSofficeImage)
				assert.Contains(t, err.Error(), "mage sofficeImage")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRunIsolatesContainer(t *testing.T) {
	var gotArgs []string
	f := &fakeExec{pipe: func(_ string, args []string, stdin io.Reader, stdout, _ io.Writer) error {
		gotArgs = args
		data, _ := io.ReadAll(stdin)
		_, _ = stdout.Write(append([]byte("converted: "), data...))
		return nil
	}}

	var out bytes.Buffer
	require.NoError(t, podmanWith(f).Run(context.Background(), "img:1", strings.NewReader("doc"), &out))
	assert.Equal(t, []string{"run", "--rm", "-i", "--network", "none", "--read-only", "--tmpfs", "/tmp", "img:1"}, gotArgs)
	assert.Equal(t, "converted: doc", out.String())
}

func TestRunFailureCarriesStderr(t *testing.T) {
	cause := errors.New("exit status 1")
	f := &fakeExec{pipe: func(_ string, _ []string, _ io.Reader, _, stderr io.Writer) error {
		_, _ = io.WriteString(stderr, "starting soffice\nError: source file could not be loaded\n")
		return cause
	}}

	err := dockerWith(f).Run(context.Background(), "img:1", strings.NewReader(""), io.Discard)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "docker run img:1")
	assert.True(t, strings.HasSuffix(err.Error(), "Error: source file could not be loaded"), err.Error())
}

func TestRunFailureWithoutStderr(t *testing.T) {
	cause := errors.New("exit status 125")
	f := &fakeExec{pipe: func(string, []string, io.Reader, io.Writer, io.Writer) error { return cause }}

	err := dockerWith(f).Run(context.Background(), "img:1", strings.NewReader(""), io.Discard)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "docker run img:1: exit status 125", err.Error())
}
