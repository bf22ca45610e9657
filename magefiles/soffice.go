//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/magefile/mage/sh"
)

const (
	sofficeImage   = "manuscript-formatter/soffice:latest"
	sofficeContext = "build/soffice"
)

// SofficeImage builds the LibreOffice image used to convert legacy .doc
// manuscripts. Set legacy.enabled in the config to use it.
func SofficeImage() error {
	runtime, err := containerRuntime()
	if err != nil {
		return err
	}
	if err := sh.RunV(runtime, "build", "-t", sofficeImage, sofficeContext); err != nil {
		return fmt.Errorf("%s build: %w", runtime, err)
	}
	fmt.Printf("Built %s with %s\n", sofficeImage, runtime)
	return nil
}

// containerRuntime prefers docker, then podman.
func containerRuntime() (string, error) {
	for _, bin := range []string{"docker", "podman"} {
		if err := sh.Run(bin, "version"); err == nil {
			return bin, nil
		}
	}
	return "", fmt.Errorf("no container runtime found (install docker or podman)")
}
