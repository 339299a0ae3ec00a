// Package main provides build targets for tripdeck using Mage.
//
// Usage:
//
//	mage build              Compile the tripdeck binary to bin/
//	mage test:all           Run every test
//	mage test:unit          Run tests that need no external services
//	mage test:integration   Start Mongo and Redis containers, then run all tests against them
//	mage services:up        Start the Mongo and Redis containers
//	mage services:down      Stop them
//	mage lint               Run golangci-lint
//	mage clean              Remove build artifacts
//	mage install            Install tripdeck to GOPATH/bin
//	mage stats              Print Go line counts per package and a dataset summary
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "tripdeck"
	binaryDir  = "bin"
	cmdDir     = "./cmd/tripdeck"
)

// Build compiles the tripdeck binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
