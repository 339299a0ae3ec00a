// Package main provides the tripdeck CLI.
package main

import "github.com/mesh-intelligence/tripdeck/internal/cli"

func main() {
	cli.Execute()
}
