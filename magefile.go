//go:build mage
// +build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target when running mage without arguments.
var Default = Build

// Build builds the server binary.
func Build() error {
	fmt.Println("Building server...")
	return sh.Run("go", "build", "-o", "bin/server", "./cmd/server")
}

// Test runs all tests with race detection.
func Test() error {
	fmt.Println("Running tests...")
	return sh.Run("go", "test", "-race", "./...")
}

// Cover runs tests with coverage output.
func Cover() error {
	fmt.Println("Running tests with coverage...")
	if err := sh.Run("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.Run("go", "tool", "cover", "-func=coverage.out")
}

// Lint runs go vet.
func Lint() error {
	fmt.Println("Running go vet...")
	return sh.Run("go", "vet", "./...")
}

// Run builds and starts the server.
func Run() error {
	mg.Deps(Build)
	fmt.Println("Starting server...")
	return sh.Run("./bin/server")
}

// Clean removes build artifacts.
func Clean() error {
	fmt.Println("Cleaning...")
	return sh.Rm("bin")
}

// CI runs the full verification pipeline.
func CI() {
	mg.SerialDeps(Lint, Test, Build)
}
