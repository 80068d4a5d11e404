//go:build mage

// Package main contains Mage build targets for harvester developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "harvester"
	cmdPkg  = "./cmd/harvester"
)

// sampleTopics seeds topics.txt for a fresh checkout.
var sampleTopics = []string{
	"distributed consensus algorithms",
	"compiler optimization",
	"graph theory",
	"information retrieval",
	"operating system scheduling",
}

// secretKeys are created empty under .secrets/ so they can be filled in.
var secretKeys = []string{"ingest-token", "semantic-scholar-api-key", "openalex-email"}

// Init creates a sample topics.txt and the .secrets/ directory. Existing
// files are left untouched.
func Init() error {
	if _, err := os.Stat("topics.txt"); os.IsNotExist(err) {
		var data []byte
		for _, t := range sampleTopics {
			data = append(data, t+"\n"...)
		}
		if err := os.WriteFile("topics.txt", data, 0o644); err != nil {
			return fmt.Errorf("writing topics.txt: %w", err)
		}
		fmt.Println("   topics.txt")
	}

	if err := os.MkdirAll(".secrets", 0o700); err != nil {
		return fmt.Errorf("creating .secrets: %w", err)
	}
	for _, k := range secretKeys {
		path := filepath.Join(".secrets", k)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		fmt.Println("  ", path)
	}
	fmt.Println("Workspace initialized.")
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Vet runs go vet over every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test runs the unit tests after vet.
func Test() error {
	mg.Deps(Vet)
	return sh.RunV("go", "test", "./...")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}
