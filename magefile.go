//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

// Build compiles both executables into ./bin
func Build() error {
	mg.Deps(BuildFor009)
	mg.Deps(BuildSortFor009)
	fmt.Println("Compilation finished")
	return nil
}

func BuildFor009() error {
	fmt.Println("Building for009 executable...")
	return goCommand("build", "-o", "./bin/for009", "./for009")
}

func BuildSortFor009() error {
	fmt.Println("Building sortfor009 executable...")
	return goCommand("build", "-o", "./bin/sortfor009", "./sortfor009")
}

// Test runs the unit tests. pkg/h5 needs libhdf5 through CGO_CFLAGS / CGO_LDFLAGS.
func Test() error {
	fmt.Println("Running tests...")
	return goCommand("test", "./...")
}

func goCommand(args ...string) error {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
