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

// Build compiles the pure Go executables. ROOT is the only output format.
func Build() error {
	mg.Deps(BuildIdivc, BuildConddb)
	fmt.Println("Compilation finished")
	return nil
}

func BuildIdivc() error {
	fmt.Println("Building idivc executable...")
	return goCmd(nil, "build", "-o", "./bin/idivc", "./idivc")
}

func BuildConddb() error {
	fmt.Println("Building conddb executable...")
	return goCmd(nil, "build", "-o", "./bin/conddb", "./conddb")
}

// BuildHDF5 compiles idivc with HDF5 output. Needs the HDF5 C library;
// CGO_LDFLAGS and CGO_CFLAGS are passed through.
func BuildHDF5() error {
	fmt.Println("Building idivc executable with HDF5 support...")
	return goCmd(cgoEnv(), "build", "-tags", "hdf5", "-o", "./bin/idivc", "./idivc")
}

func Test() error {
	mg.Deps(Build)
	fmt.Println("Running tests...")
	return goCmd(nil, "test", "./...")
}

func TestHDF5() error {
	fmt.Println("Running tests with HDF5 support...")
	return goCmd(cgoEnv(), "test", "-tags", "hdf5", "./...")
}

func cgoEnv() []string {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	return []string{
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags),
	}
}

func goCmd(env []string, args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
