//go:build mage

// Build tasks for fur. Run `mage -l` for the list.
package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/gogpu/fur/internal/shader"
)

// Default target when mage runs without arguments.
var Default = Build

// Build compiles the demo binary into bin/.
func Build() error {
	mg.Deps(Shaders)
	return sh.RunV("go", "build", "-o", "bin/furdemo", "./cmd/furdemo")
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs Vet and Test.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Shaders validates every stage program. Set FUR_SHADERS to validate a
// directory of overrides instead of the embedded sources.
func Shaders() error {
	lib, err := shader.NewLibrary(os.Getenv("FUR_SHADERS"))
	if err != nil {
		return err
	}
	for _, name := range shader.Stages() {
		src, err := lib.Program(name,
			shader.Const{Name: "SHELL_COUNT", Value: uint32(64)},
			shader.Const{Name: "FXAA_ENABLED", Value: true},
		)
		if err != nil {
			return err
		}
		if err := shader.Validate(src); err != nil {
			return fmt.Errorf("%s.wgsl: %w", name, err)
		}
		if mg.Verbose() {
			fmt.Printf("%s.wgsl ok\n", name)
		}
	}
	return nil
}

// Run builds and starts the demo.
func Run() error {
	mg.Deps(Build)
	return sh.RunV("bin/furdemo")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm("bin")
}
