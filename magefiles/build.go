//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the engine binary.
func (Build) Engine() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/prism", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds the engine binary with the extra runtime validation checks.
func (Build) Debug() error {
	if _, err := executeCmd("go", withArgs("build", "-tags", "debug", "-o", "bin/prism-debug", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Compiles the testbed shaders to SPIR-V.
func (Build) Shaders() error {
	return buildShaders()
}

func buildShaders() error {
	if _, err := executeCmd("glslc", withArgs("shaders/quad.vert", "-o", "shaders/quad.vert.spv"), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("glslc", withArgs("shaders/quad.frag", "-o", "shaders/quad.frag.spv"), withStream()); err != nil {
		return err
	}
	return nil
}
