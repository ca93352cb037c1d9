// The main package for the coursesampler executable.
package main

import (
	"github.com/JakeFAU/course-sampler/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
