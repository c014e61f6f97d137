// The main package for the psibatch executable.
package main

import (
	"github.com/psibatch/psibatch/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
