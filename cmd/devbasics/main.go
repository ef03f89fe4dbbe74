// Command devbasics runs the assessment and session service and offers a
// few offline helpers around it.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
