// Command diamond runs the diamond-shaped example system graph in
// examples/diamond against a real ark world.
package main

import (
	"fmt"
	"os"

	"github.com/oriumgames/ecsched/examples/diamond"
)

func main() {
	if err := diamond.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
