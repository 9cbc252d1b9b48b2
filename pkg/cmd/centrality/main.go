// Command centrality computes closeness and betweenness centrality over
// directed edge lists, either once from the command line or as an HTTP
// job service.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
