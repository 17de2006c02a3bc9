// relaymesh relays messages between chains: it replicates the origin
// chain's message commitment tree, verifies validator quorum
// checkpoints, and dispatches delivery transactions.
package main

import (
	"fmt"
	"os"

	"github.com/relaymesh/go-relaymesh/cmd"
)

var version string

func main() {
	cmd.Version = version
	if err := cmd.RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
