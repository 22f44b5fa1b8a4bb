// Command normalize replays a captured webhook response body through the
// same normalization the server applies, for troubleshooting upstream output.
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
