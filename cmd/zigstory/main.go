// Command zigstory is the CLI front end over the history store: browsing,
// importing, and the analytics report (SPEC_FULL.md "Supplemented
// features").
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
