// zigstory-suggest is the ghost-text host stub: it takes the text typed so
// far as its one argument and prints the single best completion to stdout,
// or nothing. The predictor is pure and never throws from the host's
// perspective, so this binary never exits non-zero for a prediction
// failure — only for a bad invocation.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/zigstory/zigstory/internal/config"
	"github.com/zigstory/zigstory/internal/predictor"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: zigstory-suggest <prefix>")
		return 1
	}
	prefix := args[0]

	pool, err := predictor.NewPool(config.DefaultPaths().DatabaseFile(), predictor.DefaultPoolSize)
	if err != nil {
		// Store unavailable: suppressed, never surfaced to the host.
		return 0
	}
	defer pool.Close()

	p := predictor.New(pool, predictor.DefaultCacheCapacity, predictor.DefaultSuggestionCount)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	suggestions := p.Suggest(ctx, prefix)
	if len(suggestions) == 0 {
		return 0
	}
	fmt.Fprintln(stdout, suggestions[0])
	return 0
}
