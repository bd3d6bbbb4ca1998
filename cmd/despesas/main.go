package main

import (
	"context"
	"os"

	"despesas/internal/cli"
)

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
