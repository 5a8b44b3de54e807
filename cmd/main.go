package main

import (
	"context"
	"os"
	"os/signal"

	"wingetbridge/internal/cli"
	"wingetbridge/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		ui.ErrorMsg("%v", err)
		os.Exit(cli.ExitCode(err))
	}
}
