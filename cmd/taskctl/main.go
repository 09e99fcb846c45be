package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/yukikurage/primecode/internal/cli"
	"github.com/yukikurage/primecode/internal/client"
	"github.com/yukikurage/primecode/internal/config"
	"github.com/yukikurage/primecode/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log := logger.New("production", cfg.LogLevel)
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := client.OpenTokenStore(ctx, cfg.StatePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer store.Close()

	api := client.New(cfg.APIURL, cfg.Timeout)
	session := client.NewSession(api, store, log)
	app := cli.NewApp(session, api, os.Stdin, os.Stdout)

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		printError(err)
		return 1
	}
	return 0
}

func printError(err error) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", apiErr.Message)
	for field, msg := range apiErr.Errors {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
	}
}
