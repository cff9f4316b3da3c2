package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kosmosec/portreport/cmd/cli/cmd"
	"github.com/kosmosec/portreport/internal/api"
)

func main() {
	logFile, err := os.OpenFile("portreport.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[-] open log file:", err)
		os.Exit(1)
	}

	log.Logger = zerolog.New(logFile).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = execute(ctx, cmd.NewRoot())
	stop()
	if err != nil {
		if !api.IsReported(err) {
			fmt.Fprintf(os.Stderr, "[-] %s\n", err)
		}
		logFile.Close()
		os.Exit(1)
	}
	logFile.Close()
}

// execute runs root and turns a panic anywhere below it into an error.
func execute(ctx context.Context, root *cobra.Command) (err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic", p).Msg("command panicked")
			err = api.NewError(api.Unexpected, errors.Errorf("%v", p), "")
		}
	}()
	return root.ExecuteContext(ctx)
}
