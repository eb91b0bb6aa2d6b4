package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"github.com/physics-archive/formulaudit/internal/cli"
)

func init() {
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelWarn,
			TimeFormat: "15:04:05",
		}),
	))
}

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands surface their own errors before returning an
		// ExitError; anything untagged (flag parsing, usage) has not
		// been shown yet.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			slog.Error(err.Error())
		}
		os.Exit(cli.GetExitCode(err))
	}
}
