package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meetup-planner/app/pkg/config"
	"github.com/meetup-planner/app/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	if _, err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		panic(err)
	}
	defer logger.Sync()

	rootCmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Meetup Planner schema migrations",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(upCmd(cfg), statusCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Sync()
		os.Exit(1)
	}
}
