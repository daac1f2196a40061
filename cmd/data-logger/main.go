// Command data-logger is the sink stage: it consumes downstream
// envelopes and durably records each frame.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/e7canasta/distimaging/internal/config"
	"github.com/e7canasta/distimaging/internal/envlog"
	"github.com/e7canasta/distimaging/internal/logger"
	"github.com/e7canasta/distimaging/internal/shutdown"
	"github.com/e7canasta/distimaging/internal/version"
)

func main() {
	var envPath string
	var logLevel string

	root := &cobra.Command{
		Use:           "data-logger",
		Short:         "Consumes downstream frames and durably records them",
		Version:       version.String,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(envPath, logLevel)
		},
	}
	root.Flags().StringVar(&envPath, "env", "", "path to the dotenv configuration file")
	root.Flags().StringVar(&logLevel, "log-level", "", "override the configured log level (trace|debug|info|warn|error|critical)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(envFlag, levelFlag string) error {
	envPath, err := config.ResolveEnvPath(envFlag)
	if err != nil {
		return err
	}
	env, err := config.LoadEnvFile(envPath)
	if err != nil {
		return fmt.Errorf("load environment file %s: %w", envPath, err)
	}

	root, err := os.Getwd()
	if err != nil {
		return err
	}
	app := config.Load(env, root)

	level := app.Global.LogLevel
	if levelFlag != "" {
		level = levelFlag
	}
	log := envlog.NewLogger("data-logger", level)
	log.Info("starting", "version", version.String)

	handle, stop := shutdown.Install()
	defer stop()

	if err := logger.Run(handle, app.Logger, log); err != nil {
		log.Error("sink exited with error", "error", err)
		return err
	}
	log.Info("shutdown complete")
	return nil
}
