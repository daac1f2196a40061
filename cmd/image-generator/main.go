// Command image-generator is the producer stage: it discovers local
// images and publishes them onto the upstream bus.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/e7canasta/distimaging/internal/config"
	"github.com/e7canasta/distimaging/internal/envlog"
	"github.com/e7canasta/distimaging/internal/generator"
	"github.com/e7canasta/distimaging/internal/shutdown"
	"github.com/e7canasta/distimaging/internal/version"
)

func main() {
	var envPath string
	var logLevel string
	var once bool

	root := &cobra.Command{
		Use:           "image-generator",
		Short:         "Discovers local images and publishes them onto the upstream bus",
		Version:       version.String,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(envPath, logLevel, once)
		},
	}
	root.Flags().StringVar(&envPath, "env", "", "path to the dotenv configuration file")
	root.Flags().StringVar(&logLevel, "log-level", "", "override the configured log level (trace|debug|info|warn|error|critical)")
	root.Flags().BoolVar(&once, "once", false, "sweep the input directory exactly once and exit")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(envFlag, levelFlag string, once bool) error {
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
	log := envlog.NewLogger("image-generator", level)
	log.Info("starting", "version", version.String, "once", once)

	handle, stop := shutdown.Install()
	defer stop()

	if err := generator.Run(handle, app.Generator, log, once); err != nil {
		log.Error("producer exited with error", "error", err)
		return err
	}
	log.Info("shutdown complete")
	return nil
}
