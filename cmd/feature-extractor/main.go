// Command feature-extractor is the worker stage: it consumes upstream
// envelopes, invokes the feature extractor, and republishes downstream
// envelopes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/e7canasta/distimaging/internal/config"
	"github.com/e7canasta/distimaging/internal/envlog"
	"github.com/e7canasta/distimaging/internal/extractorstage"
	"github.com/e7canasta/distimaging/internal/feature"
	"github.com/e7canasta/distimaging/internal/shutdown"
	"github.com/e7canasta/distimaging/internal/version"
)

func main() {
	var envPath string
	var logLevel string
	var annotated bool

	root := &cobra.Command{
		Use:           "feature-extractor",
		Short:         "Extracts features from upstream frames and republishes them downstream",
		Version:       version.String,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(envPath, logLevel, annotated)
		},
	}
	root.Flags().StringVar(&envPath, "env", "", "path to the dotenv configuration file")
	root.Flags().StringVar(&logLevel, "log-level", "", "override the configured log level (trace|debug|info|warn|error|critical)")
	root.Flags().BoolVar(&annotated, "annotated", false, "render and send a keypoint overlay alongside each frame")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(envFlag, levelFlag string, annotated bool) error {
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
	log := envlog.NewLogger("feature-extractor", level)
	log.Info("starting", "version", version.String, "annotated", annotated)

	handle, stop := shutdown.Install()
	defer stop()

	extractor := feature.NewReference(feature.Tuning{
		NFeatures:         app.Extractor.SIFTNFeatures,
		ContrastThreshold: app.Extractor.SIFTContrastThreshold,
		EdgeThreshold:     app.Extractor.SIFTEdgeThreshold,
	})

	if err := extractorstage.Run(handle, app.Extractor, extractor, annotated, log); err != nil {
		log.Error("worker exited with error", "error", err)
		return err
	}
	log.Info("shutdown complete")
	return nil
}
