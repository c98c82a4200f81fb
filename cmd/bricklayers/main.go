// bricklayers is the standalone CLI for the BrickLayers toolpath
// transform engine. It preprocesses sliced G-code files, applying the
// same move rewrites the printer-host module performs live.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bricklayers-go/pkg/brick"
	"bricklayers-go/pkg/config"
	"bricklayers-go/pkg/log"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "bricklayers",
		Short:        "Transform sliced G-code into interlocking brick layers",
		Long:         "bricklayers rewrites inner-wall perimeter moves to alternating Z heights, producing an interlocking brick pattern that improves part strength.",
		Version:      fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.GetLogger("bricklayers").SetLevel(log.DEBUG)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newTransformCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newStatusCmd())

	return root.ExecuteContext(ctx)
}

// engineFlags are the CLI overrides for the [brick_layers] options.
type engineFlags struct {
	configPath          string
	startLayer          int
	extrusionMultiplier float64
	verboseTransforms   bool
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "printer.cfg with a [brick_layers] section")
	cmd.Flags().IntVar(&f.startLayer, "start-layer", brick.DefaultConfig().StartLayer, "first layer transforms apply to")
	cmd.Flags().Float64Var(&f.extrusionMultiplier, "extrusion-multiplier", brick.DefaultConfig().ExtrusionMultiplier, "E field scale factor for rewritten moves")
	cmd.Flags().BoolVar(&f.verboseTransforms, "log-transforms", false, "log every transform decision")
}

// load resolves the engine configuration: config file first, then any
// explicitly set flags on top.
func (f *engineFlags) load(cmd *cobra.Command) (brick.Config, error) {
	cfg := brick.DefaultConfig()

	if f.configPath != "" {
		fileCfg, err := config.Load(f.configPath)
		if err != nil {
			return brick.Config{}, err
		}
		if fileCfg.HasSection(brick.SectionName) {
			sec, err := fileCfg.Section(brick.SectionName)
			if err != nil {
				return brick.Config{}, err
			}
			if cfg, err = brick.LoadConfig(sec); err != nil {
				return brick.Config{}, err
			}
			for _, opt := range sec.UnusedOptions() {
				log.Warn("unknown option '%s' in [%s]", opt, brick.SectionName)
			}
		} else {
			log.Warn("no [%s] section in %s, using defaults", brick.SectionName, f.configPath)
		}
	}

	if cmd.Flags().Changed("start-layer") {
		cfg.StartLayer = f.startLayer
	}
	if cmd.Flags().Changed("extrusion-multiplier") {
		cfg.ExtrusionMultiplier = f.extrusionMultiplier
	}
	if cmd.Flags().Changed("log-transforms") {
		cfg.Verbose = f.verboseTransforms
	}
	return cfg, nil
}
