package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"terrametrics/internal/config"
	"terrametrics/internal/logger"
	tm "terrametrics/pkg/terrametrics"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

// cli carries the state shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string
	outDir     string
	nodata     float64
	hasNodata  bool
	gain       float64
	offset     float64

	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "terrametrics",
		Short: "Terrain, fire and burn severity metrics for single-band rasters",
		Long: `terrametrics derives terrain and fire products from single-band TIFF rasters.

Rasters carry no georeference; the grid section of the job file (--config)
places them. Each command writes a PNG quicklook and a YAML summary into
--out, and vector products as GeoJSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "YAML job file")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level (debug, info, warn, error, off); overrides the job file")
	root.PersistentFlags().StringVarP(&c.outDir, "out", "o", ".", "Output directory")
	root.PersistentFlags().Float64Var(&c.nodata, "nodata", 0, "Input value treated as missing")
	root.PersistentFlags().Float64Var(&c.gain, "scale-factor", 1, "Multiplier applied to packed input values")
	root.PersistentFlags().Float64Var(&c.offset, "add-offset", 0, "Offset added to packed input values after scaling")

	root.AddCommand(
		c.tpiCmd(),
		c.slopePositionCmd(),
		c.hliCmd(),
		c.nbrCmd(),
		c.climateCmd(),
		c.renderCmd(),
		c.fireCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.cfg = cfg
	c.hasNodata = cmd.Flags().Changed("nodata")

	c.log = logger.Build(logger.Config{
		Level:     cfg.Logging.Level,
		Console:   cfg.Logging.Console,
		Component: "terrametrics",
	}, cmd.ErrOrStderr())
	tm.SetLogger(c.log)

	if err := os.MkdirAll(c.outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return nil
}
