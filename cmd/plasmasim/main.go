package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/plasmasim/internal/config"
	"github.com/san-kum/plasmasim/internal/reactor"
)

var (
	dataDir  string
	logLevel string
	log      = logrus.New()

	// plasma
	te       float64
	tg       float64
	ev       float64
	power    float64
	density  string
	catalyst float64
	// feed
	ratio        float64
	totalDensity float64
	// simulation
	variant  string
	method   string
	duration float64
	samples  int
	// sweep
	teMin     float64
	teMax     float64
	points    int
	reactions []string
	// scan
	scanParams []string
	metric     string
	// plot
	species  string
	logScale bool
	// config sources
	configFile string
	iniFile    string
	ratesPath  string
	preset     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "plasmasim",
		Short:         "plasma-assisted ammonia synthesis kinetics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".plasmasim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "log level")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&iniFile, "ini", "", "legacy config.ini path")
	rootCmd.PersistentFlags().StringVar(&ratesPath, "rates", "", "rate table csv (default: embedded)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "integrate the kinetics and store the run",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addPlasmaFlags(runCmd)
	runCmd.Flags().StringVar(&variant, "variant", "reduced", "mechanism variant")
	runCmd.Flags().StringVar(&method, "method", "rosenbrock", "integration method")
	runCmd.Flags().Float64Var(&ratio, "ratio", reactor.DefaultFeedRatio, "H2:N2 feed ratio")
	runCmd.Flags().Float64Var(&totalDensity, "total-density", reactor.DefaultTotalDensity, "total feed density (cm^-3)")
	runCmd.Flags().Float64Var(&duration, "time", 1e-3, "duration (s)")
	runCmd.Flags().IntVar(&samples, "samples", 100, "output samples")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "rate coefficients over an electron temperature grid",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addPlasmaFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&teMin, "te-min", config.DefaultTeMin, "lowest electron temperature (eV)")
	sweepCmd.Flags().Float64Var(&teMax, "te-max", config.DefaultTeMax, "highest electron temperature (eV)")
	sweepCmd.Flags().IntVar(&points, "points", config.DefaultTePoints, "grid points")
	sweepCmd.Flags().StringSliceVar(&reactions, "reaction", nil, "reaction to include (repeatable)")

	ratesCmd := &cobra.Command{
		Use:   "rates",
		Short: "list the rate table with values at a plasma state",
		Args:  cobra.NoArgs,
		RunE:  listRates,
	}
	addPlasmaFlags(ratesCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot species trajectories",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&species, "species", "", "plot one species only")
	plotCmd.Flags().BoolVar(&logScale, "log", true, "log10 concentration axis")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [variant]",
		Short: "list available presets for a variant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for variant: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "grid search over plasma parameters",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	scanCmd.Flags().StringVar(&variant, "variant", "reduced", "mechanism variant")
	scanCmd.Flags().StringArrayVar(&scanParams, "param", nil, "name=v1,v2,... (repeatable)")
	scanCmd.Flags().StringVar(&metric, "metric", "nh3_yield", "metric to maximize")
	scanCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")

	tableCmd := &cobra.Command{
		Use:   "table [csv...]",
		Short: "show experimental data tables",
		RunE:  showTables,
	}

	rootCmd.AddCommand(runCmd, sweepCmd, ratesCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, presetsCmd, scanCmd, tableCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPlasmaFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&te, "te", reactor.DefaultTe, "electron temperature (eV)")
	cmd.Flags().Float64Var(&tg, "tg", reactor.DefaultTg, "gas temperature (K)")
	cmd.Flags().Float64Var(&ev, "ev", 0, "vibrational energy (K)")
	cmd.Flags().Float64Var(&power, "power", reactor.DefaultPowerDensity, "power density (W/cm^3)")
	cmd.Flags().StringVar(&density, "density", "power", "electron density model")
	cmd.Flags().Float64Var(&catalyst, "catalyst", reactor.DefaultCatalyst, "catalyst multiplier")
}
