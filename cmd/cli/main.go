package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"battery-dispatch/internal/config"
	"battery-dispatch/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries what every command shares. Flags of the running command are
// bound to v, so DISPATCH_<FLAG> environment variables override defaults.
type app struct {
	v      *viper.Viper
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}
	a.v.SetEnvPrefix("DISPATCH")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "dispatch",
		Short: "Day-ahead battery dispatch with CVaR risk control",
		Long: `dispatch builds a two-stage stochastic model of one or more storage units,
samples price and load scenarios around a forecast and commits the schedule
that minimises predicted cost plus a weighted CVaR of the scenario costs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.bind(cmd.Flags()); err != nil {
				return err
			}
			logger, err := logging.New(a.v.GetString("log-level"), a.v.GetBool("log-json"))
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("log-json", false, "log as JSON instead of console text")

	root.AddCommand(solveCmd(a))
	root.AddCommand(scenariosCmd(a))
	root.AddCommand(frontierCmd(a))
	root.AddCommand(summarizeCmd(a))
	root.AddCommand(runsCmd(a))
	root.AddCommand(forecastCmd(a))
	return root
}

// bind attaches the flags of the running command (local and inherited).
func (a *app) bind(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err == nil {
			err = a.v.BindPFlag(f.Name, f)
		}
	})
	return err
}

// addModelFlags registers the overrides shared by commands that build models.
func addModelFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("config", "c", "", "path to the YAML dispatch config (required)")
	f.Float64("alpha", 0, "override risk.alpha")
	f.Float64("beta", 0, "override risk.beta")
	f.Float64("uncertainty", 0, "override scenarios.uncertainty")
	f.String("regime", "", "override scenarios.regime (fixed or parameterized)")
	f.Int("price-scenarios", 0, "override scenarios.price")
	f.Int("load-scenarios", 0, "override scenarios.load")
	f.Bool("sample-load", true, "override scenarios.sample_load")
	f.Uint64("seed", 0, "override scenarios.seed")
	f.Bool("exclusive", false, "override solver.exclusive_charge_discharge")
	f.Float64("timeout", 0, "override solver.timeout_seconds")
}

// loadConfig reads --config and applies flag/env overrides before defaults.
func (a *app) loadConfig() (*config.Config, error) {
	path := a.v.GetString("config")
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	c, err := config.LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	a.overlay(c)
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (a *app) overlay(c *config.Config) {
	v := a.v
	if v.IsSet("alpha") {
		c.Risk.Alpha = v.GetFloat64("alpha")
	}
	if v.IsSet("beta") {
		b := v.GetFloat64("beta")
		c.Risk.Beta = &b
	}
	if v.IsSet("uncertainty") {
		c.Scenarios.Uncertainty = v.GetFloat64("uncertainty")
	}
	if v.IsSet("regime") {
		c.Scenarios.Regime = v.GetString("regime")
	}
	if v.IsSet("price-scenarios") {
		c.Scenarios.Price = v.GetInt("price-scenarios")
	}
	if v.IsSet("load-scenarios") {
		c.Scenarios.Load = v.GetInt("load-scenarios")
	}
	if v.IsSet("sample-load") {
		on := v.GetBool("sample-load")
		c.Scenarios.SampleLoad = &on
	}
	if v.IsSet("seed") {
		c.Scenarios.Seed = v.GetUint64("seed")
	}
	if v.IsSet("exclusive") {
		c.Solver.ExclusiveChargeDischarge = v.GetBool("exclusive")
	}
	if v.IsSet("timeout") {
		c.Solver.TimeoutSeconds = v.GetFloat64("timeout")
	}
}

// writeFile creates path with its parent directories and hands it to write.
// The close error is returned when write succeeds.
func writeFile(path string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
