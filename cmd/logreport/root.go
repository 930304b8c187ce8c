package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coffersTech/logreport/internal/config"
	"github.com/coffersTech/logreport/internal/engine"
	"github.com/coffersTech/logreport/internal/logging"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "logreport",
		Short: "Summarize rotated service logs",
		Long: `logreport reads rotated log files (<svc>.log, <svc>.<N>.log, <svc>.<N>.log.gz,
<svc>.<N>.log.zst) and prints per-service reports: time range, severity and
category distributions and the number of rotations.

  logreport generate api /var/log/api     # print reports once
  logreport serve                         # run the HTTP service
  logreport config init                   # write logreport.yaml with defaults

Settings come from defaults, logreport.yaml (or --config), LOGREPORT_* environment
variables and flags, later sources winning.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default ./"+config.DefaultFile+")")
	flags.String("logs-root", "", "directory logs paths are resolved against")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")
	flags.Int("workers", 0, "files parsed concurrently")

	_ = a.v.BindPFlag("logs_root", flags.Lookup("logs-root"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = a.v.BindPFlag("engine.workers", flags.Lookup("workers"))

	rootCmd.AddCommand(
		newServeCmd(a),
		newGenerateCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// load resolves the configuration and builds the logger. Logs go to stderr
// so generate output on stdout stays clean.
func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	logger, _, err := logging.New(a.stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) newGenerator() *engine.Generator {
	return engine.NewGenerator(engine.Options{
		Root:             a.cfg.LogsRoot,
		TimestampLayouts: a.cfg.Parser.TimestampLayouts,
		Workers:          a.cfg.Engine.Workers,
		MaxLineBytes:     a.cfg.Parser.MaxLineBytes,
		Logger:           a.logger,
	})
}
