package cli

import (
	"fmt"
	"log/slog"
	"os"
	"unicode"

	"pettycash/internal/app"
	"pettycash/internal/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// session loads the configuration and builds the application on first use,
// so that --help and flag errors never touch the database.
type session struct {
	configFile string
	cfg        *config.Config
	app        *app.App
	cleanup    func()
}

func (s *session) config() (*config.Config, error) {
	if s.cfg != nil {
		return s.cfg, nil
	}
	cfg, err := config.Load(s.configFile)
	if err != nil {
		return nil, err
	}
	s.cfg = cfg
	return cfg, nil
}

func (s *session) open() (*app.App, error) {
	if s.app != nil {
		return s.app, nil
	}

	cfg, err := s.config()
	if err != nil {
		return nil, err
	}

	a, cleanup, err := app.New(cfg, newLogger(cfg))
	if err != nil {
		return nil, err
	}
	s.app, s.cleanup = a, cleanup
	return a, nil
}

func (s *session) close() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.IsDevelopment() {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// NewRootCmd assembles the pettycash command tree. The returned func
// releases whatever the commands opened.
func NewRootCmd() (*cobra.Command, func()) {
	s := &session{}

	rootCmd := &cobra.Command{
		Use:           "pettycash",
		Short:         "pettycash is a petty cash ledger with an HTTP API",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVarP(&s.configFile, "config", "c", "", "set the config file path")

	rootCmd.AddCommand(
		newServeCmd(s),
		newMigrateCmd(s),
		newUserCmd(s),
		newTokenCmd(s),
		newBalanceCmd(s),
		newSettleCmd(s),
		newCashCountCmd(s),
		newSeedCmd(s),
		newReportCmd(s),
		newInvoicesCmd(s),
	)

	return rootCmd, s.close
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " ERROR ",
		Style: pterm.NewStyle(pterm.BgLightRed, pterm.FgBlack),
	}

	rootCmd, closeApp := NewRootCmd()
	err := rootCmd.Execute()
	closeApp()

	if err != nil {
		pterm.Error.Println(capitalize(err.Error()))
		os.Exit(1)
	}
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func requireFlag(cmd *cobra.Command, name string) error {
	if v, _ := cmd.Flags().GetString(name); v == "" {
		return fmt.Errorf("--%s is required", name)
	}
	return nil
}
