// Package cli implements the library command: an interactive shell plus
// one-shot subcommands over the circulation ledger.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"library-system/internal/config"
	"library-system/internal/logger"
	"library-system/library"
)

// app carries what every command needs once configuration is loaded.
type app struct {
	envFile string
	cfg     *config.Config
	log     *slog.Logger
	mgr     *library.LibraryManager
}

// NewRootCommand builds the command tree. Without a subcommand it starts the
// interactive shell.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "library",
		Short: "Manage books, members, borrowing and membership fees",
		Long: `library keeps a circulation ledger of books and members.

Run it without arguments for an interactive shell. The ledger lives in memory
unless --db (or LIBRARY_DB_PATH) points at a SQLite file.`,
		SilenceUsage:       true,
		Args:               cobra.NoArgs,
		PersistentPreRunE:  a.open,
		PersistentPostRunE: a.close,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShell(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", ".env", "Path to .env file")
	pf.String("db", "", "SQLite database path (default :memory:)")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (text, json)")
	pf.Int("bcrypt-cost", 0, "bcrypt cost for member passwords")

	root.AddCommand(
		newBookCommand(a),
		newMemberCommand(a),
		newCheckoutCommand(a),
		newReturnCommand(a),
		newReserveCommand(a),
		newReservationsCommand(a),
		newCancelReservationCommand(a),
		newDemoCommand(),
	)
	return root
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.envFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(logger.Config{
		Writer: cmd.ErrOrStderr(),
		Format: cfg.LogFormat,
		Level:  logger.ParseLevel(cfg.LogLevel),
	})

	mgr, err := library.NewLibraryManager(cfg.DBPath, library.Options{
		Logger:     a.log,
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		return err
	}
	a.mgr = mgr
	a.log.Debug("library opened", "db", cfg.DBPath)
	return nil
}

func (a *app) close(*cobra.Command, []string) error {
	if a.mgr == nil {
		return nil
	}
	err := a.mgr.Close()
	a.mgr = nil
	return err
}
