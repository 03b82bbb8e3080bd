// Command import_books seeds a library database from a YAML catalog.
//
// Usage:
//
//	go run ./cmd/import_books --db library.db --fresh catalog.yaml
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"library-system/internal/config"
	"library-system/internal/logger"
	"library-system/library"
)

// defaultDBFile is used when the configuration points at an in-memory
// database, which would discard the import on exit.
const defaultDBFile = "library.db"

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		envFile string
		fresh   bool
	)
	cmd := &cobra.Command{
		Use:          "import_books [CATALOG]",
		Short:        "Import books and members from a YAML catalog (default catalog.yaml)",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogPath := "catalog.yaml"
			if len(args) == 1 {
				catalogPath = args[0]
			}
			return run(cmd, envFile, catalogPath, fresh)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
	cmd.Flags().String("db", "", "SQLite database file (default library.db)")
	cmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", "", "Log format (text, json)")
	cmd.Flags().Int("bcrypt-cost", 0, "bcrypt cost for member passwords")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Remove existing database files before importing")
	return cmd
}

func run(cmd *cobra.Command, envFile, catalogPath string, fresh bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(envFile, cmd.Flags())
	if err != nil {
		return err
	}
	dbPath := cfg.DBPath
	if dbPath == library.MemoryPath {
		dbPath = defaultDBFile
	}

	if fresh {
		fmt.Fprintln(out, "Cleaning up existing database files...")
		for _, file := range []string{dbPath, dbPath + "-shm", dbPath + "-wal"} {
			if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(out, "Warning: Could not remove %s: %v\n", file, err)
			}
		}
	}

	manager, err := library.NewLibraryManager(dbPath, library.Options{
		Logger: logger.New(logger.Config{
			Writer: cmd.ErrOrStderr(),
			Format: cfg.LogFormat,
			Level:  logger.ParseLevel(cfg.LogLevel),
		}),
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer manager.Close()

	f, err := os.Open(catalogPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(out, "Importing %s into %s...\n", catalogPath, dbPath)
	summary, err := manager.ImportCatalog(f)
	fmt.Fprintf(out, "Imported %d book(s) and %d member(s)\n", len(summary.BookIDs), len(summary.MemberIDs))
	if err != nil {
		return err
	}

	books, err := manager.GetAllBooks()
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	if len(books) > 0 {
		fmt.Fprintln(out, "\nBooks:")
		fmt.Fprintf(out, "%-3s %-50s %-12s\n", "ID", "Title", "Genre")
		fmt.Fprintln(out, strings.Repeat("-", 67))
		for _, book := range books {
			fmt.Fprintf(out, "%-3d %-50s %-12s\n", book.ID, library.Truncate(book.Title, 50), book.Genre)
		}
	}
	return nil
}
