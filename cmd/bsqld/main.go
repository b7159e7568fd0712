// Package main contains the cli implementation of bsqld, the BSQL
// server host. It uses cobra for command handling, matching the
// root-command-plus-subcommands shape the rest of the pack uses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"bsql/internal/auth"
	"bsql/internal/bsqlerr"
	"bsql/internal/catalog"
	"bsql/internal/config"
	"bsql/internal/engine"
	"bsql/internal/log"
	"bsql/internal/server"
)

type serveFlags struct {
	root       string
	configFile string
}

type createUserFlags struct {
	root string
}

func main() {
	var rootFlag string
	var createUser bool
	serveFlagsRoot := &serveFlags{}

	rootCmd := &cobra.Command{
		Use:   "bsqld",
		Short: "BSQL relational database server",
		Args:  cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			if createUser {
				if len(args) != 2 {
					return fmt.Errorf("bsqld: --create-user requires <name> <password>")
				}
				return runCreateUser(&createUserFlags{root: rootFlag}, args[0], args[1])
			}
			serveFlagsRoot.root = rootFlag
			return runServe(serveFlagsRoot)
		},
	}
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "storage root directory (overrides config)")
	rootCmd.Flags().StringVar(&serveFlagsRoot.configFile, "config", "", "path to bsqld.toml")
	rootCmd.Flags().BoolVar(&createUser, "create-user", false, "create user <name> <password> and exit")

	rootCmd.AddCommand(serveCmd(&rootFlag))
	rootCmd.AddCommand(createUserCmd(&rootFlag))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(rootFlag *string) *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the BSQL TCP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			flags.root = *rootFlag
			return runServe(flags)
		},
	}
	cmd.Flags().StringVar(&flags.configFile, "config", "", "path to bsqld.toml")
	return cmd
}

func createUserCmd(rootFlag *string) *cobra.Command {
	flags := &createUserFlags{}
	cmd := &cobra.Command{
		Use:   "create-user <name> <password>",
		Short: "Create a user record and exit (spec §6 exit codes: 0 ok, 2 duplicate, 1 I/O error)",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			flags.root = *rootFlag
			return runCreateUser(flags, args[0], args[1])
		},
	}
	return cmd
}

func resolveRoot(rootFlag string) string {
	if rootFlag != "" {
		return rootFlag
	}
	if env := os.Getenv("BSQL_ROOT"); env != "" {
		return env
	}
	return "./bsql-data"
}

func loadConfig(rootFlag, configFile string) (config.Config, error) {
	root := resolveRoot(rootFlag)
	base := config.Default(root)
	if configFile == "" {
		return base, nil
	}
	cfg, err := config.Load(configFile, base)
	if err != nil {
		return config.Config{}, err
	}
	if rootFlag != "" {
		cfg.RootDir = rootFlag // --root always wins over the config file
	}
	return cfg, nil
}

func runServe(flags *serveFlags) error {
	cfg, err := loadConfig(flags.root, flags.configFile)
	if err != nil {
		return err
	}

	if cfg.LogFormat == "json" {
		os.Setenv("BSQL_LOG_FORMAT", "json")
	}
	logger := log.New()
	defer logger.Sync()

	if err := os.MkdirAll(cfg.RootDir, 0o755); err != nil {
		return fmt.Errorf("bsqld: create root dir: %w", err)
	}

	cat, err := catalog.Open(cfg.RootDir)
	if err != nil {
		return fmt.Errorf("bsqld: open catalog: %w", err)
	}
	defer cat.Close()

	users, err := auth.Open(filepath.Join(cfg.RootDir, cfg.UsersFile))
	if err != nil {
		return fmt.Errorf("bsqld: open user store: %w", err)
	}

	eng := engine.New(cat, logger)
	srv := server.New(cfg.ListenAddr, eng, users, logger, cfg.MaxConns)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}

func runCreateUser(flags *createUserFlags, name, password string) error {
	root := resolveRoot(flags.root)
	cfg := config.Default(root)

	if err := os.MkdirAll(cfg.RootDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	users, err := auth.Open(filepath.Join(cfg.RootDir, cfg.UsersFile))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := users.CreateUser(name, password); err != nil {
		var catErr *bsqlerr.CatalogError
		if ok := isAlreadyExists(err, &catErr); ok {
			fmt.Fprintf(os.Stderr, "user %q already exists\n", name)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("created user %q\n", name)
	return nil
}

func isAlreadyExists(err error, target **bsqlerr.CatalogError) bool {
	if ce, ok := err.(*bsqlerr.CatalogError); ok && ce.Kind == "AlreadyExists" {
		*target = ce
		return true
	}
	return false
}
