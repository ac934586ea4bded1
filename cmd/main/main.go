package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-steen/project-board/pkg/config"
	"github.com/matt-steen/project-board/pkg/controller"
	"github.com/matt-steen/project-board/pkg/db"
	"github.com/matt-steen/project-board/pkg/remote"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
	logFile    *os.File
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	if logFile != nil {
		logFile.Close()
	}

	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "project-board",
	Short: "Kanban board for freelance projects",
	Long: `project-board tracks projects and clients on a three column board.

The board runs against the sqlite file in store.path, or against a remote
board API when store.url is set.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	rootCmd.AddCommand(boardCmd, serveCmd, clientCmd, projectCmd, timeCmd)
}

// setup loads the config and points the global logger at the log file.
func setup(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	level, err := cfg.Log.ZerologLevel()
	if err != nil {
		return err
	}

	filePerms := 0o666

	logFile, err = os.OpenFile(cfg.Log.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, fs.FileMode(filePerms))
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}

	zerolog.SetGlobalLevel(level)

	log.Logger = log.With().Caller().Logger().Output(zerolog.ConsoleWriter{
		Out: logFile, TimeFormat: "2006-01-02_15:04:05",
	})

	log.Info().Str("command", cmd.Name()).Msg("starting application...")

	return nil
}

// cliStore is what the commands need on top of the board UI.
type cliStore interface {
	controller.Store
	GetClient(ctx context.Context, id string) (db.Client, error)
}

// openStore returns the remote API client when store.url is set and the sqlite database
// otherwise. The returned func releases the store.
func openStore(ctx context.Context) (cliStore, func(), error) {
	if cfg.Store.URL != "" {
		log.Info().Str("url", cfg.Store.URL).Msg("using remote store")

		return remote.NewClient(cfg.Store.URL, cfg.Store.APIKey, cfg.Store.Timeout), func() {}, nil
	}

	database, err := db.NewDatabase(ctx, cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}

	return database, func() {
		if err := database.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing database")
		}
	}, nil
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the board in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		c, err := controller.NewController(cmd.Context(), store)
		if err != nil {
			return err
		}

		return c.Go()
	},
}
