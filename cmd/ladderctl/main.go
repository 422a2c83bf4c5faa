package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/voltz-checkout/cycle-ladder/internal/cli"
	"github.com/voltz-checkout/cycle-ladder/internal/db"
	"github.com/voltz-checkout/cycle-ladder/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(1)
	}
}

func run() error {
	var closeDB func() error
	defer func() {
		if closeDB != nil {
			closeDB()
		}
	}()

	app := &cli.App{
		OpenLadders: func(dbPath string) (repository.LadderRepo, error) {
			path, err := resolveDBPath(dbPath)
			if err != nil {
				return nil, err
			}
			database, err := db.OpenDB(path)
			if err != nil {
				return nil, fmt.Errorf("opening database: %w", err)
			}
			closeDB = database.Close
			return repository.NewSQLiteLadderRepo(database), nil
		},
	}

	return cli.NewRootCmd(app).Execute()
}

// resolveDBPath picks --db, then VOLTZ_SQLITE_PATH, then ~/.voltz/ladders.db.
func resolveDBPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv("VOLTZ_SQLITE_PATH"); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".voltz", "ladders.db"), nil
}
