package commands

import (
	"database/sql"

	"github.com/nerida-ai/courier/config"
	"github.com/nerida-ai/courier/db"
	"github.com/nerida-ai/courier/errors"
	"github.com/nerida-ai/courier/logger"
)

// openDatabase opens and migrates a database using the specified path.
// If dbPath is empty, it comes from configuration.
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load configuration")
		}
		dbPath = cfg.Database.Path
	}

	database, err := db.Open(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}

	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, errors.Wrapf(err, "failed to run migrations on %s", dbPath)
	}

	return database, nil
}
