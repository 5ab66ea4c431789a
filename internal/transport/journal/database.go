package journal

import (
	"fmt"

	"github.com/OCAP2/seatsync/internal/config"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL;",
	"PRAGMA synchronous = NORMAL;",
	"PRAGMA temp_store = MEMORY;",
	"PRAGMA cache_size = -16000;",
}

// Open connects to the journal database selected by cfg.Driver. The sqlite
// driver uses cfg.Path; an empty path opens a private in-memory database.
// The postgres driver uses db.
func Open(cfg config.JournalConfig, db config.DBConfig, log zerolog.Logger) (*gorm.DB, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return openSQLite(cfg.Path, log)
	case DriverPostgres:
		return openPostgres(db, log)
	default:
		return nil, fmt.Errorf("unknown journal driver %q", cfg.Driver)
	}
}

func openSQLite(path string, log zerolog.Logger) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite journal: %w", err)
	}

	if path == "" {
		// Every pooled connection to :memory: is its own database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("access sqlite journal: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	} else {
		for _, pragma := range sqlitePragmas {
			if err := db.Exec(pragma).Error; err != nil {
				return nil, fmt.Errorf("error setting PRAGMA: %w", err)
			}
		}
	}

	log.Info().Str("path", dsn).Msg("Using SQLite packet journal")
	return db, nil
}

func openPostgres(cfg config.DBConfig, log zerolog.Logger) (*gorm.DB, error) {
	log.Debug().Str("host", cfg.Host).Str("port", cfg.Port).Str("database", cfg.Database).
		Msg("Connecting to Postgres packet journal")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres journal: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access postgres journal: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres journal: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)

	log.Info().Msg("Connected to Postgres packet journal")
	return db, nil
}
