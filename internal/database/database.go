package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/headless-pm/taskflow/internal/apperr"
	"github.com/headless-pm/taskflow/internal/models"
	"github.com/headless-pm/taskflow/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Database struct {
	*gorm.DB
}

// NewDatabase opens the SQLite database under dataDir.
func NewDatabase(dataDir string) (*Database, error) {
	return Open(config.DatabaseConfig{Driver: "sqlite", DataDir: dataDir, LogLevel: "warn"})
}

func Open(cfg config.DatabaseConfig) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dbPath := filepath.Join(cfg.DataDir, "db", "taskflow.db")

		// Ensure the db directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dialector = sqlite.Open(dbPath + "?_foreign_keys=on")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectTeam{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.TaskComment{},
		&models.Activity{},
		&models.Ticket{},
		&models.TicketComment{},
		&models.TicketAttachment{},
		&models.Notification{},
		&models.Message{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{DB: db}, nil
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// InTx runs fn inside a transaction. Any error returned by fn, or a panic,
// rolls back every write made through tx. Nested calls use savepoints.
func (db *Database) InTx(fn func(tx *Database) error) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return fn(&Database{DB: tx})
	})
}

// Active restricts a query to rows that are not archived. It is the only
// place the soft-delete predicate is spelled out.
func Active(db *gorm.DB) *gorm.DB {
	return db.Where(clause.Eq{
		Column: clause.Column{Table: clause.CurrentTable, Name: "is_archived"},
		Value:  false,
	})
}

// notFound translates gorm's missing-row error into the shared taxonomy.
func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return err
}
