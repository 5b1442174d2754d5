package store

import (
	"context"
	"strings"

	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/oliverisaac/grooming/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/ncruces/go-sqlite3/embed"
	sqlite "github.com/ncruces/go-sqlite3/gormlite"
)

// Open connects to the configured database. Unique violations come back
// as gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, errors.Errorf("unknown database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&types.User{},
		&types.PositiveQuestion{},
		&types.Diary{},
		&types.PositiveAnswer{},
		&types.PushSubscription{},
	)
	return errors.Wrap(err, "Failed to migrate")
}

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "Duplicate entry")
}

// writeErr maps a failed insert or update onto the error taxonomy.
func writeErr(err error, conflict string, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if isDuplicate(err) {
		return apperr.Conflict("%s", conflict)
	}
	return apperr.Persistence(err, format, args...)
}

// readErr maps a failed single-row lookup onto the error taxonomy.
func readErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	return apperr.Persistence(err, "finding %s", what)
}

func logWithUser(userID string) *logrus.Entry {
	return logrus.WithField("user", userID)
}
