package postgres

import (
	"database/sql/driver"
	"log"
	"net"
	"os"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"alcyxob/fitness-content/internal/domain"
)

// NewPostgres opens a gorm connection with error translation enabled, so
// unique violations surface as gorm.ErrDuplicatedKey.
func NewPostgres(dsn string) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             300 * time.Millisecond, // Slow SQL threshold
			LogLevel:                  logger.Warn,            // Log level
			IgnoreRecordNotFoundError: true,                   // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger,
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return db, nil
}

// Migrate creates the entity tables first and the pivot tables after them,
// since the pivots carry foreign keys to both sides.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.Category{},
		&domain.Equipment{},
		&domain.Exercise{},
		&domain.FocusArea{},
		&domain.Workout{},
		&domain.ExecutionPoint{},
		&domain.MasterGoal{},
		&domain.User{},
		&userDetailRow{},
	); err != nil {
		return errors.Wrap(err, "migrate entities")
	}
	if err := db.AutoMigrate(pivotModels()...); err != nil {
		return errors.Wrap(err, "migrate pivots")
	}
	return nil
}

// storeErr marks connection failures with domain.ErrStoreUnavailable.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return err
}
