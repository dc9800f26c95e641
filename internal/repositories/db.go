package repositories

import (
	"github.com/pkg/errors"
	"github.com/rohits-web03/sharedrive/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectDatabase opens the Postgres database at dsn and migrates it.
func ConnectDatabase(dsn string, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(postgres.Open(dsn))
	if err != nil {
		return nil, err
	}
	log.Info("Successfully connected to database")
	return db, nil
}

// Open connects through the given dialector and runs migrations.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
}

// Migrate creates or updates every table the store uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Folder{},
		&models.File{},
		&models.FileShare{},
		&models.FolderShare{},
	)
	if err != nil {
		return errors.Wrap(err, "migration failed")
	}
	return nil
}
