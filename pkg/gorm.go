package pkg

import (
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// partialIndexes back the single-current-version and single-active-session
// rules. gorm tags cannot express the WHERE clause.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_quiz_version_current ON quiz_versions (quiz_id) WHERE is_current`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_edit_session_active ON quiz_edit_sessions (quiz_id) WHERE status = 'active'`,
}

func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.IsProduction() {
		logLevel = logger.Error
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Migrate creates or updates every table and the partial unique indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Quiz{},
		&models.QuizVersion{},
		&models.EditSession{},
		&models.QuizOwnership{},
		&models.ShareLink{},
		&models.Task{},
		&models.MultipleChoiceTask{},
		&models.TaskOption{},
		&models.FreeTextTask{},
		&models.ClozeTask{},
		&models.ClozeBlank{},
		&models.Attempt{},
		&models.Answer{},
		&models.MultipleChoiceAnswer{},
		&models.AnswerSelection{},
		&models.FreeTextAnswer{},
		&models.ClozeAnswer{},
		&models.ClozeAnswerItem{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
