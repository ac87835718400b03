package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shortlink-backend/internal/domain"
)

// AutoMigrate runs the schema migrations for all domain models. Order
// matters: log rows reference counters, counters reference links.
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("starting database auto-migration")

	models := []interface{}{
		&domain.Link{},
		&domain.AccessCounter{},
		&domain.AccessLogEntry{},
	}

	for _, model := range models {
		modelName := fmt.Sprintf("%T", model)
		if err := db.AutoMigrate(model); err != nil {
			log.Error("failed to migrate model", zap.String("model", modelName), zap.Error(err))
			return fmt.Errorf("failed to migrate model %s: %w", modelName, err)
		}
		log.Debug("model migrated", zap.String("model", modelName))
	}

	log.Info("database auto-migration completed", zap.Int("migrated_models", len(models)))
	return nil
}
