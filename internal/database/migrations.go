package database

import (
	"fmt"

	"github.com/yukikurage/primecode/internal/models"
	"gorm.io/gorm"
)

// indexes the task queries depend on. They are declared in the model tags;
// listing them here lets Migrate repair a schema created by an older build.
var indexes = []struct {
	model interface{}
	name  string
}{
	{&models.Task{}, "idx_tasks_owner_updated"},
	{&models.Task{}, "idx_tasks_owner_status"},
	{&models.User{}, "idx_users_email"},
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := ensureIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}
	return nil
}

func ensureIndexes(db *gorm.DB) error {
	m := db.Migrator()
	for _, idx := range indexes {
		if m.HasIndex(idx.model, idx.name) {
			continue
		}
		if err := m.CreateIndex(idx.model, idx.name); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}
