package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/primecode/internal/database"
	"github.com/yukikurage/primecode/internal/models"
	"github.com/yukikurage/primecode/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task owned by ownerID
func (r *GormTaskRepository) Create(ctx context.Context, ownerID string, task *models.Task) error {
	task.OwnerID = ownerID
	return r.db.WithContext(ctx).Create(task).Error
}

// FindForOwner finds a task by ID
func (r *GormTaskRepository) FindForOwner(ctx context.Context, ownerID, id string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(ownerID)).
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListForOwner retrieves tasks, most recently updated first
func (r *GormTaskRepository) ListForOwner(ctx context.Context, ownerID string, filter TaskFilter) ([]models.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(database.OwnedBy(ownerID))

	// Apply filters
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("updated_at DESC").Order("id ASC")
	if filter.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{Offset: filter.Offset, Limit: filter.Limit}))
	}

	tasks := []models.Task{}
	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// UpdateForOwner updates the mutable fields of a task
func (r *GormTaskRepository) UpdateForOwner(ctx context.Context, ownerID string, task *models.Task) error {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(database.OwnedBy(ownerID)).
		Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"status":      task.Status,
			"priority":    task.Priority,
			"tags":        task.Tags,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// MySQL reports 0 affected rows when the new values equal the old ones,
	// so a zero count only means "not found" if the row is really absent.
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(database.OwnedBy(ownerID)).
		Where("id = ?", task.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteForOwner deletes a task
func (r *GormTaskRepository) DeleteForOwner(ctx context.Context, ownerID, id string) error {
	result := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(ownerID)).
		Where("id = ?", id).
		Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// escapeLike escapes LIKE wildcards using '!' as the escape character, which
// needs no quoting on any supported driver.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
