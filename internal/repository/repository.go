package repository

import (
	"context"

	"github.com/yukikurage/primecode/internal/models"
)

// TaskRepository defines the interface for task data access.
// Every operation is scoped to an owner; a task owned by someone else is
// reported exactly like a missing one (gorm.ErrRecordNotFound).
type TaskRepository interface {
	// Create stamps ownerID on the task and inserts it
	Create(ctx context.Context, ownerID string, task *models.Task) error

	// FindForOwner finds a task by ID among the owner's tasks
	FindForOwner(ctx context.Context, ownerID, id string) (*models.Task, error)

	// ListForOwner retrieves the owner's tasks with filtering and optional pagination
	ListForOwner(ctx context.Context, ownerID string, filter TaskFilter) ([]models.Task, int64, error)

	// UpdateForOwner writes the mutable fields of task
	UpdateForOwner(ctx context.Context, ownerID string, task *models.Task) error

	// DeleteForOwner removes a task
	DeleteForOwner(ctx context.Context, ownerID, id string) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	Status *models.TaskStatus
	Search string
	Offset int
	Limit  int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Save persists profile changes
	Save(ctx context.Context, user *models.User) error
}
