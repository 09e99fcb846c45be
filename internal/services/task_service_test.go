package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/primecode/internal/models"
	"github.com/yukikurage/primecode/internal/repository"
	"gorm.io/gorm"
)

type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TaskService
	ctx     context.Context
	alice   string
	bob     string
}

func (s *TaskServiceTestSuite) SetupTest() {
	s.db = setupTestDB(s.T())
	s.service = NewTaskService(repository.NewTaskRepository(s.db))
	s.ctx = context.Background()

	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		user := &models.User{Name: "User", Email: email, PasswordHash: "hash"}
		s.Require().NoError(s.db.Create(user).Error)
		if s.alice == "" {
			s.alice = user.ID
		} else {
			s.bob = user.ID
		}
	}
}

func (s *TaskServiceTestSuite) TestCreateTask_Defaults() {
	task, err := s.service.CreateTask(s.ctx, s.alice, CreateTaskInput{
		Title: "  Write docs  ",
		Tags:  []string{"docs", "docs", " ops "},
	})
	s.Require().NoError(err)

	s.Equal("Write docs", task.Title)
	s.Equal("", task.Description)
	s.Equal(models.TaskStatusTodo, task.Status)
	s.Equal(models.TaskPriorityMedium, task.Priority)
	s.Equal(models.Tags{"docs", "ops"}, task.Tags)
	s.Equal(s.alice, task.OwnerID)
	s.NotEmpty(task.ID)
	s.False(task.CreatedAt.IsZero())
}

func (s *TaskServiceTestSuite) TestCreateTask_Invalid() {
	_, err := s.service.CreateTask(s.ctx, s.alice, CreateTaskInput{Title: "   "})
	s.ErrorIs(err, ErrTitleRequired)

	_, err = s.service.CreateTask(s.ctx, s.alice, CreateTaskInput{Title: "Valid", Status: "blocked"})
	s.ErrorIs(err, ErrInvalidStatus)

	_, err = s.service.CreateTask(s.ctx, s.alice, CreateTaskInput{Title: "Valid", Priority: "urgent"})
	s.ErrorIs(err, ErrInvalidPriority)
}

func (s *TaskServiceTestSuite) TestListTasks_ScopedToOwner() {
	_, err := s.service.CreateTask(s.ctx, s.alice, CreateTaskInput{Title: "Alice task"})
	s.Require().NoError(err)
	_, err = s.service.CreateTask(s.ctx, s.bob, CreateTaskInput{Title: "Bob task"})
	s.Require().NoError(err)

	tasks, total, err := s.service.ListTasks(s.ctx, s.bob, ListTasksInput{})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(tasks, 1)
	s.Equal("Bob task", tasks[0].Title)
}

func (s *TaskServiceTestSuite) TestListTasks_FiltersAndPages() {
	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		_, err := s.service.CreateTask(s.ctx, s.alice, CreateTaskInput{Title: title, Status: models.TaskStatusDone})
		s.Require().NoError(err)
	}
	_, err := s.service.CreateTask(s.ctx, s.alice, CreateTaskInput{Title: "Delta"})
	s.Require().NoError(err)

	done := models.TaskStatusDone
	tasks, total, err := s.service.ListTasks(s.ctx, s.alice, ListTasksInput{Status: &done, Page: 2, PageSize: 2})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Len(tasks, 1)

	tasks, _, err = s.service.ListTasks(s.ctx, s.alice, ListTasksInput{Search: "elt"})
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal("Delta", tasks[0].Title)

	bad := models.TaskStatus("blocked")
	_, _, err = s.service.ListTasks(s.ctx, s.alice, ListTasksInput{Status: &bad})
	s.ErrorIs(err, ErrInvalidStatus)
}

func (s *TaskServiceTestSuite) TestUpdateTask_Partial() {
	created, err := s.service.CreateTask(s.ctx, s.alice, CreateTaskInput{
		Title:       "Draft",
		Description: "first pass",
		Priority:    models.TaskPriorityHigh,
		Tags:        []string{"a"},
	})
	s.Require().NoError(err)

	status := models.TaskStatusInProgress
	updated, err := s.service.UpdateTask(s.ctx, s.alice, created.ID, UpdateTaskInput{Status: &status})
	s.Require().NoError(err)

	s.Equal(models.TaskStatusInProgress, updated.Status)
	s.Equal("Draft", updated.Title)
	s.Equal("first pass", updated.Description)
	s.Equal(models.TaskPriorityHigh, updated.Priority)
	s.Equal(models.Tags{"a"}, updated.Tags)

	updated, err = s.service.UpdateTask(s.ctx, s.alice, created.ID, UpdateTaskInput{SetTags: true})
	s.Require().NoError(err)
	s.Empty(updated.Tags)
}

func (s *TaskServiceTestSuite) TestUpdateTask_Invalid() {
	created, err := s.service.CreateTask(s.ctx, s.alice, CreateTaskInput{Title: "Draft"})
	s.Require().NoError(err)

	empty := "  "
	_, err = s.service.UpdateTask(s.ctx, s.alice, created.ID, UpdateTaskInput{Title: &empty})
	s.ErrorIs(err, ErrTitleEmpty)

	bad := models.TaskPriority("urgent")
	_, err = s.service.UpdateTask(s.ctx, s.alice, created.ID, UpdateTaskInput{Priority: &bad})
	s.ErrorIs(err, ErrInvalidPriority)
}

func (s *TaskServiceTestSuite) TestCrossOwnerAccessIsNotFound() {
	created, err := s.service.CreateTask(s.ctx, s.alice, CreateTaskInput{Title: "Private"})
	s.Require().NoError(err)

	title := "Hijacked"
	_, err = s.service.UpdateTask(s.ctx, s.bob, created.ID, UpdateTaskInput{Title: &title})
	s.ErrorIs(err, ErrTaskNotFound)

	err = s.service.DeleteTask(s.ctx, s.bob, created.ID)
	s.ErrorIs(err, ErrTaskNotFound)

	_, err = s.service.GetTask(s.ctx, s.bob, created.ID)
	s.ErrorIs(err, ErrTaskNotFound)

	task, err := s.service.GetTask(s.ctx, s.alice, created.ID)
	s.Require().NoError(err)
	s.Equal("Private", task.Title)
}

func (s *TaskServiceTestSuite) TestDeleteTask() {
	created, err := s.service.CreateTask(s.ctx, s.alice, CreateTaskInput{Title: "Remove"})
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteTask(s.ctx, s.alice, created.ID))
	s.ErrorIs(s.service.DeleteTask(s.ctx, s.alice, created.ID), ErrTaskNotFound)
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
