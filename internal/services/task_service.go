package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"
)

// taskService implements the TaskService interface
type taskService struct {
	repos     repositories.Repositories
	validator *validator.Validate
	logger    *logrus.Logger
}

// NewTaskService creates a new task service instance
func NewTaskService(repos repositories.Repositories, logger *logrus.Logger) TaskService {
	return &taskService{
		repos:     repos,
		validator: validator.New(),
		logger:    orDefault(logger),
	}
}

// SendTask creates an open task for an employee
func (s *taskService) SendTask(ctx context.Context, sender *models.UserProfile, req *CreateTaskRequest) (*models.Task, error) {
	if sender == nil || !models.CanManage(sender.Role) {
		return nil, fmt.Errorf("%w: only managers can send tasks", ErrForbidden)
	}
	if req == nil {
		return nil, invalid("create task request cannot be nil")
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	if _, err := s.repos.Employees().GetByID(ctx, req.EmployeeID); err != nil {
		return nil, fmt.Errorf("failed to find task recipient: %w", err)
	}

	task := models.NewTask(req.EmployeeID, sender.ID, req.Title, req.Message)
	if err := s.repos.Tasks().Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"task_id":     task.ID,
		"employee_id": task.EmployeeID,
		"sender_id":   sender.ID,
	}).Info("Task sent")
	return task, nil
}

// ListTasks returns the tasks addressed to the user's linked employee
func (s *taskService) ListTasks(ctx context.Context, user *models.UserProfile, status models.TaskStatus) ([]*models.Task, error) {
	if user == nil || user.EmployeeID == nil || *user.EmployeeID == "" {
		return []*models.Task{}, nil
	}
	if status != "" && status != models.TaskStatusOpen && status != models.TaskStatusDone {
		return nil, invalid("invalid task status %q", status)
	}

	tasks, err := s.repos.Tasks().ListByEmployee(ctx, *user.EmployeeID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CompleteTask marks a task done. The addressee and managers may complete it.
func (s *taskService) CompleteTask(ctx context.Context, user *models.UserProfile, taskID string) (*models.Task, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, invalid("task ID cannot be empty")
	}
	task, err := s.repos.Tasks().GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	own := user != nil && user.EmployeeID != nil && *user.EmployeeID == task.EmployeeID
	if !own && (user == nil || !models.CanManage(user.Role)) {
		return nil, fmt.Errorf("%w: task belongs to another employee", ErrForbidden)
	}
	if task.Status == models.TaskStatusDone {
		return task, nil
	}

	task.Complete()
	if err := s.repos.Tasks().Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	return task, nil
}

// ruleService implements the RuleService interface
type ruleService struct {
	repo      repositories.BusinessRuleRepository
	validator *validator.Validate
	logger    *logrus.Logger
}

// NewRuleService creates a new business rule service instance
func NewRuleService(repo repositories.BusinessRuleRepository, logger *logrus.Logger) RuleService {
	return &ruleService{
		repo:      repo,
		validator: validator.New(),
		logger:    orDefault(logger),
	}
}

func (s *ruleService) ListRules(ctx context.Context) ([]*models.BusinessRule, error) {
	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

func (s *ruleService) CreateRule(ctx context.Context, createdBy string, req *CreateRuleRequest) (*models.BusinessRule, error) {
	if req == nil {
		return nil, invalid("create rule request cannot be nil")
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	rule := models.NewBusinessRule(req.Rule, createdBy)
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	s.logger.WithField("rule_id", rule.ID).Info("Business rule added")
	return rule, nil
}

func (s *ruleService) DeleteRule(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalid("rule ID cannot be empty")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	return nil
}
