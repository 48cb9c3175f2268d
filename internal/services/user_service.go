package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/repositories"
)

// userService implements the UserService interface
type userService struct {
	repos      repositories.Repositories
	validator  *validator.Validate
	logger     *logrus.Logger
	bcryptCost int
}

// NewUserService creates a new user service. A zero cost selects bcrypt.DefaultCost.
func NewUserService(repos repositories.Repositories, bcryptCost int, logger *logrus.Logger) UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		repos:      repos,
		validator:  validator.New(),
		logger:     orDefault(logger),
		bcryptCost: bcryptCost,
	}
}

// Register creates a pending employee account. An employee with the same name
// is linked to the account.
func (s *userService) Register(ctx context.Context, req *RegisterRequest) (*models.UserProfile, error) {
	if req == nil {
		return nil, invalid("register request cannot be nil")
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	profile := models.NewUserProfile(req.Name, req.Email)
	profile.Store = models.SanitizeString(req.Store)

	if _, err := s.repos.UserProfiles().GetByEmail(ctx, profile.Email); err == nil {
		return nil, repositories.DuplicateError("user", "email", profile.Email)
	} else if !repositories.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	profile.PasswordHash = string(hash)

	if employee, err := s.repos.Employees().GetByName(ctx, profile.Name); err == nil {
		profile.EmployeeID = &employee.ID
		if profile.Store == "" {
			profile.Store = employee.Store
		}
	}

	if err := s.repos.UserProfiles().Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   profile.ID,
		"linked":    profile.EmployeeID != nil,
		"has_store": profile.Store != "",
	}).Info("User registered, awaiting approval")
	return profile, nil
}

// Authenticate verifies the password of an active account
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.UserProfile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.repos.UserProfiles().GetByEmail(ctx, email)
	if repositories.IsNotFound(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.WithError(err).WithField("user_id", profile.ID).Warn("Stored password hash is unusable")
		}
		return nil, ErrInvalidCredentials
	}
	if profile.IsPending() {
		return nil, ErrAccountPending
	}
	return profile, nil
}

// ResolveProfile looks the identity up by document id, then by uid. An
// identity without a stored profile gets the fallback employee profile.
func (s *userService) ResolveProfile(ctx context.Context, identity Identity) (*models.UserProfile, error) {
	if identity.ID == "" && identity.UID == "" {
		return nil, invalid("identity has no id")
	}

	if identity.ID != "" {
		profile, err := s.repos.UserProfiles().GetByID(ctx, identity.ID)
		if err == nil {
			return profile, nil
		}
		if !repositories.IsNotFound(err) {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
	}

	uid := identity.UID
	if uid == "" {
		uid = identity.ID
	}
	profile, err := s.repos.UserProfiles().GetByUID(ctx, uid)
	if err == nil {
		return profile, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	s.logger.WithField("uid", uid).Debug("No stored profile, using fallback")
	return models.FallbackProfile(uid, identity.Email, identity.Name), nil
}

// ListUsers splits every account into pending and active
func (s *userService) ListUsers(ctx context.Context) (*UserListing, error) {
	profiles, err := s.repos.UserProfiles().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	listing := &UserListing{
		Pending: []*models.UserProfile{},
		Active:  []*models.UserProfile{},
	}
	for _, p := range profiles {
		if p.IsPending() {
			listing.Pending = append(listing.Pending, p)
		} else {
			listing.Active = append(listing.Active, p)
		}
	}
	return listing, nil
}

// ApproveUser activates a pending account
func (s *userService) ApproveUser(ctx context.Context, id string) (*models.UserProfile, error) {
	profile, err := s.getProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if !profile.IsPending() {
		return profile, nil
	}

	profile.Approve()
	if err := s.repos.UserProfiles().Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to approve user: %w", err)
	}

	s.logger.WithField("user_id", profile.ID).Info("User approved")
	return profile, nil
}

// UpdateRole changes the role and optionally the linked store and employee
func (s *userService) UpdateRole(ctx context.Context, id string, req *UpdateRoleRequest) (*models.UserProfile, error) {
	if req == nil {
		return nil, invalid("update role request cannot be nil")
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}

	profile, err := s.getProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	profile.Role = req.Role
	if req.Store != nil {
		profile.Store = models.SanitizeString(*req.Store)
	}
	if req.EmployeeID != nil {
		if *req.EmployeeID == "" {
			profile.EmployeeID = nil
		} else {
			if _, err := s.repos.Employees().GetByID(ctx, *req.EmployeeID); err != nil {
				return nil, fmt.Errorf("failed to link employee: %w", err)
			}
			linked := *req.EmployeeID
			profile.EmployeeID = &linked
		}
	}

	if err := s.repos.UserProfiles().Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": profile.ID,
		"role":    profile.Role,
	}).Info("User role updated")
	return profile, nil
}

// EnsureAdmin bootstraps the first administrator
func (s *userService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	_, err := s.repos.UserProfiles().GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !repositories.IsNotFound(err) {
		return fmt.Errorf("failed to check admin account: %w", err)
	}

	if name == "" {
		name = "Administrator"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	profile := models.NewUserProfile(name, email)
	profile.PasswordHash = string(hash)
	profile.Role = models.RoleAdmin
	profile.Status = models.UserStatusActive

	if err := s.repos.UserProfiles().Create(ctx, profile); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	s.logger.WithField("user_id", profile.ID).Info("Bootstrap admin account created")
	return nil
}

func (s *userService) getProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalid("user ID cannot be empty")
	}
	profile, err := s.repos.UserProfiles().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return profile, nil
}
