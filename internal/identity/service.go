package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service manages identity lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput captures the data needed to onboard a user into the hierarchy.
type RegisterInput struct {
	Name     string
	Phone    string
	Password string
	Role     string
	ParentID string
}

// Register creates a user, hashing the password and validating the parent link
// against the hierarchy rules (sellers attach to supervisors, supervisors to
// regional leads).
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	if len(input.Password) < 6 {
		return User{}, errors.New("password must be at least 6 characters")
	}
	if !ValidRole(input.Role) {
		return User{}, fmt.Errorf("unknown role %q", input.Role)
	}

	if input.ParentID != "" {
		parent, err := s.repo.FindByID(ctx, input.ParentID)
		if err != nil {
			return User{}, fmt.Errorf("parent: %w", err)
		}
		switch {
		case input.Role == RoleSeller && parent.Role != RoleSupervisor:
			return User{}, errors.New("seller parent must be a supervisor")
		case input.Role == RoleSupervisor && parent.Role != RoleRegionalLead:
			return User{}, errors.New("supervisor parent must be a regional lead")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Phone:        input.Phone,
		Role:         input.Role,
		ParentID:     input.ParentID,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies credentials.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByPhone(ctx, creds.Phone)
	if err != nil {
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return User{}, errors.New("invalid password")
	}

	return user, nil
}
