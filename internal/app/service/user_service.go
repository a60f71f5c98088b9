package service

import (
	"errors"
	"strings"

	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/internal/app/repository"
	"github.com/ikkim/store-rating-backend/internal/authz"
	"github.com/ikkim/store-rating-backend/pkg/logger"
	"github.com/ikkim/store-rating-backend/pkg/util"
	"gorm.io/gorm"
)

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Role     string // empty means normal_user
}

// UpdateUserInput carries optional fields; nil leaves the field unchanged.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Address  *string
	Role     *string
}

// UserService is the admin user-management surface.
type UserService interface {
	List(actor authz.Actor) ([]model.User, error)
	Get(actor authz.Actor, id uint) (*model.User, error)
	Create(actor authz.Actor, input CreateUserInput) (*model.User, error)
	Update(actor authz.Actor, id uint, input UpdateUserInput) (*model.User, error)
	Delete(actor authz.Actor, id uint) error
}

type userService struct {
	userRepo  repository.UserRepository
	storeRepo repository.StoreRepository
}

func NewUserService(userRepo repository.UserRepository, storeRepo repository.StoreRepository) UserService {
	return &userService{userRepo: userRepo, storeRepo: storeRepo}
}

func (s *userService) List(actor authz.Actor) ([]model.User, error) {
	if err := authz.Decide(actor, authz.ActionListUsers, authz.Resource{}).Err(); err != nil {
		return nil, err
	}
	return s.userRepo.FindAll()
}

func (s *userService) Get(actor authz.Actor, id uint) (*model.User, error) {
	if err := authz.Decide(actor, authz.ActionViewUser, authz.Resource{}).Err(); err != nil {
		return nil, err
	}
	return s.find(id)
}

func (s *userService) Create(actor authz.Actor, input CreateUserInput) (*model.User, error) {
	if err := authz.Decide(actor, authz.ActionCreateUser, authz.Resource{}).Err(); err != nil {
		return nil, err
	}

	role := model.RoleNormalUser
	if input.Role != "" {
		parsed, ok := model.ParseRole(input.Role)
		if !ok {
			return nil, ErrInvalidRole
		}
		role = parsed
	}

	hashed, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		PasswordHash: hashed,
		Address:      input.Address,
		Role:         role,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	logger.Info("User created by admin", map[string]interface{}{
		"admin_id": actor.ID,
		"user_id":  user.ID,
		"role":     user.Role,
	})
	return user, nil
}

func (s *userService) Update(actor authz.Actor, id uint, input UpdateUserInput) (*model.User, error) {
	if err := authz.Decide(actor, authz.ActionUpdateUser, authz.Resource{}).Err(); err != nil {
		return nil, err
	}

	user, err := s.find(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Address != nil {
		user.Address = *input.Address
	}
	if input.Role != nil {
		role, ok := model.ParseRole(*input.Role)
		if !ok {
			return nil, ErrInvalidRole
		}
		user.Role = role
	}
	if input.Password != nil {
		hashed, err := util.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	logger.Info("User updated by admin", map[string]interface{}{
		"admin_id": actor.ID,
		"user_id":  user.ID,
	})
	return user, nil
}

func (s *userService) Delete(actor authz.Actor, id uint) error {
	// non-admins are rejected before the lookup
	if err := authz.Decide(actor, authz.ActionDeleteUser, authz.Resource{}).Err(); err != nil {
		return err
	}

	if _, err := s.find(id); err != nil {
		return err
	}

	owned, err := s.storeRepo.CountByOwner(id)
	if err != nil {
		return err
	}
	if err := authz.Decide(actor, authz.ActionDeleteUser, authz.Resource{OwnedStores: owned}).Err(); err != nil {
		if errors.Is(err, authz.ErrConflict) {
			return ErrUserOwnsStores
		}
		return err
	}

	if err := s.userRepo.Delete(id); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserOwnsStores):
			return ErrUserOwnsStores
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrUserNotFound
		}
		return err
	}

	logger.Info("User deleted by admin", map[string]interface{}{
		"admin_id": actor.ID,
		"user_id":  id,
	})
	return nil
}

func (s *userService) find(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
