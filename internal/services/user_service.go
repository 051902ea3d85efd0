package services

import (
	"context"
	"mime/multipart"

	"github.com/google/uuid"

	"trip/internal/models/db_models"
	"trip/internal/models/request_models"
	"trip/internal/repositories"
	"trip/pkg/utils"
)

type UserServiceInterface interface {
	UpdateMe(ctx context.Context, userID uuid.UUID, req request_models.UpdateMeRequest, photo *multipart.FileHeader) (*db_models.User, error)
	// DeleteMe deactivates the account; the row is kept.
	DeleteMe(ctx context.Context, userID uuid.UUID) error
}

type UserService struct {
	userRepo repositories.UserRepository
	images   ImageService
}

func NewUserService(userRepo repositories.UserRepository, images ImageService) UserServiceInterface {
	return &UserService{userRepo: userRepo, images: images}
}

func (s *UserService) UpdateMe(ctx context.Context, userID uuid.UUID, req request_models.UpdateMeRequest, photo *multipart.FileHeader) (*db_models.User, error) {
	if req.Password != "" || req.PasswordConfirm != "" {
		return nil, utils.ErrPasswordRoute
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if photo != nil {
		name, err := s.images.SaveUserPhoto(user.ID, photo)
		if err != nil {
			return nil, err
		}
		user.Photo = name
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) DeleteMe(ctx context.Context, userID uuid.UUID) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	user.Active = false
	return s.userRepo.Update(ctx, user)
}

func (s *UserService) load(ctx context.Context, userID uuid.UUID) (*db_models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.ErrUserGone
	}
	return user, nil
}
