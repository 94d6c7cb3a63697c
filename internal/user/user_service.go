package user

import (
	"context"
	"errors"

	"go-elms/internal/ledger"
	usererrors "go-elms/internal/user/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock
type Service interface {
	GetByID(ctx context.Context, id string) (UserResponse, error)
	// Approve activates a user and seeds their balances for the current
	// financial year.
	Approve(ctx context.Context, id string) (UserResponse, error)
}

type service struct {
	repo      Repository
	ledgerSvc ledger.Service
	logger    *zap.Logger
}

func NewService(repo Repository, ledgerSvc ledger.Service, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{repo: repo, ledgerSvc: ledgerSvc, logger: l}
}

func (s *service) GetByID(ctx context.Context, id string) (UserResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, usererrors.ErrUserNotFound
		}
		return UserResponse{}, err
	}
	return mapToResponse(*u), nil
}

func (s *service) Approve(ctx context.Context, id string) (UserResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, usererrors.ErrUserNotFound
		}
		return UserResponse{}, err
	}
	if u.Active {
		return UserResponse{}, usererrors.ErrAlreadyActive
	}

	if err := s.repo.SetActive(ctx, id, true); err != nil {
		s.logger.Error("approve user persist failed", zap.String("user_id", id), zap.Error(err))
		return UserResponse{}, err
	}
	u.Active = true

	// Seeding failure does not roll back the approval; renewal repairs
	// missing rows on its next run.
	year := ledger.CurrentFiscalYear()
	if _, err := s.ledgerSvc.GetOrInitialize(ctx, id, year); err != nil {
		s.logger.Error("approve user balance seeding failed",
			zap.String("user_id", id),
			zap.Int("year", year),
			zap.Error(err),
		)
	}

	s.logger.Info("user approved", zap.String("user_id", id))
	return mapToResponse(*u), nil
}

func mapToResponse(u User) UserResponse {
	resp := UserResponse{
		ID:       u.ID.String(),
		FullName: u.FullName,
		Email:    u.Email,
		Gender:   u.Gender,
		Role:     u.Role,
		Active:   u.Active,
	}
	if u.DepartmentID != nil {
		v := u.DepartmentID.String()
		resp.DepartmentID = &v
	}
	return resp
}
