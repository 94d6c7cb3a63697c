package leavetype

import (
	"context"
	"errors"

	leavetypeerrors "go-elms/internal/leavetype/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leavetype_service.go -destination=mock/leavetype_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateLeaveTypeRequest) (LeaveTypeResponse, error)
	GetAll(ctx context.Context) ([]LeaveTypeResponse, error)
	GetByID(ctx context.Context, id string) (LeaveTypeResponse, error)
	Update(ctx context.Context, id string, req UpdateLeaveTypeRequest) (LeaveTypeResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavetype.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavetype.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Create(ctx context.Context, req CreateLeaveTypeRequest) (LeaveTypeResponse, error) {
	if req.DefaultDays < 0 {
		return LeaveTypeResponse{}, leavetypeerrors.ErrInvalidDefaultDays
	}

	if existing, err := s.repo.FindByName(ctx, req.Name); err == nil && existing != nil {
		return LeaveTypeResponse{}, leavetypeerrors.ErrDuplicateName
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return LeaveTypeResponse{}, err
	}

	days := req.DefaultDays
	if req.FixedAllocation {
		days = FixedAllocationDays
	}

	t := &LeaveType{
		ID:               uuid.New(),
		Name:             req.Name,
		DefaultDays:      days,
		FixedAllocation:  req.FixedAllocation,
		RestrictedGender: req.RestrictedGender,
		Description:      req.Description,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		s.logger.Error("create leave type persist failed", zap.Error(err))
		return LeaveTypeResponse{}, err
	}

	s.logger.Info("leave type created",
		zap.String("leave_type_id", t.ID.String()),
		zap.String("name", t.Name),
		zap.Bool("fixed_allocation", t.FixedAllocation),
	)
	return mapToResponse(*t), nil
}

func (s *service) GetAll(ctx context.Context) ([]LeaveTypeResponse, error) {
	types, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]LeaveTypeResponse, len(types))
	for i, t := range types {
		resp[i] = mapToResponse(t)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveTypeResponse, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveTypeResponse{}, leavetypeerrors.ErrLeaveTypeNotFound
		}
		return LeaveTypeResponse{}, err
	}
	return mapToResponse(*t), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateLeaveTypeRequest) (LeaveTypeResponse, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveTypeResponse{}, leavetypeerrors.ErrLeaveTypeNotFound
		}
		return LeaveTypeResponse{}, err
	}

	if t.FixedAllocation && req.DefaultDays != t.DefaultDays {
		return LeaveTypeResponse{}, leavetypeerrors.ErrFixedDaysImmutable
	}

	t.Name = req.Name
	t.DefaultDays = req.DefaultDays
	t.RestrictedGender = req.RestrictedGender
	t.Description = req.Description

	if err := s.repo.Update(ctx, t); err != nil {
		s.logger.Error("update leave type persist failed",
			zap.String("leave_type_id", id),
			zap.Error(err),
		)
		return LeaveTypeResponse{}, err
	}
	return mapToResponse(*t), nil
}

func mapToResponse(t LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		ID:               t.ID.String(),
		Name:             t.Name,
		DefaultDays:      t.DefaultDays,
		FixedAllocation:  t.FixedAllocation,
		RestrictedGender: t.RestrictedGender,
		Description:      t.Description,
	}
}
