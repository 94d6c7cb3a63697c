package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go-elms/internal/leavetype"
	ledgererrors "go-elms/internal/ledger/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

//go:generate mockgen -source=ledger_service.go -destination=mock/ledger_service_mock.go -package=mock
type Service interface {
	// GetOrInitialize returns the user's balance rows for a year, lazily
	// seeding them per the allocation policy when none exist. Idempotent.
	GetOrInitialize(ctx context.Context, userID string, year int) ([]BalanceResponse, error)
	// CheckSufficient reports whether a balance row exists with at least
	// the requested days.
	CheckSufficient(ctx context.Context, userID, leaveTypeID string, year int, days float64) (bool, error)
	// Debit decrements a balance row; fails with ErrInsufficientBalance
	// when the guarded update matches no row.
	Debit(ctx context.Context, userID, leaveTypeID string, year int, days float64) error
	AdminSet(ctx context.Context, req AdminSetBalanceRequest) (BalanceResponse, error)
	Delete(ctx context.Context, balanceID string) error
	// RenewFixedAllocation sets every active user's fixed-type balances to
	// the fixed allocation for the year, creating rows as needed.
	RenewFixedAllocation(ctx context.Context, year int) (RenewalSummary, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	types  leavetype.Repository
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, types leavetype.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("ledger.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("ledger.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		types:  types,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) GetOrInitialize(ctx context.Context, userID string, year int) ([]BalanceResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ledgererrors.ErrInvalidUserID
	}
	if year <= 0 {
		return nil, ledgererrors.ErrInvalidYear
	}

	// Concurrent first accesses for the same user/year would race the lazy
	// seeding; collapse them into one flight.
	key := fmt.Sprintf("%s:%d", userID, year)
	v, err, _ := s.sf.Do(key, func() (any, error) {
		return s.getOrInitialize(ctx, userID, year)
	})
	if err != nil {
		return nil, err
	}
	return v.([]BalanceResponse), nil
}

func (s *service) getOrInitialize(ctx context.Context, userID string, year int) ([]BalanceResponse, error) {
	balances, err := s.repo.FindAllByUserYear(ctx, userID, year)
	if err != nil {
		return nil, err
	}
	if len(balances) > 0 {
		return mapToListResponse(balances), nil
	}

	profile, err := s.repo.FindUserProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledgererrors.ErrUserNotFound
		}
		return nil, err
	}

	types, err := s.types.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("initialize balances begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	created := make([]Balance, 0, len(types))
	for _, t := range types {
		if !t.AllocableTo(profile.Gender) {
			continue
		}
		b := Balance{
			ID:          uuid.New(),
			UserID:      profile.ID,
			LeaveTypeID: t.ID,
			FiscalYear:  year,
			Balance:     t.DefaultDays,
		}
		if err := qtx.Create(ctx, &b); err != nil {
			s.logger.Error("initialize balances persist failed",
				zap.String("user_id", userID),
				zap.String("leave_type_id", t.ID.String()),
				zap.Error(err),
			)
			return nil, err
		}
		created = append(created, b)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("initialize balances commit failed", zap.Error(err))
		return nil, err
	}
	s.logger.Info("balances initialized",
		zap.String("user_id", userID),
		zap.Int("year", year),
		zap.Int("rows", len(created)),
	)
	return mapToListResponse(created), nil
}

func (s *service) CheckSufficient(ctx context.Context, userID, leaveTypeID string, year int, days float64) (bool, error) {
	if days <= 0 {
		return false, ledgererrors.ErrInvalidDays
	}
	b, err := s.repo.Find(ctx, userID, leaveTypeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return b.Balance >= days, nil
}

func (s *service) Debit(ctx context.Context, userID, leaveTypeID string, year int, days float64) error {
	if days <= 0 {
		return ledgererrors.ErrInvalidDays
	}
	ok, err := s.repo.Debit(ctx, userID, leaveTypeID, year, days)
	if err != nil {
		s.logger.Error("debit failed",
			zap.String("user_id", userID),
			zap.String("leave_type_id", leaveTypeID),
			zap.Int("year", year),
			zap.Error(err),
		)
		return err
	}
	if !ok {
		return ledgererrors.ErrInsufficientBalance
	}
	s.logger.Info("balance debited",
		zap.String("user_id", userID),
		zap.String("leave_type_id", leaveTypeID),
		zap.Int("year", year),
		zap.Float64("days", days),
	)
	return nil
}

func (s *service) AdminSet(ctx context.Context, req AdminSetBalanceRequest) (BalanceResponse, error) {
	if req.Balance < 0 {
		return BalanceResponse{}, ledgererrors.ErrNegativeBalance
	}
	if req.FiscalYear <= 0 {
		return BalanceResponse{}, ledgererrors.ErrInvalidYear
	}

	t, err := s.types.FindByID(ctx, req.LeaveTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceResponse{}, ledgererrors.ErrInvalidLeaveTypeID
		}
		return BalanceResponse{}, err
	}
	if t.FixedAllocation {
		return BalanceResponse{}, ledgererrors.ErrImmutableAllocation
	}
	if t.Restricted() {
		profile, err := s.repo.FindUserProfile(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return BalanceResponse{}, ledgererrors.ErrUserNotFound
			}
			return BalanceResponse{}, err
		}
		if !t.AllocableTo(profile.Gender) {
			return BalanceResponse{}, ledgererrors.ErrGenderRestricted
		}
	}

	b, err := s.repo.Find(ctx, req.UserID, req.LeaveTypeID, req.FiscalYear)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceResponse{}, ledgererrors.ErrBalanceNotFound
		}
		return BalanceResponse{}, err
	}

	if err := s.repo.UpdateBalance(ctx, b.ID.String(), req.Balance); err != nil {
		s.logger.Error("admin set balance persist failed",
			zap.String("balance_id", b.ID.String()),
			zap.Error(err),
		)
		return BalanceResponse{}, err
	}
	b.Balance = req.Balance

	s.logger.Info("balance set by admin",
		zap.String("balance_id", b.ID.String()),
		zap.Float64("balance", req.Balance),
	)
	return mapToResponse(*b), nil
}

func (s *service) Delete(ctx context.Context, balanceID string) error {
	b, err := s.repo.FindByID(ctx, balanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledgererrors.ErrBalanceNotFound
		}
		return err
	}

	t, err := s.types.FindByID(ctx, b.LeaveTypeID.String())
	if err != nil {
		return err
	}
	if t.FixedAllocation {
		return ledgererrors.ErrImmutableAllocation
	}

	active, err := s.repo.HasActiveApplications(ctx, b.UserID.String(), b.LeaveTypeID.String(), b.FiscalYear)
	if err != nil {
		return err
	}
	if active {
		return ledgererrors.ErrHasActiveApplications
	}

	if err := s.repo.Delete(ctx, balanceID); err != nil {
		s.logger.Error("delete balance persist failed",
			zap.String("balance_id", balanceID),
			zap.Error(err),
		)
		return err
	}
	s.logger.Info("balance deleted", zap.String("balance_id", balanceID))
	return nil
}

func (s *service) RenewFixedAllocation(ctx context.Context, year int) (RenewalSummary, error) {
	if year <= 0 {
		return RenewalSummary{}, ledgererrors.ErrInvalidYear
	}

	types, err := s.types.FindAll(ctx)
	if err != nil {
		return RenewalSummary{}, err
	}
	fixed := make([]leavetype.LeaveType, 0, 1)
	for _, t := range types {
		if t.FixedAllocation {
			fixed = append(fixed, t)
		}
	}

	users, err := s.repo.ListActiveUserProfiles(ctx)
	if err != nil {
		return RenewalSummary{}, err
	}

	summary := RenewalSummary{TotalUsers: len(users)}
	// Each user is processed independently; one failure is logged and
	// counted, not fatal. Re-running the renewal repairs a partial pass.
	for _, u := range users {
		for _, t := range fixed {
			created, err := s.repo.UpsertFixed(ctx, u.ID.String(), t.ID.String(), year, leavetype.FixedAllocationDays)
			if err != nil {
				s.logger.Error("renew fixed allocation failed for user",
					zap.String("user_id", u.ID.String()),
					zap.String("leave_type_id", t.ID.String()),
					zap.Int("year", year),
					zap.Error(err),
				)
				summary.SkippedCount++
				continue
			}
			if created {
				summary.CreatedCount++
			} else {
				summary.RenewedCount++
			}
		}
	}

	s.logger.Info("fixed allocation renewed",
		zap.Int("year", year),
		zap.Int("total_users", summary.TotalUsers),
		zap.Int("renewed", summary.RenewedCount),
		zap.Int("created", summary.CreatedCount),
		zap.Int("skipped", summary.SkippedCount),
	)
	return summary, nil
}

func mapToResponse(b Balance) BalanceResponse {
	return BalanceResponse{
		ID:          b.ID.String(),
		UserID:      b.UserID.String(),
		LeaveTypeID: b.LeaveTypeID.String(),
		FiscalYear:  b.FiscalYear,
		Balance:     b.Balance,
	}
}

func mapToListResponse(balances []Balance) []BalanceResponse {
	resp := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = mapToResponse(b)
	}
	return resp
}
