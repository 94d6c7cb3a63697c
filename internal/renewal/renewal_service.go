package renewal

import (
	"context"
	"errors"

	"go-elms/internal/leavetype"
	"go-elms/internal/ledger"
	renewalerrors "go-elms/internal/renewal/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=renewal_service.go -destination=mock/renewal_service_mock.go -package=mock
type Service interface {
	// InitializeForYear seeds balance rows for every active user and every
	// allocable leave type for the given year. Existing variable-type rows
	// are left untouched; fixed-type rows are reset to the fixed allocation.
	InitializeForYear(ctx context.Context, year int) (ledger.RenewalSummary, error)
	// RenewCasualLeave resets only the fixed-allocation types for every
	// active user, the annual turn-of-year job.
	RenewCasualLeave(ctx context.Context, year int) (ledger.RenewalSummary, error)
}

type service struct {
	ledgerRepo    ledger.Repository
	ledgerSvc     ledger.Service
	leaveTypeRepo leavetype.Repository
	logger        *zap.Logger
}

func NewService(
	ledgerRepo ledger.Repository,
	ledgerSvc ledger.Service,
	leaveTypeRepo leavetype.Repository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("renewal.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("renewal.service")
	}
	return &service{
		ledgerRepo:    ledgerRepo,
		ledgerSvc:     ledgerSvc,
		leaveTypeRepo: leaveTypeRepo,
		logger:        l,
	}
}

func (s *service) InitializeForYear(ctx context.Context, year int) (ledger.RenewalSummary, error) {
	if year <= 0 {
		return ledger.RenewalSummary{}, renewalerrors.ErrInvalidYear
	}

	types, err := s.leaveTypeRepo.FindAll(ctx)
	if err != nil {
		return ledger.RenewalSummary{}, err
	}
	if len(types) == 0 {
		return ledger.RenewalSummary{}, renewalerrors.ErrNoLeaveTypes
	}

	profiles, err := s.ledgerRepo.ListActiveUserProfiles(ctx)
	if err != nil {
		return ledger.RenewalSummary{}, err
	}

	summary := ledger.RenewalSummary{TotalUsers: len(profiles)}
	for _, p := range profiles {
		created, renewed, err := s.initializeUser(ctx, p, types, year)
		if err != nil {
			// One broken user must not abort the whole bulk run.
			s.logger.Error("initialize skipped user",
				zap.String("user_id", p.ID.String()),
				zap.Int("year", year),
				zap.Error(err),
			)
			summary.SkippedCount++
			continue
		}
		summary.CreatedCount += created
		summary.RenewedCount += renewed
	}

	s.logger.Info("year initialization finished",
		zap.Int("year", year),
		zap.Int("total_users", summary.TotalUsers),
		zap.Int("created", summary.CreatedCount),
		zap.Int("renewed", summary.RenewedCount),
		zap.Int("skipped", summary.SkippedCount),
	)
	return summary, nil
}

func (s *service) initializeUser(ctx context.Context, p ledger.UserProfile, types []leavetype.LeaveType, year int) (created, renewed int, err error) {
	for _, t := range types {
		if !t.AllocableTo(p.Gender) {
			continue
		}

		if t.FixedAllocation {
			inserted, err := s.ledgerRepo.UpsertFixed(ctx, p.ID.String(), t.ID.String(), year, leavetype.FixedAllocationDays)
			if err != nil {
				return created, renewed, err
			}
			if inserted {
				created++
			} else {
				renewed++
			}
			continue
		}

		// Variable types are create-if-absent: an admin-set balance for the
		// year survives re-running the initialization.
		_, err := s.ledgerRepo.Find(ctx, p.ID.String(), t.ID.String(), year)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, renewed, err
		}
		if err := s.ledgerRepo.Create(ctx, &ledger.Balance{
			ID:          uuid.New(),
			UserID:      p.ID,
			LeaveTypeID: t.ID,
			FiscalYear:  year,
			Balance:     t.DefaultDays,
		}); err != nil {
			return created, renewed, err
		}
		created++
	}
	return created, renewed, nil
}

func (s *service) RenewCasualLeave(ctx context.Context, year int) (ledger.RenewalSummary, error) {
	if year <= 0 {
		return ledger.RenewalSummary{}, renewalerrors.ErrInvalidYear
	}
	return s.ledgerSvc.RenewFixedAllocation(ctx, year)
}
