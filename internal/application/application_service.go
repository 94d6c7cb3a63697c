package application

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	applicationerrors "go-elms/internal/application/errors"
	"go-elms/internal/events"
	"go-elms/internal/identity"
	identityerrors "go-elms/internal/identity/errors"
	"go-elms/internal/ledger"
	ledgererrors "go-elms/internal/ledger/errors"
	"go-elms/internal/messaging/kafka"
	"go-elms/internal/shared/contextutil"
	"go-elms/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minReasonLength = 10

// ReservePolicy controls whether Submit debits the checked balance up front.
// CHECK_ONLY matches the classic behavior: the sufficiency check at submit is
// advisory and the debit happens at final approval, which leaves a window
// where two pending applications can both pass the check against the same
// balance. RESERVE closes that window by debiting at submit and crediting
// back on rejection or cancellation.
type ReservePolicy string

const (
	PolicyCheckOnly ReservePolicy = "CHECK_ONLY"
	PolicyReserve   ReservePolicy = "RESERVE"
)

//go:generate mockgen -source=application_service.go -destination=mock/application_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, requesterID string, req CreateApplicationRequest) (ApplicationResponse, error)
	Decide(ctx context.Context, actor Actor, id string, req DecisionRequest) (ApplicationResponse, error)
	Cancel(ctx context.Context, requesterID, id string) (ApplicationResponse, error)
	GetByID(ctx context.Context, id string) (ApplicationResponse, error)
	ListForRequester(ctx context.Context, requesterID string) ([]ApplicationResponse, error)
	ListApproverQueue(ctx context.Context, actor Actor) ([]ApplicationResponse, error)
	History(ctx context.Context, id string) ([]HistoryResponse, error)
}

type service struct {
	db         *sql.DB
	repo       Repository
	ledgerRepo ledger.Repository
	resolver   identity.Resolver
	outbox     kafka.OutboxRepository
	policy     ReservePolicy
	logger     *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	ledgerRepo ledger.Repository,
	resolver identity.Resolver,
	policy ReservePolicy,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithOutbox(db, repo, ledgerRepo, resolver, nil, policy, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	ledgerRepo ledger.Repository,
	resolver identity.Resolver,
	outboxRepo kafka.OutboxRepository,
	policy ReservePolicy,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("application.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("application.service")
	}
	if policy == "" {
		policy = PolicyCheckOnly
	}
	return &service{
		db:         db,
		repo:       repo,
		ledgerRepo: ledgerRepo,
		resolver:   resolver,
		outbox:     outboxRepo,
		policy:     policy,
		logger:     l,
	}
}

// allowedTransition is the whole state machine: forward only, no stage
// skipped, nothing defined on a terminal status.
func allowedTransition(current, target string) bool {
	switch current {
	case StatusPending:
		return target == StatusHODApproved || target == StatusRejected || target == StatusCancelled
	case StatusHODApproved:
		return target == StatusApproved || target == StatusRejected
	default:
		return false
	}
}

func (s *service) Submit(ctx context.Context, requesterID string, req CreateApplicationRequest) (ApplicationResponse, error) {
	s.logger.Debug("submit leave application requested",
		zap.String("requester_id", requesterID),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
		zap.Float64("days", req.Days),
	)

	requesterUUID, err := uuid.Parse(requesterID)
	if err != nil {
		return ApplicationResponse{}, applicationerrors.ErrInvalidRequesterID
	}
	leaveTypeUUID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return ApplicationResponse{}, applicationerrors.ErrInvalidLeaveTypeID
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return ApplicationResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return ApplicationResponse{}, err
	}
	if startDate.After(endDate) {
		return ApplicationResponse{}, applicationerrors.ErrInvalidDateRange
	}
	if req.Days <= 0 {
		return ApplicationResponse{}, applicationerrors.ErrInvalidDays
	}
	if len(strings.TrimSpace(req.Reason)) < minReasonLength {
		return ApplicationResponse{}, applicationerrors.ErrReasonTooShort
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit begin tx failed", zap.Error(err))
		return ApplicationResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	ledgerQtx := s.ledgerRepo.WithTx(tx)

	snap, err := qtx.FindRequesterSnapshot(ctx, requesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApplicationResponse{}, applicationerrors.ErrRequesterNotFound
		}
		return ApplicationResponse{}, err
	}
	if !snap.Active {
		return ApplicationResponse{}, applicationerrors.ErrRequesterInactive
	}
	if snap.DepartmentID == nil {
		return ApplicationResponse{}, applicationerrors.ErrRequesterNoDepartment
	}

	fiscalYear := ledger.FiscalYear(startDate)

	// Sufficiency gate. Under CHECK_ONLY the balance is not locked here;
	// the only actual decrement happens at final approval.
	b, err := ledgerQtx.Find(ctx, requesterID, req.LeaveTypeID, fiscalYear)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApplicationResponse{}, ledgererrors.ErrInsufficientBalance
		}
		return ApplicationResponse{}, err
	}
	if b.Balance < req.Days {
		s.logger.Warn("submit rejected for insufficient balance",
			zap.String("requester_id", requesterID),
			zap.String("leave_type_id", req.LeaveTypeID),
			zap.Float64("balance", b.Balance),
			zap.Float64("days", req.Days),
		)
		return ApplicationResponse{}, ledgererrors.ErrInsufficientBalance
	}

	if s.policy == PolicyReserve {
		ok, err := ledgerQtx.Debit(ctx, requesterID, req.LeaveTypeID, fiscalYear, req.Days)
		if err != nil {
			return ApplicationResponse{}, err
		}
		if !ok {
			return ApplicationResponse{}, ledgererrors.ErrInsufficientBalance
		}
	}

	a := &LeaveApplication{
		ID:           uuid.New(),
		RequesterID:  requesterUUID,
		DepartmentID: *snap.DepartmentID,
		LeaveTypeID:  leaveTypeUUID,
		StartDate:    startDate,
		EndDate:      endDate,
		TotalDays:    req.Days,
		FiscalYear:   fiscalYear,
		Reason:       req.Reason,
		Status:       StatusPending,
	}
	if err := qtx.Create(ctx, a); err != nil {
		s.logger.Error("submit persist failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	actedBy := requesterUUID
	if err := qtx.AppendHistory(ctx, &LeaveHistory{
		ID:            uuid.New(),
		ApplicationID: a.ID,
		Action:        ActionApplied,
		ActedBy:       &actedBy,
		ActorLabel:    "employee:" + snap.Email,
		FromStatus:    "",
		NewStatus:     StatusPending,
	}); err != nil {
		s.logger.Error("submit history append failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit commit failed", zap.Error(err))
		return ApplicationResponse{}, err
	}
	s.logger.Info("leave application submitted",
		zap.String("application_id", a.ID.String()),
		zap.String("requester_id", requesterID),
		zap.Int("fiscal_year", fiscalYear),
	)

	return mapToResponse(*a), nil
}

func (s *service) Decide(ctx context.Context, actor Actor, id string, req DecisionRequest) (ApplicationResponse, error) {
	s.logger.Debug("decide leave application requested",
		zap.String("application_id", id),
		zap.String("actor_email", actor.Email),
		zap.String("actor_role", actor.Role),
		zap.String("decision", req.Decision),
	)

	rejecting := req.Decision == DecisionReject
	var rejectionReason string
	if rejecting {
		if req.RejectionReason == nil || strings.TrimSpace(*req.RejectionReason) == "" {
			return ApplicationResponse{}, applicationerrors.ErrRejectionReasonRequired
		}
		rejectionReason = *req.RejectionReason
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide begin tx failed", zap.Error(err))
		return ApplicationResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	ledgerQtx := s.ledgerRepo.WithTx(tx)

	a, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApplicationResponse{}, applicationerrors.ErrApplicationNotFound
		}
		return ApplicationResponse{}, err
	}

	var (
		expectedStatus = a.Status
		action         string
		acx            identity.ApproverContext
		now            = time.Now().UTC()
	)

	switch actor.Role {
	case user.RoleHOD:
		if a.Status != StatusPending {
			return ApplicationResponse{}, applicationerrors.ErrInvalidStateTransition
		}
		acx, err = s.resolver.ResolveApproverContext(ctx, actor.Email, actor.Role)
		if err != nil {
			return ApplicationResponse{}, err
		}
		if acx.DepartmentID != a.DepartmentID.String() {
			s.logger.Warn("cross-department decide blocked",
				zap.String("application_id", id),
				zap.String("approver_department", acx.DepartmentID),
				zap.String("application_department", a.DepartmentID.String()),
			)
			return ApplicationResponse{}, applicationerrors.ErrCrossDepartmentForbidden
		}

		if rejecting {
			action = ActionRejected
			a.Status = StatusRejected
			a.RejectedBy = acx.ActorID
			a.RejectedAt = &now
			a.RejectionReason = &rejectionReason
		} else {
			action = ActionHODApproved
			a.Status = StatusHODApproved
			a.HODActedBy = acx.ActorID
			a.HODActedAt = &now
		}

	case user.RolePrincipal:
		if a.Status != StatusHODApproved {
			return ApplicationResponse{}, applicationerrors.ErrInvalidStateTransition
		}
		// Principals approve across departments; an unresolved department
		// only means there is no user record to attribute the action to.
		acx, err = s.resolver.ResolveApproverContext(ctx, actor.Email, actor.Role)
		if err != nil {
			if !errors.Is(err, identityerrors.ErrUnresolvedDepartment) {
				return ApplicationResponse{}, err
			}
			acx = identity.ApproverContext{
				ActorLabel: strings.ToLower(actor.Role) + ":" + actor.Email,
			}
		}

		if rejecting {
			action = ActionRejected
			a.Status = StatusRejected
			a.RejectedBy = acx.ActorID
			a.RejectedAt = &now
			a.RejectionReason = &rejectionReason
		} else {
			action = ActionApproved
			a.Status = StatusApproved
			a.PrincipalActedBy = acx.ActorID
			a.PrincipalActedAt = &now
		}

	default:
		return ApplicationResponse{}, applicationerrors.ErrForbidden
	}

	if !allowedTransition(expectedStatus, a.Status) {
		return ApplicationResponse{}, applicationerrors.ErrInvalidStateTransition
	}

	// Compare-and-set: a concurrent decide that already moved the status
	// matches zero rows here and the whole transaction rolls back.
	ok, err := qtx.UpdateStatusCAS(ctx, a, expectedStatus)
	if err != nil {
		s.logger.Error("decide persist failed",
			zap.String("application_id", id),
			zap.Error(err),
		)
		return ApplicationResponse{}, err
	}
	if !ok {
		s.logger.Warn("decide lost status race",
			zap.String("application_id", id),
			zap.String("expected_status", expectedStatus),
			zap.String("target_status", a.Status),
		)
		return ApplicationResponse{}, applicationerrors.ErrInvalidStateTransition
	}

	// The ledger only moves on the HOD_APPROVED -> APPROVED edge, inside
	// the same transaction as the status write. The CAS above makes that
	// edge single-shot, so the debit can never run twice.
	if a.Status == StatusApproved && s.policy != PolicyReserve {
		debited, err := ledgerQtx.Debit(ctx, a.RequesterID.String(), a.LeaveTypeID.String(), a.FiscalYear, a.TotalDays)
		if err != nil {
			return ApplicationResponse{}, err
		}
		if !debited {
			return ApplicationResponse{}, ledgererrors.ErrInsufficientBalance
		}
	}
	if a.Status == StatusRejected && s.policy == PolicyReserve {
		if _, err := ledgerQtx.Credit(ctx, a.RequesterID.String(), a.LeaveTypeID.String(), a.FiscalYear, a.TotalDays); err != nil {
			return ApplicationResponse{}, err
		}
	}

	if err := qtx.AppendHistory(ctx, &LeaveHistory{
		ID:            uuid.New(),
		ApplicationID: a.ID,
		Action:        action,
		ActedBy:       acx.ActorID,
		ActorLabel:    acx.ActorLabel,
		FromStatus:    expectedStatus,
		NewStatus:     a.Status,
		Comment:       rejectionReason,
	}); err != nil {
		s.logger.Error("decide history append failed", zap.Error(err))
		return ApplicationResponse{}, err
	}

	if Terminal(a.Status) {
		if err := s.emitDecided(ctx, tx, a, acx.ActorLabel); err != nil {
			return ApplicationResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide commit failed",
			zap.String("application_id", id),
			zap.Error(err),
		)
		return ApplicationResponse{}, err
	}
	s.logger.Info("leave application decided",
		zap.String("application_id", id),
		zap.String("status", a.Status),
		zap.String("actor", acx.ActorLabel),
	)
	return mapToResponse(*a), nil
}

func (s *service) Cancel(ctx context.Context, requesterID, id string) (ApplicationResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel begin tx failed", zap.Error(err))
		return ApplicationResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	ledgerQtx := s.ledgerRepo.WithTx(tx)

	a, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApplicationResponse{}, applicationerrors.ErrApplicationNotFound
		}
		return ApplicationResponse{}, err
	}
	if a.RequesterID.String() != requesterID {
		return ApplicationResponse{}, applicationerrors.ErrNotRequester
	}
	if a.Status != StatusPending {
		return ApplicationResponse{}, applicationerrors.ErrInvalidStateTransition
	}

	snap, err := qtx.FindRequesterSnapshot(ctx, requesterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApplicationResponse{}, applicationerrors.ErrRequesterNotFound
		}
		return ApplicationResponse{}, err
	}

	expectedStatus := a.Status
	a.Status = StatusCancelled

	if !allowedTransition(expectedStatus, a.Status) {
		return ApplicationResponse{}, applicationerrors.ErrInvalidStateTransition
	}

	ok, err := qtx.UpdateStatusCAS(ctx, a, expectedStatus)
	if err != nil {
		return ApplicationResponse{}, err
	}
	if !ok {
		return ApplicationResponse{}, applicationerrors.ErrInvalidStateTransition
	}

	if s.policy == PolicyReserve {
		if _, err := ledgerQtx.Credit(ctx, a.RequesterID.String(), a.LeaveTypeID.String(), a.FiscalYear, a.TotalDays); err != nil {
			return ApplicationResponse{}, err
		}
	}

	actedBy := a.RequesterID
	label := "employee:" + snap.Email
	if err := qtx.AppendHistory(ctx, &LeaveHistory{
		ID:            uuid.New(),
		ApplicationID: a.ID,
		Action:        ActionCancelled,
		ActedBy:       &actedBy,
		ActorLabel:    label,
		FromStatus:    expectedStatus,
		NewStatus:     StatusCancelled,
	}); err != nil {
		return ApplicationResponse{}, err
	}

	if err := s.emitDecided(ctx, tx, a, label); err != nil {
		return ApplicationResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel commit failed", zap.String("application_id", id), zap.Error(err))
		return ApplicationResponse{}, err
	}
	s.logger.Info("leave application cancelled",
		zap.String("application_id", id),
		zap.String("requester_id", requesterID),
	)
	return mapToResponse(*a), nil
}

func (s *service) emitDecided(ctx context.Context, tx *sql.Tx, a *LeaveApplication, actorLabel string) error {
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(events.LeaveDecided{
		ApplicationID:   a.ID.String(),
		RequesterID:     a.RequesterID.String(),
		LeaveTypeID:     a.LeaveTypeID.String(),
		Status:          a.Status,
		TotalDays:       a.TotalDays,
		FiscalYear:      a.FiscalYear,
		ActorLabel:      actorLabel,
		RejectionReason: a.RejectionReason,
		DecidedAt:       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_application",
		AggregateID:   a.ID.String(),
		EventType:     events.LeaveDecidedEventType,
		Topic:         events.LeaveDecisionsTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) GetByID(ctx context.Context, id string) (ApplicationResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApplicationResponse{}, applicationerrors.ErrApplicationNotFound
		}
		return ApplicationResponse{}, err
	}
	return mapToResponse(*a), nil
}

func (s *service) ListForRequester(ctx context.Context, requesterID string) ([]ApplicationResponse, error) {
	apps, err := s.repo.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(apps), nil
}

func (s *service) ListApproverQueue(ctx context.Context, actor Actor) ([]ApplicationResponse, error) {
	switch actor.Role {
	case user.RoleHOD:
		acx, err := s.resolver.ResolveApproverContext(ctx, actor.Email, actor.Role)
		if err != nil {
			return nil, err
		}
		apps, err := s.repo.ListByDepartmentAndStatus(ctx, acx.DepartmentID, StatusPending)
		if err != nil {
			return nil, err
		}
		return mapToListResponse(apps), nil
	case user.RolePrincipal:
		apps, err := s.repo.ListByStatus(ctx, StatusHODApproved)
		if err != nil {
			return nil, err
		}
		return mapToListResponse(apps), nil
	default:
		return nil, applicationerrors.ErrForbidden
	}
}

func (s *service) History(ctx context.Context, id string) ([]HistoryResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, applicationerrors.ErrApplicationNotFound
		}
		return nil, err
	}
	history, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := make([]HistoryResponse, len(history))
	for i, h := range history {
		resp[i] = mapHistoryToResponse(h)
	}
	return resp, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, applicationerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(a LeaveApplication) ApplicationResponse {
	resp := ApplicationResponse{
		ID:              a.ID.String(),
		RequesterID:     a.RequesterID.String(),
		DepartmentID:    a.DepartmentID.String(),
		LeaveTypeID:     a.LeaveTypeID.String(),
		StartDate:       a.StartDate.Format("2006-01-02"),
		EndDate:         a.EndDate.Format("2006-01-02"),
		TotalDays:       a.TotalDays,
		FiscalYear:      a.FiscalYear,
		Reason:          a.Reason,
		Status:          a.Status,
		RejectionReason: a.RejectionReason,
	}
	resp.HODActedBy = uuidString(a.HODActedBy)
	resp.HODActedAt = timeString(a.HODActedAt)
	resp.PrincipalActedBy = uuidString(a.PrincipalActedBy)
	resp.PrincipalActedAt = timeString(a.PrincipalActedAt)
	resp.RejectedBy = uuidString(a.RejectedBy)
	resp.RejectedAt = timeString(a.RejectedAt)
	return resp
}

func mapToListResponse(apps []LeaveApplication) []ApplicationResponse {
	resp := make([]ApplicationResponse, len(apps))
	for i, a := range apps {
		resp[i] = mapToResponse(a)
	}
	return resp
}

func mapHistoryToResponse(h LeaveHistory) HistoryResponse {
	return HistoryResponse{
		ID:            h.ID.String(),
		ApplicationID: h.ApplicationID.String(),
		Action:        h.Action,
		ActedBy:       uuidString(h.ActedBy),
		ActorLabel:    h.ActorLabel,
		FromStatus:    h.FromStatus,
		NewStatus:     h.NewStatus,
		Comment:       h.Comment,
		CreatedAt:     h.CreatedAt.Format(time.RFC3339),
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}

func timeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}
