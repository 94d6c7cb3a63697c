package application

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=application_repo.go -destination=mock/application_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, a *LeaveApplication) error
	FindByID(ctx context.Context, id string) (*LeaveApplication, error)
	ListByRequester(ctx context.Context, requesterID string) ([]LeaveApplication, error)
	ListByDepartmentAndStatus(ctx context.Context, departmentID, status string) ([]LeaveApplication, error)
	ListByStatus(ctx context.Context, status string) ([]LeaveApplication, error)
	// UpdateStatusCAS persists the application's mutated fields only if the
	// stored status still equals expectedStatus. Returns false when the
	// compare-and-set matched no row (a concurrent decide won).
	UpdateStatusCAS(ctx context.Context, a *LeaveApplication, expectedStatus string) (bool, error)
	AppendHistory(ctx context.Context, h *LeaveHistory) error
	ListHistory(ctx context.Context, applicationID string) ([]LeaveHistory, error)
	FindRequesterSnapshot(ctx context.Context, userID string) (*RequesterSnapshot, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository whose statements all execute on tx. The gorm
// session's ConnPool is pointed at the transaction, so the status write,
// ledger movement and history append commit or roll back together.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	session := r.db.Session(&gorm.Session{Context: r.db.Statement.Context, NewDB: true})
	session.Statement.ConnPool = tx
	return &repository{db: session}
}

func (r *repository) Create(ctx context.Context, a *LeaveApplication) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveApplication, error) {
	var a LeaveApplication
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	return &a, err
}

func (r *repository) ListByRequester(ctx context.Context, requesterID string) ([]LeaveApplication, error) {
	var apps []LeaveApplication
	err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

func (r *repository) ListByDepartmentAndStatus(ctx context.Context, departmentID, status string) ([]LeaveApplication, error) {
	var apps []LeaveApplication
	err := r.db.WithContext(ctx).
		Where("department_id = ?", departmentID).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&apps).Error
	return apps, err
}

func (r *repository) ListByStatus(ctx context.Context, status string) ([]LeaveApplication, error) {
	var apps []LeaveApplication
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&apps).Error
	return apps, err
}

func (r *repository) UpdateStatusCAS(ctx context.Context, a *LeaveApplication, expectedStatus string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&LeaveApplication{}).
		Where("id = ?", a.ID).
		Where("status = ?", expectedStatus).
		Updates(map[string]any{
			"status":             a.Status,
			"rejection_reason":   a.RejectionReason,
			"hod_acted_by":       a.HODActedBy,
			"hod_acted_at":       a.HODActedAt,
			"principal_acted_by": a.PrincipalActedBy,
			"principal_acted_at": a.PrincipalActedAt,
			"rejected_by":        a.RejectedBy,
			"rejected_at":        a.RejectedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) AppendHistory(ctx context.Context, h *LeaveHistory) error {
	return r.db.WithContext(ctx).Table("leave_history").Create(h).Error
}

func (r *repository) ListHistory(ctx context.Context, applicationID string) ([]LeaveHistory, error) {
	var history []LeaveHistory
	err := r.db.WithContext(ctx).Table("leave_history").
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&history).Error
	return history, err
}

func (r *repository) FindRequesterSnapshot(ctx context.Context, userID string) (*RequesterSnapshot, error) {
	var s RequesterSnapshot
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id", "email", "department_id", "active").
		Where("id = ?", userID).
		Where("deleted_at IS NULL").
		First(&s).Error
	return &s, err
}
