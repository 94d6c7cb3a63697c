package ledger

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=ledger_repo.go -destination=mock/ledger_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, b *Balance) error
	FindByID(ctx context.Context, id string) (*Balance, error)
	Find(ctx context.Context, userID, leaveTypeID string, year int) (*Balance, error)
	FindAllByUserYear(ctx context.Context, userID string, year int) ([]Balance, error)
	UpdateBalance(ctx context.Context, id string, balance float64) error
	// Debit atomically decrements a row, guarded so the balance can never go
	// negative. Returns false when no row matched (missing row or
	// insufficient balance).
	Debit(ctx context.Context, userID, leaveTypeID string, year int, days float64) (bool, error)
	// Credit atomically increments a row (reserve-policy refunds).
	Credit(ctx context.Context, userID, leaveTypeID string, year int, days float64) (bool, error)
	// UpsertFixed sets a row to the fixed allocation, creating it if absent.
	// Returns true when the row was created.
	UpsertFixed(ctx context.Context, userID, leaveTypeID string, year int, amount float64) (bool, error)
	Delete(ctx context.Context, id string) error
	// HasActiveApplications reports whether any non-terminal application
	// references this user/type/year.
	HasActiveApplications(ctx context.Context, userID, leaveTypeID string, year int) (bool, error)
	FindUserProfile(ctx context.Context, userID string) (*UserProfile, error)
	ListActiveUserProfiles(ctx context.Context) ([]UserProfile, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a repository whose statements all execute on tx, so a debit
// issued next to a status write shares that write's transaction.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	session := r.db.Session(&gorm.Session{Context: r.db.Statement.Context, NewDB: true})
	session.Statement.ConnPool = tx
	return &repository{db: session}
}

func (r *repository) Create(ctx context.Context, b *Balance) error {
	return r.db.WithContext(ctx).Table("leave_balances").Create(b).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Balance, error) {
	var b Balance
	err := r.db.WithContext(ctx).Table("leave_balances").
		First(&b, "id = ?", id).Error
	return &b, err
}

func (r *repository) Find(ctx context.Context, userID, leaveTypeID string, year int) (*Balance, error) {
	var b Balance
	err := r.db.WithContext(ctx).Table("leave_balances").
		Where("user_id = ?", userID).
		Where("leave_type_id = ?", leaveTypeID).
		Where("fiscal_year = ?", year).
		First(&b).Error
	return &b, err
}

func (r *repository) FindAllByUserYear(ctx context.Context, userID string, year int) ([]Balance, error) {
	var balances []Balance
	err := r.db.WithContext(ctx).Table("leave_balances").
		Where("user_id = ?", userID).
		Where("fiscal_year = ?", year).
		Order("created_at ASC").
		Find(&balances).Error
	return balances, err
}

func (r *repository) UpdateBalance(ctx context.Context, id string, balance float64) error {
	return r.db.WithContext(ctx).Table("leave_balances").
		Where("id = ?", id).
		Update("balance", balance).Error
}

func (r *repository) Debit(ctx context.Context, userID, leaveTypeID string, year int, days float64) (bool, error) {
	// Single conditional UPDATE so concurrent debits against the same row
	// serialize on the row lock and can never drive the balance negative.
	res := r.db.WithContext(ctx).Exec(`
		UPDATE leave_balances
		SET balance = balance - ?, updated_at = now()
		WHERE user_id = ? AND leave_type_id = ? AND fiscal_year = ? AND balance >= ?
	`, days, userID, leaveTypeID, year, days)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Credit(ctx context.Context, userID, leaveTypeID string, year int, days float64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE leave_balances
		SET balance = balance + ?, updated_at = now()
		WHERE user_id = ? AND leave_type_id = ? AND fiscal_year = ?
	`, days, userID, leaveTypeID, year)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpsertFixed(ctx context.Context, userID, leaveTypeID string, year int, amount float64) (bool, error) {
	// Atomic UPSERT; xmax = 0 distinguishes a fresh insert from an update.
	var inserted bool
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO leave_balances (id, user_id, leave_type_id, fiscal_year, balance, created_at, updated_at)
		VALUES (gen_random_uuid(), ?, ?, ?, ?, now(), now())
		ON CONFLICT (user_id, leave_type_id, fiscal_year) DO UPDATE
		SET balance = EXCLUDED.balance, updated_at = now()
		RETURNING (xmax = 0) AS inserted
	`, userID, leaveTypeID, year, amount).Scan(&inserted).Error
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Exec(`DELETE FROM leave_balances WHERE id = ?`, id).Error
}

func (r *repository) HasActiveApplications(ctx context.Context, userID, leaveTypeID string, year int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("leave_applications").
		Where("requester_id = ?", userID).
		Where("leave_type_id = ?", leaveTypeID).
		Where("fiscal_year = ?", year).
		Where("status IN ?", []string{"PENDING", "HOD_APPROVED"}).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindUserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	var p UserProfile
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id", "gender").
		Where("id = ?", userID).
		Where("deleted_at IS NULL").
		First(&p).Error
	return &p, err
}

func (r *repository) ListActiveUserProfiles(ctx context.Context) ([]UserProfile, error) {
	var profiles []UserProfile
	err := r.db.WithContext(ctx).
		Table("users").
		Select("id", "gender").
		Where("active = ?", true).
		Where("deleted_at IS NULL").
		Order("created_at ASC").
		Find(&profiles).Error
	return profiles, err
}
