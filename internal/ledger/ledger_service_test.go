package ledger_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"go-elms/internal/leavetype"
	"go-elms/internal/ledger"
	ledgererrors "go-elms/internal/ledger/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLedgerRepository struct {
	withTxFn                 func(tx *sql.Tx) ledger.Repository
	createFn                 func(ctx context.Context, b *ledger.Balance) error
	findByIDFn               func(ctx context.Context, id string) (*ledger.Balance, error)
	findFn                   func(ctx context.Context, userID, leaveTypeID string, year int) (*ledger.Balance, error)
	findAllByUserYearFn      func(ctx context.Context, userID string, year int) ([]ledger.Balance, error)
	updateBalanceFn          func(ctx context.Context, id string, balance float64) error
	debitFn                  func(ctx context.Context, userID, leaveTypeID string, year int, days float64) (bool, error)
	creditFn                 func(ctx context.Context, userID, leaveTypeID string, year int, days float64) (bool, error)
	upsertFixedFn            func(ctx context.Context, userID, leaveTypeID string, year int, amount float64) (bool, error)
	deleteFn                 func(ctx context.Context, id string) error
	hasActiveApplicationsFn  func(ctx context.Context, userID, leaveTypeID string, year int) (bool, error)
	findUserProfileFn        func(ctx context.Context, userID string) (*ledger.UserProfile, error)
	listActiveUserProfilesFn func(ctx context.Context) ([]ledger.UserProfile, error)
}

func (f *fakeLedgerRepository) WithTx(tx *sql.Tx) ledger.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLedgerRepository) Create(ctx context.Context, b *ledger.Balance) error {
	if f.createFn != nil {
		return f.createFn(ctx, b)
	}
	return nil
}

func (f *fakeLedgerRepository) FindByID(ctx context.Context, id string) (*ledger.Balance, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepository) Find(ctx context.Context, userID, leaveTypeID string, year int) (*ledger.Balance, error) {
	if f.findFn != nil {
		return f.findFn(ctx, userID, leaveTypeID, year)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepository) FindAllByUserYear(ctx context.Context, userID string, year int) ([]ledger.Balance, error) {
	if f.findAllByUserYearFn != nil {
		return f.findAllByUserYearFn(ctx, userID, year)
	}
	return nil, nil
}

func (f *fakeLedgerRepository) UpdateBalance(ctx context.Context, id string, balance float64) error {
	if f.updateBalanceFn != nil {
		return f.updateBalanceFn(ctx, id, balance)
	}
	return nil
}

func (f *fakeLedgerRepository) Debit(ctx context.Context, userID, leaveTypeID string, year int, days float64) (bool, error) {
	if f.debitFn != nil {
		return f.debitFn(ctx, userID, leaveTypeID, year, days)
	}
	return true, nil
}

func (f *fakeLedgerRepository) Credit(ctx context.Context, userID, leaveTypeID string, year int, days float64) (bool, error) {
	if f.creditFn != nil {
		return f.creditFn(ctx, userID, leaveTypeID, year, days)
	}
	return true, nil
}

func (f *fakeLedgerRepository) UpsertFixed(ctx context.Context, userID, leaveTypeID string, year int, amount float64) (bool, error) {
	if f.upsertFixedFn != nil {
		return f.upsertFixedFn(ctx, userID, leaveTypeID, year, amount)
	}
	return false, nil
}

func (f *fakeLedgerRepository) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeLedgerRepository) HasActiveApplications(ctx context.Context, userID, leaveTypeID string, year int) (bool, error) {
	if f.hasActiveApplicationsFn != nil {
		return f.hasActiveApplicationsFn(ctx, userID, leaveTypeID, year)
	}
	return false, nil
}

func (f *fakeLedgerRepository) FindUserProfile(ctx context.Context, userID string) (*ledger.UserProfile, error) {
	if f.findUserProfileFn != nil {
		return f.findUserProfileFn(ctx, userID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerRepository) ListActiveUserProfiles(ctx context.Context) ([]ledger.UserProfile, error) {
	if f.listActiveUserProfilesFn != nil {
		return f.listActiveUserProfilesFn(ctx)
	}
	return nil, nil
}

type fakeLeaveTypeRepository struct {
	leavetype.Repository

	findAllFn  func(ctx context.Context) ([]leavetype.LeaveType, error)
	findByIDFn func(ctx context.Context, id string) (*leavetype.LeaveType, error)
}

func (f *fakeLeaveTypeRepository) FindAll(ctx context.Context) ([]leavetype.LeaveType, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeLeaveTypeRepository) FindByID(ctx context.Context, id string) (*leavetype.LeaveType, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

type ledgerServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service ledger.Service
	repo    *fakeLedgerRepository
	types   *fakeLeaveTypeRepository
}

func setupLedgerServiceTest(t *testing.T) *ledgerServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLedgerRepository{}
	types := &fakeLeaveTypeRepository{}
	svc := ledger.NewService(db, repo, types)

	return &ledgerServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
		types:   types,
	}
}

func sampleTypes(casualID, maternityID, earnedID uuid.UUID) []leavetype.LeaveType {
	return []leavetype.LeaveType{
		{ID: casualID, Name: "Casual Leave", DefaultDays: 12, FixedAllocation: true},
		{ID: maternityID, Name: "Maternity Leave", DefaultDays: 90, RestrictedGender: "Female"},
		{ID: earnedID, Name: "Earned Leave", DefaultDays: 15},
	}
}

func TestLedgerService_GetOrInitialize(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	casualID := uuid.New()
	maternityID := uuid.New()
	earnedID := uuid.New()

	t.Run("returns existing rows without seeding", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.repo.findAllByUserYearFn = func(ctx context.Context, uid string, year int) ([]ledger.Balance, error) {
			return []ledger.Balance{{ID: uuid.New(), UserID: userID, LeaveTypeID: casualID, FiscalYear: 2026, Balance: 7}}, nil
		}
		deps.repo.createFn = func(ctx context.Context, b *ledger.Balance) error {
			t.Fatal("must not seed when rows exist")
			return nil
		}

		resp, err := deps.service.GetOrInitialize(ctx, userID.String(), 2026)
		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.Equal(t, 7.0, resp[0].Balance)
	})

	t.Run("seeds rows skipping gender-restricted types", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		deps.repo.findUserProfileFn = func(ctx context.Context, uid string) (*ledger.UserProfile, error) {
			return &ledger.UserProfile{ID: userID, Gender: "Male"}, nil
		}
		deps.types.findAllFn = func(ctx context.Context) ([]leavetype.LeaveType, error) {
			return sampleTypes(casualID, maternityID, earnedID), nil
		}

		var created []ledger.Balance
		deps.repo.createFn = func(ctx context.Context, b *ledger.Balance) error {
			created = append(created, *b)
			return nil
		}

		resp, err := deps.service.GetOrInitialize(ctx, userID.String(), 2026)
		assert.NoError(t, err)
		assert.Len(t, resp, 2)
		assert.Len(t, created, 2)
		for _, b := range created {
			assert.NotEqual(t, maternityID, b.LeaveTypeID)
		}
	})

	t.Run("seeds all types for female user", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		deps.repo.findUserProfileFn = func(ctx context.Context, uid string) (*ledger.UserProfile, error) {
			return &ledger.UserProfile{ID: userID, Gender: "Female"}, nil
		}
		deps.types.findAllFn = func(ctx context.Context) ([]leavetype.LeaveType, error) {
			return sampleTypes(casualID, maternityID, earnedID), nil
		}

		resp, err := deps.service.GetOrInitialize(ctx, userID.String(), 2026)
		assert.NoError(t, err)
		assert.Len(t, resp, 3)
	})

	t.Run("negative unknown user", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.repo.findUserProfileFn = func(ctx context.Context, uid string) (*ledger.UserProfile, error) {
			return nil, gorm.ErrRecordNotFound
		}

		_, err := deps.service.GetOrInitialize(ctx, userID.String(), 2026)
		assert.ErrorIs(t, err, ledgererrors.ErrUserNotFound)
	})

	t.Run("negative invalid user id", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetOrInitialize(ctx, "not-a-uuid", 2026)
		assert.ErrorIs(t, err, ledgererrors.ErrInvalidUserID)
	})

	t.Run("concurrent first access seeds once", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.MatchExpectationsInOrder(false)
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		deps.repo.findUserProfileFn = func(ctx context.Context, uid string) (*ledger.UserProfile, error) {
			return &ledger.UserProfile{ID: userID, Gender: "Female"}, nil
		}
		deps.types.findAllFn = func(ctx context.Context) ([]leavetype.LeaveType, error) {
			return sampleTypes(casualID, maternityID, earnedID), nil
		}

		var (
			mu      sync.Mutex
			creates int
			started = make(chan struct{})
			release = make(chan struct{})
			once    sync.Once
		)
		deps.repo.findAllByUserYearFn = func(ctx context.Context, uid string, year int) ([]ledger.Balance, error) {
			once.Do(func() { close(started) })
			<-release
			return nil, nil
		}
		deps.repo.createFn = func(ctx context.Context, b *ledger.Balance) error {
			mu.Lock()
			creates++
			mu.Unlock()
			return nil
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := deps.service.GetOrInitialize(ctx, userID.String(), 2026)
			assert.NoError(t, err)
		}()
		<-started
		go func() {
			defer wg.Done()
			_, err := deps.service.GetOrInitialize(ctx, userID.String(), 2026)
			assert.NoError(t, err)
		}()
		// Let the second caller reach the in-flight dedup before the first
		// one is released.
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, 3, creates)
	})
}

func TestLedgerService_AdminSet(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	casualID := uuid.New()
	maternityID := uuid.New()
	earnedID := uuid.New()

	t.Run("success", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.types.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return &leavetype.LeaveType{ID: earnedID, Name: "Earned Leave", DefaultDays: 15}, nil
		}
		balanceID := uuid.New()
		deps.repo.findFn = func(ctx context.Context, uid, tid string, year int) (*ledger.Balance, error) {
			return &ledger.Balance{ID: balanceID, UserID: userID, LeaveTypeID: earnedID, FiscalYear: 2026, Balance: 15}, nil
		}

		var setTo float64
		deps.repo.updateBalanceFn = func(ctx context.Context, id string, balance float64) error {
			assert.Equal(t, balanceID.String(), id)
			setTo = balance
			return nil
		}

		resp, err := deps.service.AdminSet(ctx, ledger.AdminSetBalanceRequest{
			UserID:      userID.String(),
			LeaveTypeID: earnedID.String(),
			FiscalYear:  2026,
			Balance:     20,
		})
		assert.NoError(t, err)
		assert.Equal(t, 20.0, setTo)
		assert.Equal(t, 20.0, resp.Balance)
	})

	t.Run("negative fixed allocation immutable", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.types.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return &leavetype.LeaveType{ID: casualID, Name: "Casual Leave", DefaultDays: 12, FixedAllocation: true}, nil
		}

		_, err := deps.service.AdminSet(ctx, ledger.AdminSetBalanceRequest{
			UserID:      userID.String(),
			LeaveTypeID: casualID.String(),
			FiscalYear:  2026,
			Balance:     20,
		})
		assert.ErrorIs(t, err, ledgererrors.ErrImmutableAllocation)
	})

	t.Run("negative gender restricted", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.types.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return &leavetype.LeaveType{ID: maternityID, Name: "Maternity Leave", DefaultDays: 90, RestrictedGender: "Female"}, nil
		}
		deps.repo.findUserProfileFn = func(ctx context.Context, uid string) (*ledger.UserProfile, error) {
			return &ledger.UserProfile{ID: userID, Gender: "Male"}, nil
		}

		_, err := deps.service.AdminSet(ctx, ledger.AdminSetBalanceRequest{
			UserID:      userID.String(),
			LeaveTypeID: maternityID.String(),
			FiscalYear:  2026,
			Balance:     90,
		})
		assert.ErrorIs(t, err, ledgererrors.ErrGenderRestricted)
	})

	t.Run("negative row missing", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.types.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return &leavetype.LeaveType{ID: earnedID, Name: "Earned Leave", DefaultDays: 15}, nil
		}

		_, err := deps.service.AdminSet(ctx, ledger.AdminSetBalanceRequest{
			UserID:      userID.String(),
			LeaveTypeID: earnedID.String(),
			FiscalYear:  2026,
			Balance:     20,
		})
		assert.ErrorIs(t, err, ledgererrors.ErrBalanceNotFound)
	})

	t.Run("negative balance rejected", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.AdminSet(ctx, ledger.AdminSetBalanceRequest{
			UserID:      userID.String(),
			LeaveTypeID: earnedID.String(),
			FiscalYear:  2026,
			Balance:     -1,
		})
		assert.ErrorIs(t, err, ledgererrors.ErrNegativeBalance)
	})
}

func TestLedgerService_Debit(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New().String()
	typeID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		err := deps.service.Debit(ctx, userID, typeID, 2026, 2)
		assert.NoError(t, err)
	})

	t.Run("negative guarded update matched no row", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.repo.debitFn = func(ctx context.Context, uid, tid string, year int, days float64) (bool, error) {
			return false, nil
		}

		err := deps.service.Debit(ctx, userID, typeID, 2026, 2)
		assert.ErrorIs(t, err, ledgererrors.ErrInsufficientBalance)
	})

	t.Run("negative zero days", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		err := deps.service.Debit(ctx, userID, typeID, 2026, 0)
		assert.ErrorIs(t, err, ledgererrors.ErrInvalidDays)
	})
}

func TestLedgerService_Delete(t *testing.T) {
	ctx := context.Background()
	balanceID := uuid.New()
	userID := uuid.New()
	earnedID := uuid.New()

	t.Run("success", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*ledger.Balance, error) {
			return &ledger.Balance{ID: balanceID, UserID: userID, LeaveTypeID: earnedID, FiscalYear: 2026}, nil
		}
		deps.types.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return &leavetype.LeaveType{ID: earnedID, Name: "Earned Leave", DefaultDays: 15}, nil
		}

		deleted := false
		deps.repo.deleteFn = func(ctx context.Context, id string) error {
			deleted = true
			return nil
		}

		assert.NoError(t, deps.service.Delete(ctx, balanceID.String()))
		assert.True(t, deleted)
	})

	t.Run("negative fixed allocation", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*ledger.Balance, error) {
			return &ledger.Balance{ID: balanceID, UserID: userID, LeaveTypeID: earnedID, FiscalYear: 2026}, nil
		}
		deps.types.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return &leavetype.LeaveType{ID: earnedID, Name: "Casual Leave", DefaultDays: 12, FixedAllocation: true}, nil
		}

		err := deps.service.Delete(ctx, balanceID.String())
		assert.ErrorIs(t, err, ledgererrors.ErrImmutableAllocation)
	})

	t.Run("negative active applications reference the row", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*ledger.Balance, error) {
			return &ledger.Balance{ID: balanceID, UserID: userID, LeaveTypeID: earnedID, FiscalYear: 2026}, nil
		}
		deps.types.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return &leavetype.LeaveType{ID: earnedID, Name: "Earned Leave", DefaultDays: 15}, nil
		}
		deps.repo.hasActiveApplicationsFn = func(ctx context.Context, uid, tid string, year int) (bool, error) {
			return true, nil
		}

		err := deps.service.Delete(ctx, balanceID.String())
		assert.ErrorIs(t, err, ledgererrors.ErrHasActiveApplications)
	})
}

func TestLedgerService_RenewFixedAllocation(t *testing.T) {
	ctx := context.Background()
	casualID := uuid.New()
	maternityID := uuid.New()
	earnedID := uuid.New()

	t.Run("renews fixed types only and survives per-user failures", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.types.findAllFn = func(ctx context.Context) ([]leavetype.LeaveType, error) {
			return sampleTypes(casualID, maternityID, earnedID), nil
		}

		brokenUser := uuid.New()
		deps.repo.listActiveUserProfilesFn = func(ctx context.Context) ([]ledger.UserProfile, error) {
			return []ledger.UserProfile{
				{ID: uuid.New(), Gender: "Male"},
				{ID: brokenUser, Gender: "Female"},
				{ID: uuid.New(), Gender: "Female"},
			}, nil
		}

		var upsertedTypes []string
		deps.repo.upsertFixedFn = func(ctx context.Context, uid, tid string, year int, amount float64) (bool, error) {
			assert.Equal(t, leavetype.FixedAllocationDays, amount)
			upsertedTypes = append(upsertedTypes, tid)
			if uid == brokenUser.String() {
				return false, errors.New("row locked")
			}
			return uid[0] < '8', nil
		}

		summary, err := deps.service.RenewFixedAllocation(ctx, 2027)
		assert.NoError(t, err)
		assert.Equal(t, 3, summary.TotalUsers)
		assert.Equal(t, 2, summary.CreatedCount+summary.RenewedCount)
		assert.Equal(t, 1, summary.SkippedCount)
		for _, tid := range upsertedTypes {
			assert.Equal(t, casualID.String(), tid)
		}
	})

	t.Run("second run renews in place and leaves balances at the fixed allocation", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		deps.types.findAllFn = func(ctx context.Context) ([]leavetype.LeaveType, error) {
			return sampleTypes(casualID, maternityID, earnedID), nil
		}
		users := []ledger.UserProfile{
			{ID: uuid.New(), Gender: "Male"},
			{ID: uuid.New(), Gender: "Female"},
			{ID: uuid.New(), Gender: "Female"},
		}
		deps.repo.listActiveUserProfilesFn = func(ctx context.Context) ([]ledger.UserProfile, error) {
			return users, nil
		}

		// Stateful upsert: the first pass creates rows, a re-run only resets.
		balances := map[string]float64{}
		deps.repo.upsertFixedFn = func(ctx context.Context, uid, tid string, year int, amount float64) (bool, error) {
			assert.Equal(t, leavetype.FixedAllocationDays, amount)
			key := uid + ":" + tid
			_, existed := balances[key]
			balances[key] = amount
			return !existed, nil
		}

		first, err := deps.service.RenewFixedAllocation(ctx, 2027)
		assert.NoError(t, err)
		assert.Equal(t, 3, first.CreatedCount)
		assert.Equal(t, 0, first.RenewedCount)

		second, err := deps.service.RenewFixedAllocation(ctx, 2027)
		assert.NoError(t, err)
		assert.Equal(t, 3, second.TotalUsers)
		assert.Equal(t, 3, second.RenewedCount)
		assert.Equal(t, 0, second.CreatedCount)
		assert.Equal(t, 0, second.SkippedCount)

		for _, balance := range balances {
			assert.Equal(t, leavetype.FixedAllocationDays, balance)
		}
	})

	t.Run("negative invalid year", func(t *testing.T) {
		deps := setupLedgerServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.RenewFixedAllocation(ctx, 0)
		assert.ErrorIs(t, err, ledgererrors.ErrInvalidYear)
	})
}
