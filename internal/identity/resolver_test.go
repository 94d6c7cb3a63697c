package identity_test

import (
	"context"
	"database/sql"
	"testing"

	"go-elms/internal/department"
	"go-elms/internal/identity"
	identityerrors "go-elms/internal/identity/errors"
	"go-elms/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeUserRepository struct {
	user.Repository

	findByEmailAndRoleFn func(ctx context.Context, email, role string) (*user.User, error)
}

func (f *fakeUserRepository) WithTx(tx *sql.Tx) user.Repository { return f }

func (f *fakeUserRepository) FindByEmailAndRole(ctx context.Context, email, role string) (*user.User, error) {
	if f.findByEmailAndRoleFn != nil {
		return f.findByEmailAndRoleFn(ctx, email, role)
	}
	return nil, gorm.ErrRecordNotFound
}

func TestDeriveDepartmentCode(t *testing.T) {
	cases := []struct {
		email string
		want  string
	}{
		{"cse.hod@college.edu", "CSE"},
		{"ece.hod@college.edu", "ECE"},
		{"principal@college.edu", "PRINCIPAL"},
		{"csehod@college.edu", "CSEHOD"},
		{"no-at-sign", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, identity.DeriveDepartmentCode(c.email), c.email)
	}
}

func TestResolver_ResolveApproverContext(t *testing.T) {
	ctx := context.Background()
	cseDeptID := uuid.New()
	codeMap := department.CodeMap{"CSE": cseDeptID.String()}

	t.Run("first-class user with department wins", func(t *testing.T) {
		hodID := uuid.New()
		storedDept := uuid.New()
		users := &fakeUserRepository{
			findByEmailAndRoleFn: func(ctx context.Context, email, role string) (*user.User, error) {
				assert.Equal(t, user.RoleHOD, role)
				deptID := storedDept
				return &user.User{ID: hodID, Email: email, Role: role, DepartmentID: &deptID}, nil
			},
		}
		r := identity.NewResolver(users, codeMap)

		acx, err := r.ResolveApproverContext(ctx, "cse.hod@college.edu", user.RoleHOD)
		assert.NoError(t, err)
		// The stored department wins over the code derived from the email.
		assert.Equal(t, storedDept.String(), acx.DepartmentID)
		if assert.NotNil(t, acx.ActorID) {
			assert.Equal(t, hodID, *acx.ActorID)
		}
		assert.Equal(t, "hod:cse.hod@college.edu", acx.ActorLabel)
	})

	t.Run("role-only account derives department from email", func(t *testing.T) {
		r := identity.NewResolver(&fakeUserRepository{}, codeMap)

		acx, err := r.ResolveApproverContext(ctx, "cse.hod@college.edu", user.RoleHOD)
		assert.NoError(t, err)
		assert.Equal(t, cseDeptID.String(), acx.DepartmentID)
		assert.Nil(t, acx.ActorID)
		assert.Equal(t, "hod:cse.hod@college.edu", acx.ActorLabel)
	})

	t.Run("user without department keeps actor id with derived department", func(t *testing.T) {
		hodID := uuid.New()
		users := &fakeUserRepository{
			findByEmailAndRoleFn: func(ctx context.Context, email, role string) (*user.User, error) {
				return &user.User{ID: hodID, Email: email, Role: role}, nil
			},
		}
		r := identity.NewResolver(users, codeMap)

		acx, err := r.ResolveApproverContext(ctx, "cse.hod@college.edu", user.RoleHOD)
		assert.NoError(t, err)
		assert.Equal(t, cseDeptID.String(), acx.DepartmentID)
		if assert.NotNil(t, acx.ActorID) {
			assert.Equal(t, hodID, *acx.ActorID)
		}
	})

	t.Run("negative unmapped code", func(t *testing.T) {
		r := identity.NewResolver(&fakeUserRepository{}, codeMap)

		_, err := r.ResolveApproverContext(ctx, "mech.hod@college.edu", user.RoleHOD)
		assert.ErrorIs(t, err, identityerrors.ErrUnresolvedDepartment)
	})

	t.Run("negative invalid email", func(t *testing.T) {
		r := identity.NewResolver(&fakeUserRepository{}, codeMap)

		_, err := r.ResolveApproverContext(ctx, "not-an-email", user.RoleHOD)
		assert.ErrorIs(t, err, identityerrors.ErrInvalidEmail)
	})
}
