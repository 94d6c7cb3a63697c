package identity

import (
	"context"
	"errors"
	"strings"

	"go-elms/internal/department"
	identityerrors "go-elms/internal/identity/errors"
	"go-elms/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ApproverContext is the identity an approval action runs under. ActorID is
// nil when the approver exists only as a role-only account with no
// first-class user record; ActorLabel is always populated so audit rows are
// never blank.
type ApproverContext struct {
	DepartmentID string
	ActorID      *uuid.UUID
	ActorLabel   string
}

//go:generate mockgen -source=resolver.go -destination=mock/resolver_mock.go -package=mock
type Resolver interface {
	// ResolveApproverContext maps an authenticated principal to the
	// department its approvals are scoped to. Pure lookup; never writes.
	ResolveApproverContext(ctx context.Context, email, role string) (ApproverContext, error)
}

type resolver struct {
	users   user.Repository
	codeMap department.CodeMap
	logger  *zap.Logger
}

func NewResolver(users user.Repository, codeMap department.CodeMap, logger ...*zap.Logger) Resolver {
	l := zap.L().Named("identity.resolver")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("identity.resolver")
	}
	return &resolver{users: users, codeMap: codeMap, logger: l}
}

func (r *resolver) ResolveApproverContext(ctx context.Context, email, role string) (ApproverContext, error) {
	if email == "" || !strings.Contains(email, "@") {
		return ApproverContext{}, identityerrors.ErrInvalidEmail
	}

	label := strings.ToLower(role) + ":" + email

	u, err := r.users.FindByEmailAndRole(ctx, email, role)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ApproverContext{}, err
	}

	if err == nil && u.DepartmentID != nil {
		actorID := u.ID
		return ApproverContext{
			DepartmentID: u.DepartmentID.String(),
			ActorID:      &actorID,
			ActorLabel:   label,
		}, nil
	}

	// Role-only account (or a record without a department column): derive
	// the department code from the email's local part.
	deptID, ok := r.codeMap.Lookup(DeriveDepartmentCode(email))
	if !ok {
		r.logger.Warn("unresolved department for approver",
			zap.String("email", email),
			zap.String("role", role),
			zap.String("code", DeriveDepartmentCode(email)),
		)
		return ApproverContext{}, identityerrors.ErrUnresolvedDepartment
	}

	acx := ApproverContext{
		DepartmentID: deptID,
		ActorLabel:   label,
	}
	if err == nil {
		// A first-class record exists even though its department had to be
		// derived; keep the reference so the write is still attributed.
		actorID := u.ID
		acx.ActorID = &actorID
	}
	return acx, nil
}

// DeriveDepartmentCode extracts the department code from an approver email:
// the local part before "@", cut at the first ".", upper-cased.
// "cse.hod@college.example" -> "CSE".
func DeriveDepartmentCode(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return ""
	}
	code, _, _ := strings.Cut(local, ".")
	return strings.ToUpper(code)
}
