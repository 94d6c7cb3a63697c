package rbac

import (
	"sync"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"
)

// The role set is fixed, so the model and policies ship with the binary
// instead of living in a database.
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && (r.act == p.act || p.act == "*")
`

type EnforceRequest struct {
	Role     string
	Resource string
	Action   string
}

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(req EnforceRequest) (bool, error)
}

type service struct {
	enforcer *casbin.Enforcer
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewService(logger ...*zap.Logger) (Service, error) {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}

	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}

	return &service{enforcer: enforcer, logger: l}, nil
}

func seedPolicies(e *casbin.Enforcer) error {
	policies := [][]string{
		{"EMPLOYEE", "leave", "submit"},
		{"EMPLOYEE", "leave", "read"},
		{"EMPLOYEE", "balance", "read"},
		{"EMPLOYEE", "leave_type", "read"},

		{"HOD", "leave", "decide"},
		{"PRINCIPAL", "leave", "decide"},

		{"ADMIN", "balance", "manage"},
		{"ADMIN", "leave_type", "manage"},
		{"ADMIN", "renewal", "run"},
		{"ADMIN", "user", "manage"},

		{"SUPERADMIN", "leave", "*"},
		{"SUPERADMIN", "balance", "*"},
		{"SUPERADMIN", "leave_type", "*"},
		{"SUPERADMIN", "renewal", "*"},
		{"SUPERADMIN", "user", "*"},
	}
	for _, p := range policies {
		if _, err := e.AddPolicy(p[0], p[1], p[2]); err != nil {
			return err
		}
	}

	// Approvers and admins inherit the employee surface so they can file
	// and read their own leaves.
	groupings := [][]string{
		{"HOD", "EMPLOYEE"},
		{"PRINCIPAL", "EMPLOYEE"},
		{"ADMIN", "EMPLOYEE"},
	}
	for _, g := range groupings {
		if _, err := e.AddGroupingPolicy(g[0], g[1]); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Enforce(req EnforceRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed, err := s.enforcer.Enforce(req.Role, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("enforce failed",
			zap.String("role", req.Role),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("enforce result",
		zap.String("role", req.Role),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}
