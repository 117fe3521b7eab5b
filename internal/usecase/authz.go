package usecase

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/google/uuid"

	"github.com/phenrril/gebeya/internal/domain"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// role-level permissions; ownership is checked by each use case.
var rolePolicies = [][]string{
	{"admin", "profile", "write"},
	{"admin", "product", "write"},
	{"admin", "promotion", "write"},
	{"admin", "order", "read"},
	{"admin", "order", "update_status"},
	{"admin", "order", "cancel"},
	{"admin", "payment", "verify"},
	{"admin", "tax", "write"},
	{"admin", "currency", "write"},

	{"seller", "profile", "write"},
	{"seller", "product", "write"},
	{"seller", "promotion", "write"},
	{"seller", "order", "read"},
	{"seller", "order", "update_status"},
	{"seller", "order", "cancel"},

	{"customer", "profile", "write"},
	{"customer", "order", "create"},
	{"customer", "order", "read"},
	{"customer", "order", "cancel"},
	{"customer", "payment", "initiate"},
}

type Authorizer struct {
	enforcer *casbin.Enforcer
}

func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	if _, err := e.AddPolicies(rolePolicies); err != nil {
		return nil, fmt.Errorf("rbac policies: %w", err)
	}
	return &Authorizer{enforcer: e}, nil
}

func (a *Authorizer) Can(actor domain.Actor, obj, act string) bool {
	ok, err := a.enforcer.Enforce(string(actor.Role), obj, act)
	return err == nil && ok
}

// Require fails with ErrUnauthorized for anonymous callers and ErrForbidden when the
// role lacks the permission.
func (a *Authorizer) Require(actor domain.Actor, obj, act string) error {
	if actor.ID == uuid.Nil {
		return domain.ErrUnauthorized
	}
	if !a.Can(actor, obj, act) {
		return fmt.Errorf("%w: %s cannot %s %s", domain.ErrForbidden, actor.Role, act, obj)
	}
	return nil
}
