package rbac

import (
	"errors"
	"slices"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// ErrEmptyHierarchy is returned when no role is given.
var ErrEmptyHierarchy = errors.New("rbac: role hierarchy is empty")

type Policy struct {
	Role   string
	Object string
	Action string
}

// Authorizer answers role checks against an in-memory policy set.
type Authorizer struct {
	e     *casbin.Enforcer
	roles []string
}

// New builds an Authorizer. hierarchy is ordered from lowest to highest
// privilege; each role inherits the one before it.
func New(hierarchy []string, policies []Policy) (*Authorizer, error) {
	if len(hierarchy) == 0 {
		return nil, ErrEmptyHierarchy
	}

	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for i := 1; i < len(hierarchy); i++ {
		if _, err := e.AddGroupingPolicy(hierarchy[i], hierarchy[i-1]); err != nil {
			return nil, err
		}
	}

	for _, p := range policies {
		if _, err := e.AddPolicy(p.Role, p.Object, p.Action); err != nil {
			return nil, err
		}
	}

	return &Authorizer{e: e, roles: slices.Clone(hierarchy)}, nil
}

// Enforce reports whether role may perform act on obj.
func (a *Authorizer) Enforce(role, obj, act string) (bool, error) {
	return a.e.Enforce(role, obj, act)
}

// AtLeast reports whether role is floor or inherits from it.
func (a *Authorizer) AtLeast(role, floor string) bool {
	if role == floor {
		return true
	}

	inherited, err := a.e.GetImplicitRolesForUser(role)
	if err != nil {
		return false
	}

	return slices.Contains(inherited, floor)
}

// RolesAtLeast lists every known role that is floor or above it, in hierarchy order.
func (a *Authorizer) RolesAtLeast(floor string) []string {
	out := make([]string, 0, len(a.roles))
	for _, r := range a.roles {
		if a.AtLeast(r, floor) {
			out = append(out, r)
		}
	}

	return out
}

func (a *Authorizer) Roles() []string {
	return slices.Clone(a.roles)
}
