package policies

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
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
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// Padrões de método ancorados: regexMatch casa substring. HEAD acompanha GET
// porque o ServeMux roteia os dois para o mesmo handler.
const (
	readOnly  = "^(GET|HEAD)$"
	readWrite = "^(GET|HEAD|POST)$"
	writeOnly = "^POST$"
)

// rolePolicies: admin herda tudo de professional.
var rolePolicies = [][]string{
	{"professional", "/languages", readWrite},
	{"professional", "/software", readWrite},
	{"professional", "/my-shifts", readOnly},
	{"professional", "/my-shifts/:id/:action", writeOnly},
	{"professional", "/profile", readWrite},
	{"professional", "/profile/*", readWrite},
	{"professional", "/events", readOnly},
	{"admin", "/admin", readOnly},
	{"admin", "/admin/*", readWrite},
}

// NewEnforcer builds the role enforcer from the in-code model and policies.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rbac model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}

	if _, err := e.AddPolicies(rolePolicies); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	if _, err := e.AddGroupingPolicy("admin", "professional"); err != nil {
		return nil, fmt.Errorf("failed to load role hierarchy: %w", err)
	}

	return e, nil
}
