package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Back-office pages a department can be granted.
const (
	PageOrders    = "orders"
	PageRooms     = "rooms"
	PageCustomers = "customers"
	PageAnalytics = "analytics"
	PageEmployees = "employees"
)

const adminRole = "role:admin"

const policyModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj)
`

func departmentRole(name string) string {
	return "dept:" + name
}

// newEnforcer builds an RBAC enforcer granting each department its pages and the admin everything.
func newEnforcer(departmentPages map[string][]string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("load policy model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	if _, err := e.AddPolicy(adminRole, "*"); err != nil {
		return nil, fmt.Errorf("grant admin: %w", err)
	}
	for dept, pages := range departmentPages {
		for _, page := range pages {
			if _, err := e.AddPolicy(departmentRole(dept), page); err != nil {
				return nil, fmt.Errorf("grant %s to %s: %w", page, dept, err)
			}
		}
	}
	return e, nil
}
