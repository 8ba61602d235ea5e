package rbac

import (
	"github.com/casbin/casbin/v2"
)

// NewEnforcer loads the RBAC model and the role-permission policy from disk.
// Permissions are (role, resource, action) triples; roles come from the auth
// token, so the enforcer holds no per-user state.
func NewEnforcer(modelPath, policyPath string) (*casbin.Enforcer, error) {
	return casbin.NewEnforcer(modelPath, policyPath)
}
