// Package policy decides which account holds the privileged identity.
// The rule is injected from configuration instead of being compiled into
// business logic.
package policy

import (
	"strings"

	"github.com/stagetrack-io/stagetrack/internal/modules/model"
)

type Policy struct {
	// PrivilegedEmail is the single account that is always Admin.
	PrivilegedEmail string
}

func New(privilegedEmail string) Policy {
	return Policy{PrivilegedEmail: privilegedEmail}
}

// IsPrivileged reports whether u is the configured privileged identity.
func (p Policy) IsPrivileged(u model.User) bool {
	return p.PrivilegedEmail != "" && strings.EqualFold(u.Email, p.PrivilegedEmail)
}

// EnforceRoles applies the role invariant in place: the privileged email is
// always Admin, every other account is coerced off Admin. Runs on every
// document load. Returns whether anything changed.
func (p Policy) EnforceRoles(users []model.User) bool {
	changed := false
	for i := range users {
		switch {
		case p.IsPrivileged(users[i]):
			if users[i].Role != model.RoleAdmin {
				users[i].Role = model.RoleAdmin
				changed = true
			}
		case users[i].Role == model.RoleAdmin:
			users[i].Role = model.RoleProjectManager
			changed = true
		}
	}
	return changed
}
