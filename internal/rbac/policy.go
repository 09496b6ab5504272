package rbac

import (
	"context"
	"slices"
	"strings"
)

// Policy answers permission questions for roles. A grant ending in "*"
// matches every permission with that prefix; "*" alone matches everything.
type Policy struct {
	grants map[string][]string
}

// NewPolicy flattens role inheritance. A nil map means DefaultRoles.
func NewPolicy(roles map[string]Role) *Policy {
	if roles == nil {
		roles = DefaultRoles
	}
	p := &Policy{grants: make(map[string][]string, len(roles))}
	for name := range roles {
		p.grants[name] = collect(roles, name, map[string]bool{}, nil)
	}
	return p
}

func collect(roles map[string]Role, name string, seen map[string]bool, out []string) []string {
	if seen[name] {
		return out
	}
	seen[name] = true
	r := roles[name]
	out = append(out, r.Grants...)
	for _, parent := range r.Inherits {
		out = collect(roles, parent, seen, out)
	}
	return out
}

func (p *Policy) Allows(role, perm string) bool {
	for _, g := range p.grants[role] {
		if g == perm {
			return true
		}
		if prefix, ok := strings.CutSuffix(g, "*"); ok && strings.HasPrefix(perm, prefix) {
			return true
		}
	}
	return false
}

func (p *Policy) AllowsAny(role string, perms ...string) bool {
	return slices.ContainsFunc(perms, func(perm string) bool { return p.Allows(role, perm) })
}

// Permissions lists the grants of role, inherited ones included, sorted.
func (p *Policy) Permissions(role string) []string {
	out := slices.Clone(p.grants[role])
	slices.Sort(out)
	return slices.Compact(out)
}

type roleKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}
