// Package roles matches namespaced role strings against rule tables.
package roles

import "strings"

// Mode selects how a Rule's target is compared to a role string.
type Mode int

const (
	// Exact requires the role to equal the target.
	Exact Mode = iota

	// Suffix accepts the target itself or any role ending in "." + target,
	// so "Foo.Product.Goal" matches "Product.Goal".
	Suffix

	// Contains is a case-insensitive substring match.
	Contains

	// EndsWith is a case-insensitive plain suffix match.
	EndsWith
)

// Rule maps roles matching Target under Mode to Section.
type Rule struct {
	Target  string
	Mode    Mode
	Section string
}

// Matches reports whether a single role string satisfies the rule.
func (r Rule) Matches(role string) bool {
	switch r.Mode {
	case Exact:
		return role == r.Target
	case Suffix:
		return role == r.Target || strings.HasSuffix(role, "."+r.Target)
	case Contains:
		return strings.Contains(strings.ToLower(role), strings.ToLower(r.Target))
	case EndsWith:
		return strings.HasSuffix(strings.ToLower(role), strings.ToLower(r.Target))
	default:
		return false
	}
}

// MatchesAny reports whether any of the roles satisfies the rule.
func (r Rule) MatchesAny(roles []string) bool {
	for _, role := range roles {
		if r.Matches(role) {
			return true
		}
	}
	return false
}

// First returns the section of the first rule, in table order, matched by
// any of the roles.
func First(table []Rule, roles []string) (string, bool) {
	for _, r := range table {
		if r.MatchesAny(roles) {
			return r.Section, true
		}
	}
	return "", false
}

// All returns the distinct sections of every rule matched by any of the
// roles, in table order.
func All(table []Rule, roles []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, r := range table {
		if _, ok := seen[r.Section]; ok {
			continue
		}
		if r.MatchesAny(roles) {
			seen[r.Section] = struct{}{}
			out = append(out, r.Section)
		}
	}
	return out
}
