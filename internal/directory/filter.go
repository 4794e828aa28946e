package directory

import (
	"slices"

	"auditctl/internal/api"
)

// SupportedUsers keeps the users whose type can be audited.
func SupportedUsers(users []api.User) []api.User {
	var out []api.User
	for _, u := range users {
		if slices.Contains(api.SupportedUserTypes, u.Type) {
			out = append(out, u)
		}
	}
	return out
}

// SupportedGroups keeps the groups whose type can be audited.
func SupportedGroups(groups []api.Group) []api.Group {
	var out []api.Group
	for _, g := range groups {
		if slices.Contains(api.SupportedGroupTypes, g.Type) {
			out = append(out, g)
		}
	}
	return out
}

// UserAuditItems converts users to audit items.
func UserAuditItems(users []api.User) []api.AuditItem {
	items := make([]api.AuditItem, 0, len(users))
	for _, u := range users {
		items = append(items, api.AuditItemFromUser(u))
	}
	return items
}

// GroupAuditItems converts groups to audit items.
func GroupAuditItems(groups []api.Group) []api.AuditItem {
	items := make([]api.AuditItem, 0, len(groups))
	for _, g := range groups {
		items = append(items, api.AuditItemFromGroup(g))
	}
	return items
}

// FilterAuditItems returns the items of the given kind.
func FilterAuditItems(items []api.AuditItem, kind Kind) []api.AuditItem {
	var out []api.AuditItem
	for _, item := range items {
		if (kind == KindUsers && item.User != nil) || (kind == KindGroups && item.Group != nil) {
			out = append(out, item)
		}
	}
	return out
}
