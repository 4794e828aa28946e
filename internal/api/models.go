package api

import "strings"

// Organization is a Microsoft 365 organization registered with the service.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// User is a directory user of an organization.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Name        string `json:"name,omitempty"`
	Type        string `json:"type"`
}

// Group is a directory group of an organization.
type Group struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Name        string `json:"name,omitempty"`
	Type        string `json:"type"`
}

// UserPage is the paged answer of the Users endpoint.
// It is also the on-disk format of users.json.
type UserPage struct {
	Offset  int    `json:"offset"`
	Limit   int    `json:"limit"`
	Results []User `json:"results"`
}

// GroupPage is the paged answer of the Groups endpoint.
// It is also the on-disk format of groups.json.
type GroupPage struct {
	Offset  int     `json:"offset"`
	Limit   int     `json:"limit"`
	Results []Group `json:"results"`
}

// Audit item types.
const (
	AuditItemTypeUser  = "user"
	AuditItemTypeGroup = "group"
)

// AuditItem is a user or group whose mailbox access is audited.
// Exactly one of User and Group is set.
type AuditItem struct {
	ID    string `json:"id,omitempty"`
	Type  string `json:"type"`
	User  *User  `json:"user,omitempty"`
	Group *Group `json:"group,omitempty"`
}

// AuditItemFromUser builds the item that audits u.
func AuditItemFromUser(u User) AuditItem {
	return AuditItem{Type: AuditItemTypeUser, User: &u}
}

// AuditItemFromGroup builds the item that audits g.
func AuditItemFromGroup(g Group) AuditItem {
	return AuditItem{Type: AuditItemTypeGroup, Group: &g}
}

// DisplayName returns the name of the audited user or group.
func (a AuditItem) DisplayName() string {
	switch {
	case a.User != nil:
		return a.User.DisplayName
	case a.Group != nil:
		return a.Group.DisplayName
	default:
		return ""
	}
}

// ShortID returns the object id part of the audited user or group id.
// Directory ids look like "<org>:<kind>:<tenant>:<object>".
func (a AuditItem) ShortID() string {
	var id string
	switch {
	case a.User != nil:
		id = a.User.ID
	case a.Group != nil:
		id = a.Group.ID
	default:
		return ""
	}
	return ShortID(id)
}

// ShortID returns the fourth ':'-separated segment of id, or id itself when
// it has fewer segments.
func ShortID(id string) string {
	parts := strings.Split(id, ":")
	if len(parts) < 4 {
		return id
	}
	return parts[3]
}

// ItemIDs is the body of the audit item removal call.
type ItemIDs struct {
	ItemIDs []string `json:"itemIds"`
}

// SupportedUserTypes are the user types the service can audit.
var SupportedUserTypes = []string{"User", "Shared", "Public"}

// SupportedGroupTypes are the group types the service can audit.
var SupportedGroupTypes = []string{"Office365", "Security", "Distribution", "DynamicDistribution"}

// NotificationData is the body of the notification settings update.
type NotificationData struct {
	EnableNotification bool   `json:"enableNotification"`
	AuthenticationType string `json:"authenticationType"`
	UseAuthentication  bool   `json:"useAuthentication"`
	Username           string `json:"username"`
	UseSSL             bool   `json:"useSSL"`
	From               string `json:"from"`
	To                 string `json:"to"`
	Subject            string `json:"subject"`
	UserID             string `json:"userId"`
	RequestID          string `json:"requestId"`
}
