package models

import "time"

type ActivityMessage struct {
	UserID      string            `json:"user_id"`
	SessionID   string            `json:"session_id"`
	ServiceName string            `json:"service_name"`
	Action      string            `json:"action"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Activity action constants
const (
	ActionLogin            = "login"
	ActionLogout           = "logout"
	ActionSessionWarning   = "session_warning"
	ActionSessionTimeout   = "session_timeout"
	ActionForcedLogout     = "forced_logout"
	ActionOfficialCreate   = "official_create"
	ActionOfficialUpdate   = "official_update"
	ActionOfficialDelete   = "official_delete"
	ActionReassignment     = "hierarchy_reassignment"
	ActionSupervisorChange = "supervisor_change"
	ActionActingAssign     = "acting_assign"
	ActionActingRemove     = "acting_remove"
)

// Service name constants
const (
	ServiceSession   = "admin.session"
	ServiceHierarchy = "admin.hierarchy"
	ServiceEmployee  = "admin.employee"
)
