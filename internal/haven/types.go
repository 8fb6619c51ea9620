package haven

import "encoding/json"

// Role values Haven assigns to sessions. An empty role means no
// authentication is in effect.
const (
	RoleAdmin   = "admin"
	RoleVisitor = "visitor"
)

// AuthConfig mirrors /api/auth/config.
type AuthConfig struct {
	LoginRequired bool `json:"loginRequired"`
}

// SessionInfo mirrors /api/auth/session. Haven has renamed the role field
// twice across releases, so all three spellings are accepted.
type SessionInfo struct {
	Role        string `json:"role"`
	UserRole    string `json:"userRole"`
	AccessLevel string `json:"accessLevel"`
}

// ResolvedRole returns the role using the current field first and the legacy
// spellings as fallbacks.
func (s SessionInfo) ResolvedRole() string {
	if s.Role != "" {
		return s.Role
	}
	if s.UserRole != "" {
		return s.UserRole
	}
	return s.AccessLevel
}

// Video describes a library entry in transport-friendly form.
type Video struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Duration    float64         `json:"duration"`
	Rating      int             `json:"rating"`
	Views       int64           `json:"views"`
	Progress    float64         `json:"progress"`
	Status      string          `json:"status"`
	AddedAt     string          `json:"addedAt"`
	Metadata    json.RawMessage `json:"metadata"`
}

// LibraryPage mirrors /api/videos.
type LibraryPage struct {
	Videos []Video `json:"videos"`
	Total  int     `json:"total"`
}

// LibraryStats mirrors /api/stats.
type LibraryStats struct {
	Videos       int     `json:"videos"`
	TotalHours   float64 `json:"totalHours"`
	WatchedToday int     `json:"watchedToday"`
}

// QueueStatus mirrors /api/queue/status: the download/transcode queue the
// poller watches to decide its cadence.
type QueueStatus struct {
	Active int        `json:"active"`
	Queued int        `json:"queued"`
	Tasks  []TaskInfo `json:"tasks"`
}

// TaskInfo describes one queue task.
type TaskInfo struct {
	ID       int64   `json:"id"`
	Kind     string  `json:"kind"`
	State    string  `json:"state"`
	Progress float64 `json:"progress"`
	Detail   string  `json:"detail"`
}

// HasLiveWork reports whether any task is currently executing.
func (q QueueStatus) HasLiveWork() bool { return q.Active > 0 }

// VerifyOK is the success arm of Haven's credential verification endpoints.
// The failure arm never reaches callers as a payload: the transport
// classifies {success:false,...} bodies into apperr values.
type VerifyOK struct {
	Role string `json:"role"`
}

// CreateVideoRequest is the body for POST /api/videos.
type CreateVideoRequest struct {
	Title     string   `json:"title"`
	SourceURL string   `json:"sourceUrl"`
	Tags      []string `json:"tags,omitempty"`
}

// UpdateVideoRequest is the body for PUT /api/videos/{id}. Nil fields are
// omitted so the server keeps their current values.
type UpdateVideoRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}
