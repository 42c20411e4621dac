// Package client provides the WebSocket event stream and REST gateway for
// the lost-and-found admin API. Types mirror the backend wire protocol.
package client

// ReportStatus is the triage state of a report.
type ReportStatus string

const (
	StatusPending    ReportStatus = "pending"
	StatusMatchFound ReportStatus = "match_found"
	StatusClosed     ReportStatus = "closed"
)

// Next returns the status an administrator may advance s to, or false
// when s is terminal. The server only accepts pending→match_found→closed.
func (s ReportStatus) Next() (ReportStatus, bool) {
	switch s {
	case StatusPending:
		return StatusMatchFound, true
	case StatusMatchFound:
		return StatusClosed, true
	}
	return "", false
}

// ReportType says whether an item was lost or found.
type ReportType string

const (
	TypeLost  ReportType = "lost"
	TypeFound ReportType = "found"
)

// Report mirrors the backend ReportOut schema. The live client only
// relies on ID, Status and Type; the rest is carried for display.
type Report struct {
	ID               int64        `json:"id"`
	UserID           int64        `json:"user_id,omitempty"`
	Type             ReportType   `json:"type"`
	ItemName         string       `json:"item_name"`
	Category         string       `json:"category"`
	Description      string       `json:"description"`
	Block            string       `json:"block"`
	Floor            string       `json:"floor,omitempty"`
	SpecificLocation string       `json:"specific_location,omitempty"`
	DateReported     string       `json:"date_reported,omitempty"`
	ImagePath        string       `json:"image_path,omitempty"`
	Status           ReportStatus `json:"status"`
	CreatedAt        string       `json:"created_at,omitempty"`
	Username         string       `json:"username,omitempty"`
	Section          string       `json:"section,omitempty"`
}

// Match pairs a lost report with a found report and the similarity scores
// the server computed for them.
type Match struct {
	ID              int64   `json:"id"`
	LostReportID    int64   `json:"lost_report_id"`
	FoundReportID   int64   `json:"found_report_id"`
	ImageSimilarity float64 `json:"image_similarity"`
	TextSimilarity  float64 `json:"text_similarity"`
	CombinedScore   float64 `json:"combined_score"`
	CreatedAt       string  `json:"created_at,omitempty"`
	LostReport      *Report `json:"lost_report,omitempty"`
	FoundReport     *Report `json:"found_report,omitempty"`
}

// User is the identity returned by the login endpoint.
type User struct {
	ID         int64  `json:"id" yaml:"id"`
	Username   string `json:"username" yaml:"username"`
	Role       string `json:"role" yaml:"role"`
	Department string `json:"department,omitempty" yaml:"department,omitempty"`
	Section    string `json:"section,omitempty" yaml:"section,omitempty"`
}

// RoleAdmin is the role required for the admin event feed.
const RoleAdmin = "admin"

// LoginResponse is returned by POST /api/auth/login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// StatusAck is returned by PATCH /api/admin/reports/{id}/status.
type StatusAck struct {
	Message   string       `json:"message"`
	NewStatus ReportStatus `json:"new_status"`
}

// --- WebSocket frames ---

// FrameKind identifies the kind of event frame.
type FrameKind string

const (
	FrameNewReport FrameKind = "new_report"
)

// Frame is the envelope of every event-stream message.
type Frame struct {
	Event       FrameKind `json:"event"`
	Report      *Report   `json:"report,omitempty"`
	HighMatches *int      `json:"high_matches,omitempty"`
}
