// Package mockserver is an in-memory stand-in for the lost-and-found
// backend. It serves the REST API and the admin event feed so the
// dashboard can be run and tested without the real service.
package mockserver

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lostfound/tui/internal/client"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrBadCredentials = errors.New("invalid credentials")
)

// TransitionError rejects a status change outside pending→match_found→closed.
type TransitionError struct {
	From, To client.ReportStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("Cannot transition from '%s' to '%s'", e.From, e.To)
}

// createdAtLayout matches the backend's created_at rendering.
const createdAtLayout = "2006-01-02T15:04:05"

const (
	imageWeight    = 0.4
	textWeight     = 0.6
	matchThreshold = 0.70
	matchFloor     = 0.05
)

type account struct {
	user     client.User
	password string
}

type record struct {
	report  client.Report
	created time.Time
}

// Filter narrows a report listing. Empty fields match everything.
type Filter struct {
	Section    string
	TimeFilter string
	Status     string
	Type       string
}

// Store holds users, reports and matches. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]account
	reports   []*record
	matches   []client.Match
	nextID    int64
	nextMatch int64
}

// NewStore creates a store seeded with the standard accounts and no
// reports.
func NewStore() *Store {
	s := &Store{
		accounts: make(map[string]account),
		nextID:   1,
	}
	seed := []struct {
		username, password, role, section string
	}{
		{"727625BIT116", "MCET12345", "student", "IT-B"},
		{"727625BIT120", "MCET12345", "student", "IT-B"},
		{"727625BIT280", "MCET12345", "student", "IT-B"},
		{"727625BIT390", "MCET12345", "student", "IT-B"},
		{"ADMINMCET", "ADMIN12345", client.RoleAdmin, ""},
	}
	for i, u := range seed {
		user := client.User{ID: int64(i + 1), Username: u.username, Role: u.role, Section: u.section}
		if u.role != client.RoleAdmin {
			user.Department = "IT"
		}
		s.accounts[u.username] = account{user: user, password: u.password}
	}
	return s
}

// Authenticate checks a username and password.
func (s *Store) Authenticate(username, password string) (client.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[username]
	if !ok || a.password != password {
		return client.User{}, ErrBadCredentials
	}
	return a.user, nil
}

// User looks up an account by username.
func (s *Store) User(username string) (client.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[username]
	return a.user, ok
}

// Students lists the non-admin accounts.
func (s *Store) Students() []client.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []client.User
	for _, a := range s.accounts {
		if a.user.Role != client.RoleAdmin {
			out = append(out, a.user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddReport files a report for user at time at and runs matching against
// pending reports of the opposite type. It returns the stored report and
// the matches scoring at or above the high-match threshold.
func (s *Store) AddReport(user client.User, r client.Report, at time.Time) (client.Report, []client.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextID
	s.nextID++
	r.UserID = user.ID
	r.Username = user.Username
	r.Section = user.Section
	r.Status = client.StatusPending
	r.CreatedAt = at.UTC().Format(createdAtLayout)
	if r.DateReported == "" {
		r.DateReported = at.UTC().Format(time.DateOnly)
	}
	rec := &record{report: r, created: at}
	s.reports = append(s.reports, rec)

	return r, s.matchLocked(rec, at)
}

func (s *Store) matchLocked(rec *record, at time.Time) []client.Match {
	opposite := client.TypeFound
	if rec.report.Type == client.TypeFound {
		opposite = client.TypeLost
	}

	var high []client.Match
	for _, cand := range s.reports {
		if cand.report.Type != opposite || cand.report.Status != client.StatusPending {
			continue
		}
		txt := textSimilarity(reportText(rec.report), reportText(cand.report))
		img := 0.0
		if rec.report.Category != "" && strings.EqualFold(rec.report.Category, cand.report.Category) {
			img = 1.0
		}
		score := round4(imageWeight*img + textWeight*txt)
		if score <= matchFloor {
			continue
		}

		lost, found := rec.report.ID, cand.report.ID
		if rec.report.Type == client.TypeFound {
			lost, found = found, lost
		}
		if s.hasMatchLocked(lost, found) {
			continue
		}
		s.nextMatch++
		m := client.Match{
			ID:              s.nextMatch,
			LostReportID:    lost,
			FoundReportID:   found,
			ImageSimilarity: img,
			TextSimilarity:  round4(txt),
			CombinedScore:   score,
			CreatedAt:       at.UTC().Format(createdAtLayout),
		}
		s.matches = append(s.matches, m)
		if score >= matchThreshold {
			high = append(high, m)
		}
	}
	return high
}

func (s *Store) hasMatchLocked(lost, found int64) bool {
	for _, m := range s.matches {
		if m.LostReportID == lost && m.FoundReportID == found {
			return true
		}
	}
	return false
}

// Reports lists reports newest first, narrowed by f relative to now.
func (s *Store) Reports(f Filter, now time.Time) ([]client.Report, error) {
	var start, end time.Time
	if f.TimeFilter != "" {
		var ok bool
		start, end, ok = TimeWindow(f.TimeFilter, now)
		if !ok {
			return nil, fmt.Errorf("unknown time_filter %q", f.TimeFilter)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []*record
	for i := len(s.reports) - 1; i >= 0; i-- {
		rec := s.reports[i]
		r := rec.report
		switch {
		case f.Section != "" && r.Section != f.Section:
			continue
		case f.Status != "" && string(r.Status) != f.Status:
			continue
		case f.Type != "" && string(r.Type) != f.Type:
			continue
		}
		if f.TimeFilter != "" && (rec.created.Before(start) || rec.created.After(end)) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].created.After(recs[j].created) })

	out := make([]client.Report, len(recs))
	for i, rec := range recs {
		out[i] = rec.report
	}
	return out, nil
}

func (s *Store) reportLocked(id int64) (client.Report, bool) {
	for _, rec := range s.reports {
		if rec.report.ID == id {
			return rec.report, true
		}
	}
	return client.Report{}, false
}

// Matches lists every match with both reports attached, highest combined
// score first.
func (s *Store) Matches() []client.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]client.Match, 0, len(s.matches))
	for _, m := range s.matches {
		if r, ok := s.reportLocked(m.LostReportID); ok {
			m.LostReport = &r
		}
		if r, ok := s.reportLocked(m.FoundReportID); ok {
			m.FoundReport = &r
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CombinedScore > out[j].CombinedScore })
	return out
}

// SetStatus advances a report. Only pending→match_found→closed is allowed.
func (s *Store) SetStatus(id int64, status client.ReportStatus) (client.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.reports {
		if rec.report.ID != id {
			continue
		}
		next, ok := rec.report.Status.Next()
		if !ok || next != status {
			return client.Report{}, &TransitionError{From: rec.report.Status, To: status}
		}
		rec.report.Status = status
		return rec.report, nil
	}
	return client.Report{}, ErrReportNotFound
}

func reportText(r client.Report) string {
	return r.ItemName + " " + r.Category + " " + r.Description
}

// textSimilarity is the Jaccard index of the lower-cased word sets.
func textSimilarity(a, b string) float64 {
	wa, wb := words(a), words(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

func words(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?()\"'")
		if w != "" {
			out[w] = struct{}{}
		}
	}
	return out
}

func round4(f float64) float64 {
	return float64(int64(f*10000+0.5)) / 10000
}
