package mockserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"github.com/lostfound/tui/internal/client"
	"github.com/lostfound/tui/internal/session"
)

// Options configures a Server.
type Options struct {
	Secret   string
	TokenTTL time.Duration
	MaxConns int
	Logger   *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server serves the REST API and the admin feed.
type Server struct {
	store       *Store
	broadcaster *Broadcaster
	secret      []byte
	ttl         time.Duration
	log         *slog.Logger
	now         func() time.Time
}

// NewServer creates a server over store.
func NewServer(store *Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 8 * time.Hour
	}
	return &Server{
		store:       store,
		broadcaster: NewBroadcaster(opts.MaxConns, opts.Logger),
		secret:      []byte(opts.Secret),
		ttl:         opts.TokenTTL,
		log:         opts.Logger.With("component", "mockserver"),
		now:         opts.Now,
	}
}

// Broadcaster returns the feed broadcaster.
func (s *Server) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/reports", s.requireRole("", s.handleCreateReport))
	mux.HandleFunc("GET /api/admin/reports", s.requireRole(client.RoleAdmin, s.handleReports))
	mux.HandleFunc("GET /api/admin/matches", s.requireRole(client.RoleAdmin, s.handleMatches))
	mux.HandleFunc("PATCH /api/admin/reports/{id}/status", s.requireRole(client.RoleAdmin, s.handleStatus))
	mux.HandleFunc("GET "+client.AdminFeedPath, s.handleFeed)
	return mux
}

// Publish files a report as user and broadcasts it to the feed.
func (s *Server) Publish(user client.User, r client.Report) client.Report {
	stored, high := s.store.AddReport(user, r, s.now())
	s.broadcaster.Broadcast(newReportFrame(stored, len(high)))
	s.log.Info("report published", "id", stored.ID, "type", stored.Type, "high_matches", len(high))
	return stored
}

func newReportFrame(r client.Report, highMatches int) client.Frame {
	return client.Frame{Event: client.FrameNewReport, Report: &r, HighMatches: &highMatches}
}

// IssueToken signs an access token for user.
func (s *Server) IssueToken(user client.User) (string, error) {
	now := s.now()
	claims := session.Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) verify(token string) (*session.Claims, error) {
	var claims session.Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

// requireRole authenticates the bearer token. An empty role accepts any
// signed-in user.
func (s *Server) requireRole(role string, next func(http.ResponseWriter, *http.Request, client.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, status, detail := s.authenticate(r)
		if status != 0 {
			writeDetail(w, status, detail)
			return
		}
		if role != "" && user.Role != role {
			writeDetail(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r, user)
	}
}

func (s *Server) authenticate(r *http.Request) (client.User, int, string) {
	token := ""
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token = strings.TrimPrefix(auth, "Bearer ")
	} else if q := r.URL.Query().Get("token"); q != "" {
		token = q
	}
	if token == "" {
		return client.User{}, http.StatusUnauthorized, "Not authenticated"
	}
	claims, err := s.verify(token)
	if err != nil {
		return client.User{}, http.StatusUnauthorized, "Could not validate credentials"
	}
	user, ok := s.store.User(claims.Subject)
	if !ok {
		return client.User{}, http.StatusUnauthorized, "Could not validate credentials"
	}
	return user, 0, ""
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	user, err := s.store.Authenticate(req.Username, req.Password)
	if err != nil {
		s.log.Info("login rejected", "username", req.Username)
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := s.IssueToken(user)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, client.LoginResponse{AccessToken: token, TokenType: "bearer", User: user})
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request, user client.User) {
	var in client.Report
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if in.Type != client.TypeLost && in.Type != client.TypeFound {
		writeDetail(w, http.StatusBadRequest, "type must be 'lost' or 'found'")
		return
	}
	if strings.TrimSpace(in.ItemName) == "" {
		writeDetail(w, http.StatusBadRequest, "item_name is required")
		return
	}
	writeJSON(w, http.StatusOK, s.Publish(user, in))
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request, _ client.User) {
	q := r.URL.Query()
	f := Filter{
		Section:    q.Get("section"),
		TimeFilter: q.Get("time_filter"),
		Status:     q.Get("status"),
		Type:       q.Get("report_type"),
	}
	reports, err := s.store.Reports(f, s.now())
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request, _ client.User) {
	writeJSON(w, http.StatusOK, s.store.Matches())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, _ client.User) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid report id")
		return
	}
	var body struct {
		Status client.ReportStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	updated, err := s.store.SetStatus(id, body.Status)
	var terr *TransitionError
	switch {
	case errors.As(err, &terr):
		writeDetail(w, http.StatusBadRequest, terr.Error())
		return
	case errors.Is(err, ErrReportNotFound):
		writeDetail(w, http.StatusNotFound, "Report not found")
		return
	case err != nil:
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("status changed", "id", id, "status", updated.Status)
	writeJSON(w, http.StatusOK, client.StatusAck{Message: "Status updated", NewStatus: updated.Status})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	user, status, detail := s.authenticate(r)
	if status != 0 {
		http.Error(w, detail, status)
		return
	}
	if user.Role != client.RoleAdmin {
		http.Error(w, "Admin access required", http.StatusForbidden)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("feed upgrade failed", "error", err)
		return
	}

	p, err := s.broadcaster.AddClient(conn)
	if err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseTryAgainLater, "Too many connections"),
			time.Now().Add(writeWait))
		conn.Close()
		s.log.Warn("feed connection refused", "remote", r.RemoteAddr, "error", err)
		return
	}

	// The feed is one-way; reads only detect the peer going away.
	go func() {
		defer s.broadcaster.RemoveClient(p)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
