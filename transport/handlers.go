package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"hubchat/auth"
	"hubchat/contract"
	"hubchat/domain"
	"hubchat/errors"
	"hubchat/observability"
	"hubchat/runtime"
)

type ctxKey int

const userIDKey ctxKey = iota

// Server carries the handler dependencies for the websocket endpoint
// and the HTTP collaborator boundary.
type Server struct {
	log        *slog.Logger
	users      contract.IUserRepository
	membership contract.IMembership
	tokens     *auth.Issuer
	dispatcher *runtime.Dispatcher
	registry   *runtime.Registry
	metrics    *observability.Metrics
	validate   *validator.Validate
	sessionBuf int
	upgrader   websocket.Upgrader
}

func NewServer(log *slog.Logger, users contract.IUserRepository,
	membership contract.IMembership, tokens *auth.Issuer,
	dispatcher *runtime.Dispatcher, registry *runtime.Registry,
	metrics *observability.Metrics, sessionBuf int) *Server {
	return &Server{
		log:        log,
		users:      users,
		membership: membership,
		tokens:     tokens,
		dispatcher: dispatcher,
		registry:   registry,
		metrics:    metrics,
		validate:   validator.New(),
		sessionBuf: sessionBuf,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from arbitrary dev origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades the connection and runs the session until it dies.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	session := NewSession(conn, s.dispatcher, s.log, s.sessionBuf)
	s.registry.Register(session.ID(), session)
	s.metrics.SessionsGauge.Set(float64(s.registry.Sessions()))
	s.log.Info("Session connected", "session_id", session.ID())

	session.Run()
}

type registerRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=64"`
}

func (s *Server) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	u, err := s.users.Create(req.Email, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"user":  publicUser(u),
		"token": token,
	})
}

func (s *Server) HandleUsers(w http.ResponseWriter, _ *http.Request) {
	users := lo.Map(s.users.List(), func(u domain.User, _ int) map[string]any {
		return publicUser(u)
	})
	s.writeJSON(w, http.StatusOK, users)
}

type profileRequest struct {
	Bio    *string `json:"bio" validate:"omitempty,max=512"`
	Avatar *string `json:"avatar" validate:"omitempty,max=1024"`
}

func (s *Server) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	u, err := s.users.UpdateProfile(callerID(r), req.Bio, req.Avatar)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"user": publicUser(u)})
}

type joinHubRequest struct {
	Hub string `json:"hub" validate:"required"`
}

// HandleJoinHub is the authorization boundary for the one-time hub
// rule: a second distinct hub maps to 403.
func (s *Server) HandleJoinHub(w http.ResponseWriter, r *http.Request) {
	var req joinHubRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	hub, err := domain.ParseHub(req.Hub)
	if err != nil {
		s.writeError(w, err)
		return
	}

	u, err := s.membership.JoinHub(callerID(r), hub)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"user": publicUser(u)})
}

func (s *Server) HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.registry.Sessions(),
	})
}

// Authenticated wraps a handler with Bearer-token verification and puts
// the caller's user id on the request context.
func (s *Server) Authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			s.writeError(w, errors.ErrInvalidToken)
			return
		}
		claims, err := s.tokens.Verify(tokenString)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if _, err := s.users.Get(claims.UserID); err != nil {
			s.writeError(w, errors.ErrInvalidToken)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, claims.UserID)))
	}
}

func callerID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func publicUser(u domain.User) map[string]any {
	return map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"hub":       u.Hub,
		"avatar":    u.Avatar,
		"bio":       u.Bio,
		"connected": u.ConnectedPeers,
	}
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, errors.ErrValidation)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeError(w, errors.ErrValidation)
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, errors.MapToHTTPStatus(err), map[string]any{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("Failed to encode response", "error", err)
	}
}
