package transport

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the relay's HTTP surface: the websocket endpoint, the
// collaborator API and the operational endpoints.
func (s *Server) Routes(gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ws", s.HandleWS)

	mux.HandleFunc("POST /api/register", s.HandleRegister)
	mux.HandleFunc("GET /api/users", s.HandleUsers)
	mux.HandleFunc("POST /api/update-profile", s.Authenticated(s.HandleUpdateProfile))
	mux.HandleFunc("POST /api/join-hub", s.Authenticated(s.HandleJoinHub))

	mux.HandleFunc("GET /healthz", s.HandleHealthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}
