package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/device-auth-server/devices"
	"github.com/jrsteele09/device-auth-server/internal/config"
	"github.com/jrsteele09/device-auth-server/telemetry"
	"github.com/jrsteele09/device-auth-server/token"
	"github.com/rs/zerolog/log"
)

// Services are the components the HTTP layer delegates to.
type Services struct {
	Issuer    *token.Issuer
	Validator token.BearerValidator
	Recorder  *telemetry.Recorder
	Devices   devices.Repo
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	issuer    *token.Issuer
	validator token.BearerValidator
	recorder  *telemetry.Recorder
	devices   devices.Repo
}

func New(config config.Config, services Services) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("[Server New] config is required")
	}
	if services.Issuer == nil {
		return nil, fmt.Errorf("[Server New] issuer is required")
	}
	if services.Validator == nil {
		return nil, fmt.Errorf("[Server New] bearer validator is required")
	}
	if services.Recorder == nil {
		return nil, fmt.Errorf("[Server New] recorder is required")
	}
	if services.Devices == nil {
		return nil, fmt.Errorf("[Server New] devices repo is required")
	}

	s := &Server{
		env:       config.GetEnv(),
		mux:       http.NewServeMux(),
		config:    config,
		issuer:    services.Issuer,
		validator: services.Validator,
		recorder:  services.Recorder,
		devices:   services.Devices,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Preflight requests are answered for every route
	if r.Method == http.MethodOptions {
		ChainMiddleware(noContent, s.APIMiddleware()...)(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

// Routes returns the registered route patterns.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Info().Msgf("[%s] %s", color+paddedMethod+ResetColor, path)
}
