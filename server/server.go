// Package server exposes the chatbot over HTTP and a gRPC health endpoint.
//
// The HTTP API mirrors the public routes of the service: POST /text and
// POST /audio answer questions, GET /get-audio/{filename} serves synthesized
// speech, and the /sessions routes expose conversation history.
package server

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/agrimesh/core"
	"github.com/hupe1980/agrimesh/logging"
	"github.com/hupe1980/agrimesh/pipeline"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Chatbot answers text and audio requests.
type Chatbot interface {
	HandleText(ctx context.Context, req pipeline.TextRequest) (*pipeline.Response, error)
	HandleAudio(ctx context.Context, req pipeline.AudioRequest) (*pipeline.Response, error)
}

// Sessions exposes conversation history.
type Sessions interface {
	History(sessionID string) []core.Message
	ClearHistory(sessionID string)
}

// Options configures a Server.
type Options struct {
	// Artifacts serves GET /get-audio/{filename}.
	Artifacts core.ArtifactStore
	// PublicURL prefixes audio links. Empty derives it from the request.
	PublicURL string
	// MaxUploadBytes bounds the body of POST /audio.
	MaxUploadBytes int64
	Version        string
	Logger         logging.Logger
}

// Server holds the HTTP handlers and the shared readiness state.
type Server struct {
	bot      Chatbot
	sessions Sessions
	opts     Options
	ready    atomic.Bool
	health   *health.Server
}

// New creates a Server. It starts out not ready.
func New(bot Chatbot, sessions Sessions, optFns ...func(o *Options)) *Server {
	opts := Options{
		MaxUploadBytes: 25 << 20,
		Version:        "dev",
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.PublicURL != "" && !strings.HasSuffix(opts.PublicURL, "/") {
		opts.PublicURL += "/"
	}

	s := &Server{bot: bot, sessions: sessions, opts: opts, health: health.NewServer()}
	s.SetReady(false)
	return s
}

// SetReady flips both /healthz and the gRPC health status.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Ready reports the readiness flag.
func (s *Server) Ready() bool { return s.ready.Load() }

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)
	return s.logRequests(mux)
}
