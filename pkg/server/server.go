package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Achyuth-Papisetty/Teams-to-SFMC-Webhook/pkg/activity"
	"github.com/Achyuth-Papisetty/Teams-to-SFMC-Webhook/pkg/client"
	"github.com/Achyuth-Papisetty/Teams-to-SFMC-Webhook/pkg/config"
	"github.com/Achyuth-Papisetty/Teams-to-SFMC-Webhook/pkg/observability"
	"github.com/Achyuth-Papisetty/Teams-to-SFMC-Webhook/pkg/signature"
	"github.com/heathcliff26/simple-fileserver/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	addr     string
	ssl      config.SSLConfig
	verifier *signature.Verifier
	sfmc     *client.SFMCClient
	metrics  *observability.GatewayMetrics
}

// The sfmc client may be nil, in which case verified messages are only
// acknowledged, not forwarded.
func NewServer(cfgServer config.ServerConfig, verifier *signature.Verifier, sfmc *client.SFMCClient) *Server {
	return &Server{
		addr:     ":" + strconv.Itoa(cfgServer.Port),
		ssl:      cfgServer.SSL,
		verifier: verifier,
		sfmc:     sfmc,
		metrics:  observability.Gateway(),
	}
}

// Handle incoming Teams outgoing-webhook calls
// URL: POST /api/messages
func (s *Server) messagesHandler(res http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		slog.Error("Failed to read request body", slog.String("err", err.Error()))
		res.WriteHeader(http.StatusBadRequest)
		return
	}

	outcome := s.verifier.Verify(body, req.Header.Get("Authorization"))
	s.metrics.ObserveVerification(outcome.Matched, outcome.Candidate, outcome.Reason())
	if !outcome.Matched {
		slog.Error("Rejected webhook call", slog.String("reason", outcome.Reason()))
		res.WriteHeader(http.StatusUnauthorized)
		return
	}
	slog.Debug("Verified webhook call", slog.String("candidate", outcome.Candidate))

	in, err := activity.Parse(body)
	if err != nil {
		slog.Error("Failed to unmarshal activity", slog.String("err", err.Error()))
		res.WriteHeader(http.StatusBadRequest)
		return
	}

	if s.sfmc != nil {
		start := time.Now()
		err := s.sfmc.PostEvent(in)
		s.metrics.ObserveForward(time.Since(start), err)
		if err != nil {
			// The sender is already authenticated, forwarding problems must
			// not bounce the webhook.
			slog.Error("Failed to forward activity", slog.String("err", err.Error()))
		}
	}

	writeActivity(res, activity.NewReply(in, "Message received."))
}

// Return a health status of the server
// URL: /healthz
func (s *Server) handleHealthCheck(rw http.ResponseWriter, _ *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	_, err := rw.Write([]byte(`{"status":"ok"}`))
	if err != nil {
		slog.Error("Failed to write health check response", slog.String("err", err.Error()))
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}
}

// Starts the server and exits with error if that fails
func (s *Server) Run() error {
	router := http.NewServeMux()
	router.HandleFunc("POST /api/messages", s.messagesHandler)
	router.HandleFunc("/healthz", s.handleHealthCheck)
	router.Handle("/metrics", promhttp.Handler())

	server := http.Server{
		Addr:         s.addr,
		Handler:      middleware.Logging(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	var err error
	if s.ssl.Enabled {
		slog.Info("Starting server", slog.String("addr", s.addr), slog.String("sslKey", s.ssl.Key), slog.String("sslCert", s.ssl.Cert))
		err = server.ListenAndServeTLS(s.ssl.Cert, s.ssl.Key)
	} else {
		slog.Info("Starting server", slog.String("addr", s.addr))
		err = server.ListenAndServe()
	}

	// This just means the server was closed after running
	if errors.Is(err, http.ErrServerClosed) {
		slog.Info("Server closed, exiting")
		return nil
	}
	return fmt.Errorf("failed to start server: %w", err)
}
