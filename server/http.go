package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPService serves the API; the listener is bound in Init so address errors surface before Start
type HTTPService struct {
	cfg     Config
	handler http.Handler
	log     logrus.FieldLogger

	mu  sync.Mutex
	ln  net.Listener
	srv *http.Server
}

func NewHTTPService(cfg Config, handler http.Handler, log logrus.FieldLogger) *HTTPService {
	return &HTTPService{
		cfg:     cfg,
		handler: handler,
		log:     log.WithField("component", "http"),
	}
}

func (h *HTTPService) Name() string           { return "http" }
func (h *HTTPService) Dependencies() []string { return []string{"simulation"} }

func (h *HTTPService) Init(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ln != nil {
		return nil
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", h.cfg.Addr)
	if err != nil {
		return err
	}
	h.ln = ln
	return nil
}

func (h *HTTPService) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ln == nil {
		return errors.New("http: listener not initialized")
	}
	if h.srv != nil {
		return nil
	}
	h.srv = &http.Server{
		Handler:           h.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv, ln := h.srv, h.ln
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.log.WithError(err).Error("HTTP server stopped")
		}
	}()
	h.log.WithField("addr", ln.Addr().String()).Info("HTTP listening")
	return nil
}

func (h *HTTPService) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.srv == nil {
		if h.ln != nil {
			err := h.ln.Close()
			h.ln = nil
			return err
		}
		return nil
	}

	timeout := h.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := h.srv.Shutdown(ctx)
	h.srv, h.ln = nil, nil
	return err
}

// Addr returns the bound address, empty before Init
func (h *HTTPService) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ln == nil {
		return ""
	}
	return h.ln.Addr().String()
}
