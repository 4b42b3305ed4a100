// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"talksync/internal/log"

	"github.com/gorilla/websocket"
)

// DefaultReadLimit caps the size of a request message in bytes.
const DefaultReadLimit = 64 * 1024

// Options configures a Server.
type Options struct {
	WindowDuration float64 // used when a request leaves it at zero
	Channel        int     // used when a request omits it
	ReadLimit      int64
}

// Server answers correlation requests on /correlate. Each connection is
// served by its own goroutine. Requests on one connection are handled in
// order.
type Server struct {
	correlator Correlator
	opts       Options
	upgrader   websocket.Upgrader
	clients    map[*websocket.Conn]struct{}
	clientsMu  sync.Mutex
	server     *http.Server

	// Parent of every request context; cancelled by Shutdown.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a server for addr. It does not start listening.
func NewServer(addr string, correlator Correlator, opts Options) *Server {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = DefaultReadLimit
	}

	s := &Server{
		correlator: correlator,
		opts:       opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s
}

// Handler returns the HTTP routes of the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/correlate", s.handleCorrelate)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// ListenAndServe blocks until the server is shut down. A clean shutdown
// returns nil.
func (s *Server) ListenAndServe() error {
	log.Infof("transport: listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown cancels running requests, closes every open connection and
// stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	return s.server.Shutdown(ctx)
}

func (s *Server) handleCorrelate(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("transport: upgrade: %v", err)
		return
	}
	conn.SetReadLimit(s.opts.ReadLimit)

	s.clientsMu.Lock()
	s.clients[conn] = struct{}{}
	total := len(s.clients)
	s.clientsMu.Unlock()
	log.Debugf("transport: client %s connected, total: %d", conn.RemoteAddr(), total)

	ctx, cancel := context.WithCancel(s.ctx)
	defer func() {
		cancel()
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		conn.Close()
		log.Debugf("transport: client %s disconnected", conn.RemoteAddr())
	}()

	// Reading continues while a request runs, so a client that goes away
	// cancels its request and stops a running ffmpeg.
	requests := make(chan []byte)
	go func() {
		defer cancel()
		defer close(requests)
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warnf("transport: read: %v", err)
				}
				return
			}
			if msgType != websocket.TextMessage {
				continue
			}
			select {
			case requests <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	for data := range requests {
		resp := s.serve(ctx, data)
		if ctx.Err() != nil {
			return
		}
		if err := conn.WriteJSON(resp); err != nil {
			log.Warnf("transport: write: %v", err)
			return
		}
	}
}

func (s *Server) serve(ctx context.Context, data []byte) Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Response{Error: "invalid request: " + err.Error()}
	}
	if req.File1 == "" || req.File2 == "" {
		return Response{Error: "invalid request: file1 and file2 are required"}
	}
	if req.WindowDuration == 0 {
		req.WindowDuration = s.opts.WindowDuration
	}
	channel := s.opts.Channel
	if req.Channel != nil {
		channel = *req.Channel
	}

	res, err := s.correlator.CorrelateFiles(ctx, req.File1, req.File2, req.WindowDuration, channel)
	if err != nil {
		log.Infof("transport: %s vs %s: %v", req.File1, req.File2, err)
		return Response{Error: err.Error()}
	}
	return NewResponse(res)
}
