// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

// Package api serves the player-facing HTTP API: state and move requests,
// generated world lookups, and live event streams over SSE and WebSocket.
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/axosm/axosm/internal/core"
	"github.com/axosm/axosm/internal/world"
	"github.com/axosm/axosm/internal/worldgen"
)

// Service is the part of world.Service the API calls.
type Service interface {
	IssueMove(ctx context.Context, playerID int64, unitID ulid.ULID, destination world.Location) (*world.MoveOrder, error)
	State(ctx context.Context, playerID int64) (*world.PlayerState, error)
}

var _ Service = (*world.Service)(nil)

// Recorder receives API metrics. observability.Metrics implements it.
type Recorder interface {
	Request(route string, code int)
	StreamOpened(transport string)
	StreamClosed(transport string)
}

type nopRecorder struct{}

func (nopRecorder) Request(string, int)  {}
func (nopRecorder) StreamOpened(string) {}
func (nopRecorder) StreamClosed(string) {}

// Deps are the collaborators of the API server.
type Deps struct {
	Service   Service
	Generator *worldgen.Generator
	Bus       *core.Broadcaster
	// Recorder is optional.
	Recorder Recorder
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the HTTP API server.
type Server struct {
	cfg      Config
	svc      Service
	gen      *worldgen.Generator
	bus      *core.Broadcaster
	rec      Recorder
	logger   *slog.Logger
	now      func() time.Time
	limiter  *rateLimiter
	upgrader websocket.Upgrader

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool

	// streamCtx parents every request so Stop can end long-lived streams
	// before waiting on Shutdown.
	streamCtx    context.Context
	cancelStream context.CancelFunc
}

// NewServer creates an API server. It does not listen until Start.
func NewServer(cfg Config, deps Deps) *Server {
	s := &Server{
		cfg:    cfg,
		svc:    deps.Service,
		gen:    deps.Generator,
		bus:    deps.Bus,
		rec:    deps.Recorder,
		logger: deps.Logger,
		now:    deps.Now,
	}
	if s.rec == nil {
		s.rec = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if cfg.RateLimit > 0 {
		s.limiter = newRateLimiter(cfg, s.now)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.streamCtx, s.cancelStream = context.WithCancel(context.Background())
	return s
}

// Handler returns the API routes with CORS and rate limiting applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "GET /api/state/{playerID}", s.handleState)
	s.handle(mux, "POST /api/move", s.handleMove)
	s.handle(mux, "GET /api/events", s.handleSSE)
	s.handle(mux, "GET /api/ws", s.handleWebSocket)
	s.handle(mux, "GET /api/world/systems/{x}/{y}/{z}", s.handleSystem)
	s.handle(mux, "GET /api/world/planets/{planetID}", s.handlePlanet)
	s.handle(mux, "GET /api/world/tiles/{planetID}/{face}/{u}/{v}", s.handleTile)
	return s.corsHandler(s.rateLimit(mux))
}

func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, h))
}

// Start listens and serves in the background. The returned channel carries
// a serve failure, and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("SERVER_RUNNING").Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("LISTEN_FAILED").With("addr", s.cfg.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.streamCtx },
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop ends open event streams and shuts the server down. Stopping a
// stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.cancelStream()
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return oops.With("operation", "shutdown api server").Wrap(err)
		}
	}
	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	playerID, err := parseInt(r.PathValue("playerID"), "player_id", 64)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.State(r.Context(), playerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(st, s.now().UTC()))
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := decodeMoveRequest(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	unitID, err := ulid.ParseStrict(req.UnitID)
	if err != nil {
		s.writeError(w, r, &world.ValidationError{Field: "unit_id", Message: "must be a ULID"})
		return
	}
	dest, err := req.Destination.Decode()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	order, err := s.svc.IssueMove(r.Context(), req.PlayerID, unitID, dest)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MoveResponse{
		OK:          true,
		ArrivalTime: order.ArrivalTime,
		Order:       orderView(order),
	})
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	var addr worldgen.SystemAddress
	for _, c := range []struct {
		name string
		dst  *int32
	}{{"x", &addr.X}, {"y", &addr.Y}, {"z", &addr.Z}} {
		n, err := parseInt(r.PathValue(c.name), c.name, 32)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		*c.dst = int32(n)
	}
	sys, err := s.gen.System(addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sys)
}

func (s *Server) handlePlanet(w http.ResponseWriter, r *http.Request) {
	addr, err := planetAddress(r.PathValue("planetID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	planet, err := s.gen.Planet(addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planet)
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	planetAddr, err := planetAddress(r.PathValue("planetID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	addr := worldgen.TileAddress{Planet: planetAddr}
	for _, c := range []struct {
		name string
		dst  *int
	}{{"face", &addr.Face}, {"u", &addr.U}, {"v", &addr.V}} {
		n, err := parseInt(r.PathValue(c.name), c.name, 32)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		*c.dst = int(n)
	}
	if err := addr.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	planet, err := s.gen.Planet(planetAddr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !planet.Exists || !planet.HasSurface {
		s.writeError(w, r, oops.Code("TILE_NOT_FOUND").
			With("planet_id", int64(planet.ID)).
			With("planet_exists", planet.Exists).
			Wrapf(world.ErrNotFound, "planet %s has no surface", planetAddr))
		return
	}
	tile, err := s.gen.Tile(addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tile)
}

func planetAddress(raw string) (worldgen.PlanetAddress, error) {
	id, err := parseInt(raw, "planet_id", 64)
	if err != nil {
		return worldgen.PlanetAddress{}, err
	}
	return worldgen.PlanetID(id).Address()
}

func parseInt(raw, field string, bits int) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, bits)
	if err != nil {
		return 0, &world.ValidationError{Field: field, Message: "must be an integer"}
	}
	return n, nil
}
