// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/we-are-mono/kraken/api"
	"github.com/we-are-mono/kraken/daemon/logger"
	"github.com/we-are-mono/kraken/device"
	"github.com/we-are-mono/kraken/dynamic"
	"github.com/we-are-mono/kraken/history"
	"github.com/we-are-mono/kraken/plugins"
)

// DefaultSocketPath is used when KRAKEN_SOCKET_PATH is unset.
const DefaultSocketPath = "/var/run/kraken.sock"

const (
	// defaultWaitTimeout bounds blocking reads when the request sets none.
	defaultWaitTimeout = 30 * time.Second
	// requestTimeout bounds every other request.
	requestTimeout = 10 * time.Second
	// defaultHistoryLimit is the sample count when the request sets none.
	defaultHistoryLimit = 120
	// pluginLoadTimeout bounds the metadata handshake of each plugin.
	pluginLoadTimeout = 10 * time.Second
)

// GetSocketPath returns the socket path, preferring KRAKEN_SOCKET_PATH env var
func GetSocketPath() string {
	if path := os.Getenv("KRAKEN_SOCKET_PATH"); path != "" {
		return path
	}
	return DefaultSocketPath
}

// handlerFunc is a function that handles a daemon command
type handlerFunc func(ctx context.Context, req Request) Response

// Server is the daemon: it owns the device manager, the optional history
// recorder and HTTP API, loaded sensor plugins and the control socket.
type Server struct {
	cfg        *Config
	socketPath string
	listener   net.Listener
	handlers   map[string]handlerFunc
	log        logger.Logger
	emitter    *logger.Emitter
	started    time.Time

	manager  *Manager
	registry *plugins.Registry
	store    *history.Store
	recorder *history.Recorder
	http     *api.Server

	ctx           context.Context
	cancel        context.CancelFunc
	managerCtx    context.Context
	managerCancel context.CancelFunc
	managerDone   chan struct{}
	wg            sync.WaitGroup

	mu       sync.Mutex
	running  bool
	stopped  bool
	stopOnce sync.Once
}

// NewServer prepares the daemon from cfg and listens on the control socket.
// Nothing is attached until Start.
func NewServer(cfg *Config, log logger.Logger, emitter *logger.Emitter) (*Server, error) {
	return newServer(cfg, log, emitter, ManagerOptions{})
}

// newServer lets tests replace the host hooks of the manager.
func newServer(cfg *Config, log logger.Logger, emitter *logger.Emitter, hooks ManagerOptions) (*Server, error) {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Field{Key: "component", Value: "daemon"})

	s := &Server{
		cfg:        cfg,
		socketPath: GetSocketPath(),
		log:        log,
		emitter:    emitter,
		registry:   plugins.NewRegistry(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.managerCtx, s.managerCancel = context.WithCancel(s.ctx)
	s.managerDone = make(chan struct{})

	s.loadPlugins()

	var observers []device.Observer
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Driver, cfg.History.Path)
		if err != nil {
			// The cooler matters more than its history.
			log.Error("History disabled", logger.Field{Key: "error", Value: err.Error()})
		} else {
			s.store = store
			s.recorder = history.NewRecorder(store, cfg.History.Every, cfg.History.Retention, log)
			observers = append(observers, s.recorder)
		}
	}

	hooks.Interval = cfg.UpdateInterval()
	hooks.Attributes = cfg.Attributes
	hooks.AttributeOrder = cfg.AttributeNames()
	hooks.Sources = dynamic.Sources{Host: dynamic.NewHost(), Plugins: s.registry}
	hooks.Observers = observers
	hooks.Logger = log
	if s.recorder != nil {
		hooks.OnDetach = s.recorder.Forget
	}
	s.manager = NewManager(hooks)

	if cfg.API.Enabled {
		s.http = api.NewServer(s.manager, log)
	}

	s.handlers = map[string]handlerFunc{
		CmdDevices:    func(ctx context.Context, req Request) Response { return s.handleDevices() },
		CmdInfo:       func(ctx context.Context, req Request) Response { return s.handleInfo(req) },
		CmdAttributes: func(ctx context.Context, req Request) Response { return s.handleAttributes() },
		CmdGet:        s.handleGet,
		CmdSet:        func(ctx context.Context, req Request) Response { return s.handleSet(req) },
		CmdWait:       s.handleWait,
		CmdInterval:   s.handleInterval,
		CmdStatus:     func(ctx context.Context, req Request) Response { return s.handleStatus() },
		CmdHistory:    s.handleHistory,
		CmdPlugins:    func(ctx context.Context, req Request) Response { return s.handlePlugins() },
		CmdRescan:     s.handleRescan,
	}

	os.Remove(s.socketPath)
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		s.closeResources()
		return nil, fmt.Errorf("failed to create socket: %w", err)
	}
	if err := os.Chmod(s.socketPath, 0666); err != nil {
		listener.Close()
		s.closeResources()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}
	s.listener = listener

	return s, nil
}

// loadPlugins starts each configured sensor plugin. Failures are logged; a
// curve naming a missing plugin reads nothing and skips its tick.
func (s *Server) loadPlugins() {
	if len(s.cfg.Plugins.Load) == 0 {
		return
	}
	pm := plugins.NewPluginManager(s.cfg.Plugins.Dirs...)
	for _, name := range s.cfg.Plugins.Load {
		ctx, cancel := context.WithTimeout(s.ctx, pluginLoadTimeout)
		err := s.registry.Load(ctx, pm, name)
		cancel()
		if err != nil {
			s.log.Error("Failed to load plugin",
				logger.Field{Key: "plugin", Value: name},
				logger.Field{Key: "error", Value: err.Error()})
			continue
		}
		info, _ := s.registry.Get(name)
		s.log.Info("Plugin loaded",
			logger.Field{Key: "plugin", Value: name},
			logger.Field{Key: "version", Value: info.Metadata.Version},
			logger.Field{Key: "sensors", Value: len(info.Sensors)})
	}
}

// Manager exposes the device manager.
func (s *Server) Manager() *Manager {
	return s.manager
}

// Start attaches devices, starts the background workers and serves the
// control socket until Stop.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.stopped || s.running {
		s.mu.Unlock()
		return errors.New("server already started or stopped")
	}
	s.running = true
	s.started = time.Now()
	s.log.Info("Kraken daemon starting")

	go func() {
		defer close(s.managerDone)
		s.manager.Run(s.managerCtx)
	}()

	if s.recorder != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.recorder.Run(s.ctx)
		}()
	}

	if s.http != nil {
		go func() {
			if err := s.http.Start(s.cfg.API.Listen); err != nil {
				s.log.Error("HTTP API failed", logger.Field{Key: "error", Value: err.Error()})
			}
		}()
	}
	s.mu.Unlock()

	s.log.Info("Daemon listening", logger.Field{Key: "socket", Value: s.socketPath})

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("Failed to accept connection", logger.Field{Key: "error", Value: err.Error()})
			continue
		}
		go s.handleConnection(conn)
	}
}

// Stop shuts down in dependency order: no new requests, no new devices,
// detach devices, flush history, then release plugins and the database.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		running := s.running
		s.mu.Unlock()

		s.log.Info("Kraken daemon stopping")
		if s.listener != nil {
			s.listener.Close()
		}
		if s.http != nil {
			if err := s.http.Shutdown(); err != nil {
				s.log.Warn("HTTP API shutdown failed", logger.Field{Key: "error", Value: err.Error()})
			}
		}
		s.managerCancel()
		if running {
			<-s.managerDone
		}
		s.manager.Close()
		s.cancel()
		s.wg.Wait()
		s.closeResources()
		os.Remove(s.socketPath)
	})
	return nil
}

func (s *Server) closeResources() {
	s.cancel()
	s.registry.CloseAll()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Warn("Failed to close history", logger.Field{Key: "error", Value: err.Error()})
		}
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil {
		conn.Close()
		return
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendResponse(conn, Response{
			Success: false,
			Error:   fmt.Sprintf("invalid request: %v", err),
		})
		conn.Close()
		return
	}

	// The log stream keeps the connection open until the client leaves.
	if req.Command == CmdLogsSubscribe {
		s.handleLogsSubscribe(conn, req.LogFilter)
		return
	}

	defer conn.Close()
	s.sendResponse(conn, s.handleRequest(req))
}

func (s *Server) handleRequest(req Request) Response {
	handler, exists := s.handlers[req.Command]
	if !exists {
		return Response{
			Success: false,
			Error:   fmt.Sprintf("unknown command: %s", req.Command),
		}
	}
	return handler(s.ctx, req)
}

func (s *Server) sendResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("Failed to marshal response", logger.Field{Key: "error", Value: err.Error()})
		return
	}

	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.log.Error("Failed to write response", logger.Field{Key: "error", Value: err.Error()})
	}
}

func errorResponse(err error) Response {
	return Response{Success: false, Error: err.Error()}
}

func (s *Server) handleDevices() Response {
	devices := s.manager.Devices()
	infos := make([]device.Info, 0, len(devices))
	for _, d := range devices {
		infos = append(infos, d.Info())
	}
	return Response{Success: true, Data: infos}
}

func (s *Server) handleInfo(req Request) Response {
	d, err := s.manager.Resolve(req.Device)
	if err != nil {
		return errorResponse(err)
	}
	return Response{Success: true, Data: d.Info()}
}

func (s *Server) handleAttributes() Response {
	return Response{Success: true, Data: device.Attributes()}
}

// readAttribute reads name with the request timeout, or the wait timeout
// for blocking reads.
func (s *Server) readAttribute(ctx context.Context, req Request, name string) Response {
	d, err := s.manager.Resolve(req.Device)
	if err != nil {
		return errorResponse(err)
	}

	timeout := requestTimeout
	if name == device.AttrUpdateIndicator {
		timeout = defaultWaitTimeout
	}
	if req.TimeoutMS > 0 {
		timeout = time.Duration(req.TimeoutMS) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	value, err := d.Get(ctx, name)
	if err != nil {
		return errorResponse(fmt.Errorf("%s: %w", name, err))
	}
	return Response{Success: true, Data: AttributeValue{Device: d.ID(), Attribute: name, Value: value}}
}

func (s *Server) handleGet(ctx context.Context, req Request) Response {
	if req.Attribute == "" {
		return errorResponse(errors.New("attribute name required"))
	}
	return s.readAttribute(ctx, req, req.Attribute)
}

func (s *Server) handleWait(ctx context.Context, req Request) Response {
	return s.readAttribute(ctx, req, device.AttrUpdateIndicator)
}

func (s *Server) writeAttribute(req Request, name string) Response {
	d, err := s.manager.Resolve(req.Device)
	if err != nil {
		return errorResponse(err)
	}
	if err := d.Set(name, req.Value); err != nil {
		return errorResponse(fmt.Errorf("%s: %w", name, err))
	}
	s.log.Info("Attribute set",
		logger.Field{Key: "device", Value: d.ID()},
		logger.Field{Key: "attribute", Value: name})
	return Response{Success: true, Message: fmt.Sprintf("%s set on %s", name, d.ID())}
}

func (s *Server) handleSet(req Request) Response {
	if req.Attribute == "" {
		return errorResponse(errors.New("attribute name required"))
	}
	return s.writeAttribute(req, req.Attribute)
}

// handleInterval reads update_interval, or writes it when a value is given.
func (s *Server) handleInterval(ctx context.Context, req Request) Response {
	if req.Value == "" {
		return s.readAttribute(ctx, req, device.AttrUpdateInterval)
	}
	return s.writeAttribute(req, device.AttrUpdateInterval)
}

func (s *Server) handleStatus() Response {
	devices := s.manager.Devices()
	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = d.ID()
	}

	status := Status{
		PID:            os.Getpid(),
		Socket:         s.socketPath,
		Devices:        ids,
		UpdateInterval: s.cfg.UpdateIntervalMS,
		History:        s.store != nil,
		Plugins:        s.registry.List(),
	}
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started.IsZero() {
		status.Uptime = time.Since(started).Round(time.Second).String()
	}
	if s.http != nil {
		status.API = s.cfg.API.Listen
	}
	return Response{Success: true, Data: status}
}

func (s *Server) handleHistory(ctx context.Context, req Request) Response {
	if s.store == nil {
		return errorResponse(errors.New("history is disabled"))
	}

	id := req.Device
	if id == "" {
		d, err := s.manager.Resolve("")
		if err != nil {
			return errorResponse(err)
		}
		id = d.ID()
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	samples, err := s.store.Query(ctx, id, limit)
	if err != nil {
		return errorResponse(fmt.Errorf("history query: %w", err))
	}
	return Response{Success: true, Data: samples}
}

func (s *Server) handlePlugins() Response {
	names := s.registry.List()
	out := make([]PluginInfo, 0, len(names))
	for _, name := range names {
		if info, ok := s.registry.Get(name); ok {
			out = append(out, PluginInfo{Name: name, Info: info})
		}
	}
	return Response{Success: true, Data: out}
}

func (s *Server) handleRescan(ctx context.Context, req Request) Response {
	n, err := s.manager.Rescan(ctx)
	if err != nil {
		return errorResponse(err)
	}
	return Response{Success: true, Message: fmt.Sprintf("%d device(s) attached", n)}
}

// handleLogsSubscribe streams log entries until the client disconnects.
func (s *Server) handleLogsSubscribe(conn net.Conn, filter *LogFilter) {
	defer conn.Close()

	if s.emitter == nil {
		s.sendResponse(conn, errorResponse(errors.New("log streaming is not available")))
		return
	}

	subscriber := NewSocketLogSubscriber(conn, filter)
	s.emitter.Subscribe(subscriber)
	defer func() {
		s.emitter.Unsubscribe(subscriber)
		// Unblock a pending write before waiting for the writer.
		conn.Close()
		subscriber.Close()
	}()

	s.log.Debug("Client subscribed to log stream")

	// The client sends nothing more; a read error means it left.
	buffer := make([]byte, 1)
	for {
		if _, err := conn.Read(buffer); err != nil {
			return
		}
	}
}
