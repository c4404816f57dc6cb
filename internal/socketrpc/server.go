package socketrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/novacrypto/nova/internal/model"
)

const (
	// scannerInitBufSize is the initial buffer size for the per-connection scanner (64 KB).
	scannerInitBufSize = 64 * 1024
	// scannerMaxTokenSize is the maximum token size the scanner will accept (4 MB).
	scannerMaxTokenSize = 4 * 1024 * 1024
)

// Server exposes the dashboard over a Unix domain socket using JSON-RPC 2.0.
type Server struct {
	socketPath string
	api        model.DashboardAPI
	themes     model.ThemeStore
	listener   net.Listener

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewServer creates a new socket RPC server. themes may be nil.
func NewServer(socketPath string, api model.DashboardAPI, themes model.ThemeStore) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		api:        api,
		themes:     themes,
		ctx:        ctx,
		cancel:     cancel,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Start begins listening on the Unix socket and accepting connections.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("socketrpc: mkdir: %w", err)
	}

	// Remove a stale socket left by a crashed daemon.
	if _, err := os.Stat(s.socketPath); err == nil {
		conn, dialErr := net.DialTimeout("unix", s.socketPath, 500*time.Millisecond)
		if dialErr != nil {
			os.Remove(s.socketPath)
		} else {
			conn.Close()
			return fmt.Errorf("socketrpc: another server is already listening on %s", s.socketPath)
		}
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("socketrpc: listen: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()

	log.Printf("socketrpc: listening on %s", s.socketPath)
	return nil
}

// Stop closes the listener and open connections, waits for handlers to
// return and removes the socket file. Safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Lock()
		for c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
		os.Remove(s.socketPath)
	})
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				log.Printf("socketrpc: accept error: %v", err)
				time.Sleep(50 * time.Millisecond)
				continue
			}
		}

		s.mu.Lock()
		if s.ctx.Err() != nil {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			encoder.Encode(Response{JSONRPC: "2.0", Error: &RPCError{Code: codeParse, Message: "parse error"}})
			continue
		}
		if err := encoder.Encode(s.dispatch(req)); err != nil {
			return
		}
	}
}

// decode unmarshals optional params; empty or null params leave dst zeroed.
func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func (s *Server) dispatch(req Request) Response {
	resp := Response{JSONRPC: "2.0", ID: req.ID}

	result := func(v any, err error) Response {
		if err != nil {
			resp.Error = &RPCError{Code: errorCode(err), Message: err.Error()}
			return resp
		}
		data, merr := json.Marshal(v)
		if merr != nil {
			resp.Error = &RPCError{Code: codeInternal, Message: merr.Error()}
			return resp
		}
		resp.Result = data
		return resp
	}
	done := func(err error) Response { return result(nil, err) }

	invalidParams := func(err error) Response {
		resp.Error = &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
		return resp
	}

	switch req.Method {
	case "VisibleRows":
		return result(s.api.VisibleRows())

	case "View":
		return result(s.api.View())

	case "Status":
		return result(s.api.Status())

	case "Refresh":
		return result(s.api.Refresh(s.ctx))

	case "SetTab":
		var p struct{ Tab model.Tab }
		if err := decode(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		return done(s.api.SetTab(p.Tab))

	case "SetSort":
		var p struct {
			Key model.SortKey
			Dir model.SortDirection
		}
		if err := decode(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		if p.Dir != "" {
			return done(s.setSortExplicit(p.Key, p.Dir))
		}
		return done(s.api.SetSort(p.Key))

	case "SetSearch":
		var p struct{ Text string }
		if err := decode(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		return done(s.api.SetSearch(p.Text))

	case "SetCurrency":
		var p struct{ Code string }
		if err := decode(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		return done(s.api.SetCurrency(p.Code))

	case "ToggleWatch":
		var p struct{ ID string }
		if err := decode(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		return result(s.api.ToggleWatch(p.ID))

	case "PriceHistory":
		var p struct{ ID string }
		if err := decode(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
		defer cancel()
		return result(s.api.PriceHistory(ctx, p.ID))

	case "Theme":
		if s.themes == nil {
			return result(model.DefaultTheme, nil)
		}
		return result(s.themes.Theme())

	case "SetTheme":
		var p struct{ Theme string }
		if err := decode(req.Params, &p); err != nil {
			return invalidParams(err)
		}
		if s.themes == nil {
			return done(fmt.Errorf("%w: theme storage unavailable", model.ErrInvalidView))
		}
		return done(s.themes.SetTheme(p.Theme))

	default:
		resp.Error = &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
		return resp
	}
}

// setSortExplicit selects key without toggling and then applies dir.
func (s *Server) setSortExplicit(key model.SortKey, dir model.SortDirection) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: sort direction %q", model.ErrInvalidView, dir)
	}
	if key != "" {
		vs, err := s.api.View()
		if err != nil {
			return err
		}
		if vs.SortKey != key {
			if err := s.api.SetSort(key); err != nil {
				return err
			}
		}
	}
	return s.api.SetSortDirection(dir)
}
