package socketrpc

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/novacrypto/nova/internal/model"
)

// JSON-RPC 2.0 Method Reference
//
// The socket RPC server exposes model.DashboardAPI and model.ThemeStore over a
// Unix domain socket, one newline-delimited JSON object per message.
//
//   Method          Params                       Result
//   ─────────────   ──────────────────────────   ─────────────────
//   VisibleRows     (none)                       []Row
//   View            (none)                       ViewState
//   Status          (none)                       Status
//   Refresh         (none)                       Snapshot
//   SetTab          {Tab: string}                null
//   SetSort         {Key: string, Dir: string}   null   (Dir optional; empty toggles on same key)
//   SetSearch       {Text: string}               null
//   SetCurrency     {Code: string}               null
//   ToggleWatch     {ID: string}                 bool
//   PriceHistory    {ID: string}                 []PricePoint
//   Theme           (none)                       string
//   SetTheme        {Theme: string}              null
//
// Error codes:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32602  Invalid params
//   -32603  Internal error (marshal failure)
//   -32000  Application error
//   -32001  Refresh superseded
//   -32002  Invalid currency
//   -32003  Invalid view value
//   -32004  Upstream market data error

const (
	codeParse           = -32700
	codeMethodNotFound  = -32601
	codeInvalidParams   = -32602
	codeInternal        = -32603
	codeApplication     = -32000
	codeSuperseded      = -32001
	codeInvalidCurrency = -32002
	codeInvalidView     = -32003
	codeUpstream        = -32004
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// Unwrap maps domain error codes back to the model sentinels so callers
// can use errors.Is across the socket.
func (e *RPCError) Unwrap() error {
	switch e.Code {
	case codeSuperseded:
		return model.ErrSuperseded
	case codeInvalidCurrency:
		return model.ErrInvalidCurrency
	case codeInvalidView:
		return model.ErrInvalidView
	}
	return nil
}

func errorCode(err error) int {
	var netErr *model.NetworkError
	var decErr *model.DecodeError
	switch {
	case errors.Is(err, model.ErrSuperseded):
		return codeSuperseded
	case errors.Is(err, model.ErrInvalidCurrency):
		return codeInvalidCurrency
	case errors.Is(err, model.ErrInvalidView):
		return codeInvalidView
	case errors.As(err, &netErr), errors.As(err, &decErr):
		return codeUpstream
	}
	return codeApplication
}

// DefaultSocketPath returns the default Unix socket path.
// It prefers $XDG_RUNTIME_DIR/nova/nova.sock, falling back to
// ~/.local/state/nova/nova.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "nova", "nova.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "nova.sock")
	}
	return filepath.Join(home, ".local", "state", "nova", "nova.sock")
}
