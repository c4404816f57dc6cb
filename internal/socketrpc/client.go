package socketrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/novacrypto/nova/internal/model"
)

const defaultCallTimeout = 30 * time.Second

// Client implements model.DashboardAPI and model.ThemeStore over a Unix
// domain socket using JSON-RPC 2.0. Calls are serialized.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	nextID  int
	scanner *bufio.Scanner
	encoder *json.Encoder
}

var (
	_ model.DashboardAPI = (*Client)(nil)
	_ model.ThemeStore   = (*Client)(nil)
)

// Dial connects to the socket RPC server at the given path.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("socketrpc: dial: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	return &Client{
		conn:    conn,
		scanner: scanner,
		encoder: json.NewEncoder(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call performs a JSON-RPC call and unmarshals the result into dest.
func (c *Client) call(ctx context.Context, method string, params, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	req := Request{JSONRPC: "2.0", ID: c.nextID, Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("socketrpc: marshal params: %w", err)
		}
		req.Params = data
	}

	deadline := time.Now().Add(defaultCallTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetDeadline(deadline)
	defer c.conn.SetDeadline(time.Time{})

	if err := c.encoder.Encode(req); err != nil {
		return fmt.Errorf("socketrpc: send: %w", err)
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return fmt.Errorf("socketrpc: read: %w", err)
		}
		return fmt.Errorf("socketrpc: connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("socketrpc: unmarshal response: %w", err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("socketrpc: response id %d, want %d", resp.ID, req.ID)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if dest != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("socketrpc: unmarshal result: %w", err)
		}
	}
	return nil
}

func (c *Client) VisibleRows() ([]model.Row, error) {
	var rows []model.Row
	err := c.call(context.Background(), "VisibleRows", nil, &rows)
	return rows, err
}

func (c *Client) View() (model.ViewState, error) {
	var vs model.ViewState
	err := c.call(context.Background(), "View", nil, &vs)
	return vs, err
}

func (c *Client) Status() (model.Status, error) {
	var st model.Status
	err := c.call(context.Background(), "Status", nil, &st)
	return st, err
}

func (c *Client) Refresh(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	err := c.call(ctx, "Refresh", nil, &snap)
	return snap, err
}

func (c *Client) SetTab(tab model.Tab) error {
	return c.call(context.Background(), "SetTab", map[string]any{"Tab": tab}, nil)
}

func (c *Client) SetSort(key model.SortKey) error {
	return c.call(context.Background(), "SetSort", map[string]any{"Key": key}, nil)
}

func (c *Client) SetSortDirection(dir model.SortDirection) error {
	return c.call(context.Background(), "SetSort", map[string]any{"Dir": dir}, nil)
}

func (c *Client) SetSearch(text string) error {
	return c.call(context.Background(), "SetSearch", map[string]any{"Text": text}, nil)
}

func (c *Client) SetCurrency(code string) error {
	return c.call(context.Background(), "SetCurrency", map[string]any{"Code": code}, nil)
}

func (c *Client) ToggleWatch(id string) (bool, error) {
	var watched bool
	err := c.call(context.Background(), "ToggleWatch", map[string]any{"ID": id}, &watched)
	return watched, err
}

func (c *Client) PriceHistory(ctx context.Context, id string) ([]model.PricePoint, error) {
	var points []model.PricePoint
	if err := c.call(ctx, "PriceHistory", map[string]any{"ID": id}, &points); err != nil {
		return []model.PricePoint{}, err
	}
	return points, nil
}

func (c *Client) Theme() (string, error) {
	var theme string
	err := c.call(context.Background(), "Theme", nil, &theme)
	return theme, err
}

func (c *Client) SetTheme(theme string) error {
	return c.call(context.Background(), "SetTheme", map[string]any{"Theme": theme}, nil)
}
