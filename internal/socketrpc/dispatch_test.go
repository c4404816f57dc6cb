package socketrpc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/novacrypto/nova/internal/model"
)

// stubAPI returns fixed values and records mutations for dispatch unit testing.
type stubAPI struct {
	view       model.ViewState
	refreshErr error
	toggles    []string
	sortCalls  []model.SortKey
}

func newStubAPI() *stubAPI {
	return &stubAPI{view: model.DefaultViewState()}
}

func (s *stubAPI) VisibleRows() ([]model.Row, error) {
	return []model.Row{{AssetQuote: model.AssetQuote{ID: "bitcoin", Price: 1}}}, nil
}
func (s *stubAPI) View() (model.ViewState, error)  { return s.view, nil }
func (s *stubAPI) Status() (model.Status, error)   { return model.Status{State: model.RefreshIdle}, nil }
func (s *stubAPI) SetSearch(text string) error     { s.view.Search = text; return nil }
func (s *stubAPI) SetCurrency(code string) error   { return model.ErrInvalidCurrency }
func (s *stubAPI) SetTab(tab model.Tab) error      { s.view.Tab = tab; return nil }
func (s *stubAPI) SetSortDirection(d model.SortDirection) error {
	s.view.SortDirection = d
	return nil
}
func (s *stubAPI) SetSort(key model.SortKey) error {
	s.sortCalls = append(s.sortCalls, key)
	s.view.SortKey = key
	return nil
}
func (s *stubAPI) Refresh(ctx context.Context) (model.Snapshot, error) {
	if s.refreshErr != nil {
		return model.Snapshot{}, s.refreshErr
	}
	return model.Snapshot{Seq: 7, Currency: "usd", FetchedAt: time.Now()}, nil
}
func (s *stubAPI) ToggleWatch(id string) (bool, error) {
	s.toggles = append(s.toggles, id)
	return true, nil
}
func (s *stubAPI) PriceHistory(ctx context.Context, id string) ([]model.PricePoint, error) {
	return []model.PricePoint{{Time: time.Unix(0, 0), Price: 2}}, nil
}

func newTestDispatcher() (*Server, *stubAPI) {
	api := newStubAPI()
	return NewServer("", api, nil), api
}

func TestDispatch_AllMethods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method string
		params string
	}{
		{"VisibleRows", ``},
		{"View", `{}`},
		{"Status", `null`},
		{"Refresh", ``},
		{"SetTab", `{"Tab":"watchlist"}`},
		{"SetSort", `{"Key":"price"}`},
		{"SetSearch", `{"Text":"btc"}`},
		{"ToggleWatch", `{"ID":"bitcoin"}`},
		{"PriceHistory", `{"ID":"bitcoin"}`},
		{"Theme", ``},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			t.Parallel()
			srv, _ := newTestDispatcher()
			resp := srv.dispatch(Request{
				JSONRPC: "2.0",
				ID:      1,
				Method:  tt.method,
				Params:  json.RawMessage(tt.params),
			})
			if resp.Error != nil {
				t.Fatalf("dispatch(%s) error: %s", tt.method, resp.Error.Message)
			}
			if resp.Result == nil {
				t.Fatalf("dispatch(%s) returned nil result", tt.method)
			}
			if resp.JSONRPC != "2.0" || resp.ID != 1 {
				t.Errorf("envelope = %q/%d, want 2.0/1", resp.JSONRPC, resp.ID)
			}
		})
	}
}

func TestDispatch_MethodNotFound(t *testing.T) {
	t.Parallel()
	srv, _ := newTestDispatcher()

	resp := srv.dispatch(Request{JSONRPC: "2.0", ID: 1, Method: "DropTables"})
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("error = %+v, want code %d", resp.Error, codeMethodNotFound)
	}
}

func TestDispatch_InvalidParams(t *testing.T) {
	t.Parallel()
	srv, _ := newTestDispatcher()

	resp := srv.dispatch(Request{
		JSONRPC: "2.0",
		ID:      2,
		Method:  "ToggleWatch",
		Params:  json.RawMessage(`not json`),
	})
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("error = %+v, want code %d", resp.Error, codeInvalidParams)
	}
}

func TestDispatch_ErrorCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		code int
	}{
		{model.ErrSuperseded, codeSuperseded},
		{&model.NetworkError{Op: "markets", StatusCode: 502}, codeUpstream},
		{&model.DecodeError{Op: "markets", Err: errors.New("bad")}, codeUpstream},
		{errors.New("boom"), codeApplication},
	}
	for _, tt := range tests {
		srv, api := newTestDispatcher()
		api.refreshErr = tt.err
		resp := srv.dispatch(Request{JSONRPC: "2.0", ID: 3, Method: "Refresh"})
		if resp.Error == nil || resp.Error.Code != tt.code {
			t.Errorf("Refresh with %v: error = %+v, want code %d", tt.err, resp.Error, tt.code)
		}
	}

	srv, _ := newTestDispatcher()
	resp := srv.dispatch(Request{JSONRPC: "2.0", ID: 4, Method: "SetCurrency", Params: json.RawMessage(`{"Code":"xx"}`)})
	if resp.Error == nil || !errors.Is(resp.Error, model.ErrInvalidCurrency) {
		t.Errorf("SetCurrency error = %+v, want ErrInvalidCurrency", resp.Error)
	}
}

func TestDispatch_SetSortExplicitDirection(t *testing.T) {
	t.Parallel()
	srv, api := newTestDispatcher()

	resp := srv.dispatch(Request{JSONRPC: "2.0", ID: 1, Method: "SetSort", Params: json.RawMessage(`{"Key":"change","Dir":"asc"}`)})
	if resp.Error != nil {
		t.Fatalf("SetSort: %s", resp.Error.Message)
	}
	if api.view.SortKey != model.SortChange || api.view.SortDirection != model.SortAsc {
		t.Errorf("view = %+v, want change asc", api.view)
	}

	// Same key with an explicit direction must not toggle.
	srv.dispatch(Request{JSONRPC: "2.0", ID: 2, Method: "SetSort", Params: json.RawMessage(`{"Key":"change","Dir":"desc"}`)})
	if len(api.sortCalls) != 1 {
		t.Errorf("SetSort called %d times, want 1", len(api.sortCalls))
	}
	if api.view.SortDirection != model.SortDesc {
		t.Errorf("SortDirection = %s, want desc", api.view.SortDirection)
	}

	resp = srv.dispatch(Request{JSONRPC: "2.0", ID: 3, Method: "SetSort", Params: json.RawMessage(`{"Dir":"up"}`)})
	if resp.Error == nil || resp.Error.Code != codeInvalidView {
		t.Errorf("invalid direction error = %+v, want code %d", resp.Error, codeInvalidView)
	}
}

func TestDispatch_ThemeWithoutStore(t *testing.T) {
	t.Parallel()
	srv, _ := newTestDispatcher()

	resp := srv.dispatch(Request{JSONRPC: "2.0", ID: 1, Method: "Theme"})
	var theme string
	if err := json.Unmarshal(resp.Result, &theme); err != nil || theme != "light" {
		t.Errorf("Theme = %q, %v; want light", theme, err)
	}
	resp = srv.dispatch(Request{JSONRPC: "2.0", ID: 2, Method: "SetTheme", Params: json.RawMessage(`{"Theme":"dark"}`)})
	if resp.Error == nil {
		t.Error("SetTheme without a theme store should fail")
	}
}

func TestDispatch_PreservesRequestID(t *testing.T) {
	t.Parallel()
	srv, _ := newTestDispatcher()

	for _, id := range []int{0, 1, 42, 9999} {
		resp := srv.dispatch(Request{JSONRPC: "2.0", ID: id, Method: "Status"})
		if resp.ID != id {
			t.Errorf("request ID %d: response ID = %d", id, resp.ID)
		}
	}
}
