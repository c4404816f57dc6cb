package tui

import (
	"testing"
	"time"
)

func TestAppNavigatesWithParams(t *testing.T) {
	api := newFakeAPI()
	dash := newLoadedDashboard(t, api)
	detail := NewDetailPage(api)
	app := NewApp(dash, detail)

	if app.ActivePage() != PageDashboard {
		t.Fatalf("ActivePage = %q, want %q", app.ActivePage(), PageDashboard)
	}

	app.Update(keyMsg("enter"))
	if app.ActivePage() != PageDetail {
		t.Fatalf("ActivePage = %q, want %q", app.ActivePage(), PageDetail)
	}
	if detail.row.ID != "bitcoin" {
		t.Fatalf("detail row = %q, want bitcoin", detail.row.ID)
	}

	app.Update(keyMsg("esc"))
	if app.ActivePage() != PageDashboard {
		t.Fatalf("ActivePage = %q, want %q", app.ActivePage(), PageDashboard)
	}
}

func TestAppUnknownPageStays(t *testing.T) {
	app := NewApp(NewDashboardPage(newFakeAPI(), time.Hour))

	app.Update(keyMsg("down"))
	if app.ActivePage() != PageDashboard {
		t.Fatalf("ActivePage = %q, want %q", app.ActivePage(), PageDashboard)
	}
	if app.View() != "" {
		t.Fatal("View before window size should be empty")
	}
}
