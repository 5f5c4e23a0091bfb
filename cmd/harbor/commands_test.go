package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/five82/harbor/internal/api"
	"github.com/five82/harbor/internal/logtail"
)

func TestPrintRules(t *testing.T) {
	var buf bytes.Buffer
	printRules(&buf, []api.Rule{
		{ID: "Images", Name: "Images", Extensions: []string{".png", ".jpg"}, Destination: "~/Pictures", Enabled: true},
		{ID: "Docs", Name: "Docs", Extensions: []string{".pdf"}, Destination: "~/Documents"},
	})
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("printRules lines = %d, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "1") || !strings.Contains(lines[1], ".png .jpg") {
		t.Fatalf("first rule line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "false") {
		t.Fatalf("second rule line = %q, want disabled", lines[2])
	}
}

func TestPrintRules_Empty(t *testing.T) {
	var buf bytes.Buffer
	printRules(&buf, nil)
	if got := buf.String(); got != "No rules configured\n" {
		t.Fatalf("printRules(nil) = %q", got)
	}
}

func TestPrintActivity(t *testing.T) {
	var buf bytes.Buffer
	printActivity(&buf,
		[]api.LogEntry{{ID: "1", Filename: "a.pdf", Status: api.StatusSuccess, RuleName: "Docs", DestPath: "~/Documents/a.pdf"}},
		&api.Stats{TotalFilesMoved: 9, FilesMovedToday: 1, FilesMovedThisWeek: 4},
		9,
	)
	out := buf.String()
	for _, want := range []string{"Moved today: 1, this week: 4, total: 9", "a.pdf", "Showing 1 of 9"} {
		if !strings.Contains(out, want) {
			t.Fatalf("printActivity output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	uptime := uint64(90)
	printStatus(&buf, api.ServiceStatus{Running: true, UptimeSeconds: &uptime}, true, "/home/me/Downloads")
	out := buf.String()
	for _, want := range []string{"running (up 1m30s)", "true", "/home/me/Downloads"} {
		if !strings.Contains(out, want) {
			t.Fatalf("printStatus output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintLogs_Plain(t *testing.T) {
	var buf bytes.Buffer
	printLogs(&buf, []logtail.Entry{
		logtail.Parse(`time="2026-10-17T09:30:00Z" level=warning msg="Update check failed" component=update error=timeout`),
		logtail.Parse("goroutine 1 [running]:"),
	}, false)
	want := "2026-10-17T09:30:00Z WARN [update] Update check failed error=timeout\ngoroutine 1 [running]:\n"
	if got := buf.String(); got != want {
		t.Fatalf("printLogs = %q, want %q", got, want)
	}
}
