package api

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/five82/harbor/internal/gateway"
)

// recordingGateway answers commands from canned JSON and records payloads.
type recordingGateway struct {
	results  map[string]string
	errs     map[string]error
	payloads map[string]string
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{
		results:  map[string]string{},
		errs:     map[string]error{},
		payloads: map[string]string{},
	}
}

func (g *recordingGateway) Invoke(_ context.Context, command string, payload, result any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	g.payloads[command] = string(data)
	if err := g.errs[command]; err != nil {
		return err
	}
	raw, ok := g.results[command]
	if !ok || result == nil {
		return nil
	}
	return json.Unmarshal([]byte(raw), result)
}

func TestClient_EncodesPayloads(t *testing.T) {
	gw := newRecordingGateway()
	c := NewClient(gw)
	ctx := context.Background()

	if err := c.DeleteRule(ctx, "Images"); err != nil {
		t.Fatalf("DeleteRule returned error: %v", err)
	}
	if err := c.ToggleRule(ctx, "Images", false); err != nil {
		t.Fatalf("ToggleRule returned error: %v", err)
	}
	if err := c.ReorderRules(ctx, []string{"C", "A", "B"}); err != nil {
		t.Fatalf("ReorderRules returned error: %v", err)
	}
	if _, err := c.FetchActivityLogs(ctx, 50, 100); err != nil {
		t.Fatalf("FetchActivityLogs returned error: %v", err)
	}
	if err := c.SetLastNotifiedVersion(ctx, "1.4.0"); err != nil {
		t.Fatalf("SetLastNotifiedVersion returned error: %v", err)
	}

	want := map[string]string{
		CmdDeleteRule:             `{"ruleName":"Images"}`,
		CmdToggleRule:             `{"ruleName":"Images","enabled":false}`,
		CmdReorderRules:           `{"ruleNames":["C","A","B"]}`,
		CmdGetActivityLogs:        `{"limit":50,"offset":100}`,
		CmdSetLastNotifiedVersion: `{"version":"1.4.0"}`,
	}
	for cmd, payload := range want {
		if got := gw.payloads[cmd]; got != payload {
			t.Errorf("%s payload = %s, want %s", cmd, got, payload)
		}
	}
}

func TestClient_DecodesResults(t *testing.T) {
	gw := newRecordingGateway()
	gw.results[CmdGetRules] = `[{"id":"Images","name":"Images","extensions":[".jpg"],"destination":"/pics","create_symlink":false,"enabled":true,"icon":"image","icon_color":"indigo"}]`
	gw.results[CmdGetServiceStatus] = `{"running":true,"uptime_seconds":90}`
	gw.results[CmdTriggerOrganizeNow] = `3`
	gw.results[CmdGetLastNotifiedVersion] = `null`
	c := NewClient(gw)
	ctx := context.Background()

	rules, err := c.FetchRules(ctx)
	if err != nil {
		t.Fatalf("FetchRules returned error: %v", err)
	}
	if len(rules) != 1 || rules[0].ID != "Images" || rules[0].IconColor != "indigo" {
		t.Fatalf("FetchRules = %#v, want Images rule", rules)
	}

	status, err := c.FetchServiceStatus(ctx)
	if err != nil {
		t.Fatalf("FetchServiceStatus returned error: %v", err)
	}
	if !status.Running || status.Uptime().Seconds() != 90 {
		t.Fatalf("FetchServiceStatus = %#v, want running 90s", status)
	}

	moved, err := c.OrganizeNow(ctx)
	if err != nil || moved != 3 {
		t.Fatalf("OrganizeNow = %d, %v; want 3", moved, err)
	}

	v, err := c.FetchLastNotifiedVersion(ctx)
	if err != nil || v != "" {
		t.Fatalf("FetchLastNotifiedVersion = %q, %v; want empty", v, err)
	}
}

func TestClient_PropagatesErrors(t *testing.T) {
	gw := newRecordingGateway()
	gw.errs[CmdGetDownloadDir] = &gateway.Error{Command: CmdGetDownloadDir, Message: "config missing"}
	c := NewClient(gw)

	_, err := c.FetchDownloadDir(context.Background())
	var remote *gateway.Error
	if !errors.As(err, &remote) {
		t.Fatalf("FetchDownloadDir error = %v, want *gateway.Error", err)
	}
}

func TestClient_ValidatesArguments(t *testing.T) {
	c := NewClient(newRecordingGateway())
	ctx := context.Background()

	if _, err := c.UpdateRule(ctx, RulePatch{}); err == nil {
		t.Fatalf("UpdateRule without id returned nil error")
	}
	if _, err := c.FetchActivityLogs(ctx, 0, 0); err == nil {
		t.Fatalf("FetchActivityLogs with zero limit returned nil error")
	}
	if _, err := c.FetchActivityLogs(ctx, 10, -1); err == nil {
		t.Fatalf("FetchActivityLogs with negative offset returned nil error")
	}

	var nilClient *Client
	if _, err := nilClient.FetchRules(ctx); err == nil {
		t.Fatalf("nil client returned nil error")
	}
}
