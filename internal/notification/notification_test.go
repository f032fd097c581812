package notification

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/backtest"
)

type recordingNotifier struct {
	enabled bool
	sent    []*Notification
}

func (r *recordingNotifier) Send(n *Notification) error {
	r.sent = append(r.sent, n)
	return nil
}
func (r *recordingNotifier) Name() string    { return "recording" }
func (r *recordingNotifier) IsEnabled() bool { return r.enabled }

func TestManagerFanOutSkipsDisabled(t *testing.T) {
	m := NewManager()
	on := &recordingNotifier{enabled: true}
	off := &recordingNotifier{enabled: false}
	m.AddNotifier(on)
	m.AddNotifier(off)

	if err := m.SendError("boom", "details"); err != nil {
		t.Fatal(err)
	}
	if len(on.sent) != 1 {
		t.Errorf("Enabled notifier received %d notifications, want 1", len(on.sent))
	}
	if len(off.sent) != 0 {
		t.Errorf("Disabled notifier received %d notifications, want 0", len(off.sent))
	}
}

func TestSendBacktestDoneSummary(t *testing.T) {
	m := NewManager()
	rec := &recordingNotifier{enabled: true}
	m.AddNotifier(rec)

	result := &backtest.Result{
		Symbol:         "SPY",
		InitialBalance: 25000,
		FinalBalance:   26500,
		NetProfit:      1500,
		TotalTrades:    8,
		WinRate:        0.625,
	}
	if err := m.SendBacktestDone(result); err != nil {
		t.Fatal(err)
	}
	if len(rec.sent) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(rec.sent))
	}
	n := rec.sent[0]
	if n.Type != NotifyBacktestDone || n.Symbol != "SPY" {
		t.Errorf("Notification = %+v", n)
	}
	if !strings.Contains(n.Message, "Trades: 8") || !strings.Contains(n.Message, "62.5%") {
		t.Errorf("Summary message missing metrics: %q", n.Message)
	}
}

func TestWebhookNotifierPayload(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhookNotifier(WebhookConfig{URL: srv.URL, Enabled: true})
	err := wh.Send(&Notification{Title: "Backtest complete: SPY", Message: "Trades: 3"})
	if err != nil {
		t.Fatal(err)
	}
	content, _ := body["content"].(string)
	if !strings.Contains(content, "**Backtest complete: SPY**") || !strings.Contains(content, "Trades: 3") {
		t.Errorf("Webhook content = %q", content)
	}
}

func TestWebhookNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	wh := NewWebhookNotifier(WebhookConfig{URL: srv.URL, Enabled: true})
	if err := wh.Send(&Notification{Title: "x"}); err == nil {
		t.Error("Expected error for non-2xx webhook response")
	}
}

func TestWebhookDisabledWithoutURL(t *testing.T) {
	wh := NewWebhookNotifier(WebhookConfig{Enabled: true})
	if wh.IsEnabled() {
		t.Error("Webhook with no URL must stay disabled")
	}
}
