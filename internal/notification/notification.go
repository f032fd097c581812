// Package notification delivers run summaries to external channels.
package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/backtest"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotifyBacktestDone NotificationType = "backtest_done"
	NotifyOptimizeDone NotificationType = "optimize_done"
	NotifyError        NotificationType = "error"
)

// Notification represents a notification message
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Symbol    string
	Timestamp time.Time
}

// Notifier interface for different notification providers
type Notifier interface {
	Send(notification *Notification) error
	Name() string
	IsEnabled() bool
}

// Manager fans one notification out to every enabled provider.
type Manager struct {
	notifiers []Notifier
	enabled   bool
}

// NewManager creates a new notification manager
func NewManager() *Manager {
	return &Manager{
		notifiers: make([]Notifier, 0),
		enabled:   true,
	}
}

// AddNotifier adds a notification provider
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Send sends a notification to all enabled providers
func (m *Manager) Send(notification *Notification) error {
	if !m.enabled {
		return nil
	}

	var lastErr error
	for _, n := range m.notifiers {
		if n.IsEnabled() {
			if err := n.Send(notification); err != nil {
				lastErr = err
			}
		}
	}
	return lastErr
}

// SendBacktestDone sends a completed-backtest summary.
func (m *Manager) SendBacktestDone(result *backtest.Result) error {
	return m.Send(&Notification{
		Type:  NotifyBacktestDone,
		Title: fmt.Sprintf("Backtest complete: %s", result.Symbol),
		Message: fmt.Sprintf(
			"Trades: %d | Win rate: %.1f%% | Net: %.2f | Max DD: %.2f\nBalance: %.2f -> %.2f",
			result.TotalTrades, result.WinRate*100, result.NetProfit, result.MaxDrawdown,
			result.InitialBalance, result.FinalBalance,
		),
		Symbol:    result.Symbol,
		Timestamp: time.Now(),
	})
}

// SendError sends an error notification
func (m *Manager) SendError(title, message string) error {
	return m.Send(&Notification{
		Type:      NotifyError,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// WebhookNotifier posts notifications as JSON to a configured URL
// (Discord-compatible payload).
type WebhookNotifier struct {
	url     string
	enabled bool
	client  *http.Client
}

// WebhookConfig holds webhook configuration
type WebhookConfig struct {
	URL     string
	Enabled bool
}

// NewWebhookNotifier creates a new webhook notifier
func NewWebhookNotifier(config WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{
		url:     config.URL,
		enabled: config.Enabled && config.URL != "",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookNotifier) Name() string {
	return "webhook"
}

func (w *WebhookNotifier) IsEnabled() bool {
	return w.enabled
}

func (w *WebhookNotifier) Send(notification *Notification) error {
	if !w.enabled {
		return nil
	}

	payload := map[string]interface{}{
		"content": fmt.Sprintf("**%s**\n%s", notification.Title, notification.Message),
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send webhook message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
