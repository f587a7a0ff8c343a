// Package notify implements the admin notification subscribers: email and
// Telegram messages sent after offer and contact submissions. Both are
// best-effort; failures are logged, never propagated.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"catalog-analytics-api/internal/events"
)

// TelegramConfig holds Telegram bot credentials.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// EmailConfig holds SMTP settings for admin notification mail.
type EmailConfig struct {
	Host       string
	Port       string
	From       string
	Password   string
	Recipients []string
}

// Notifier sends admin notifications for submitted forms.
type Notifier struct {
	telegram TelegramConfig
	email    EmailConfig
	client   *http.Client

	// telegramAPI is overridable in tests
	telegramAPI string
}

// NewNotifier creates a notifier. Channels with empty configuration are
// skipped silently.
func NewNotifier(tg TelegramConfig, em EmailConfig) *Notifier {
	return &Notifier{
		telegram:    tg,
		email:       em,
		client:      &http.Client{Timeout: 10 * time.Second},
		telegramAPI: "https://api.telegram.org",
	}
}

// Register subscribes the notifier to offer and contact events.
func (n *Notifier) Register(mgr *events.Manager) {
	mgr.Subscribe(events.EventOfferCreated, n.HandleOfferCreated)
	mgr.Subscribe(events.EventContactCreated, n.HandleContactCreated)
}

// HandleOfferCreated sends the new-offer notification.
func (n *Notifier) HandleOfferCreated(ctx context.Context, ev events.Event) error {
	data, ok := ev.Data.(events.OfferCreatedData)
	if !ok {
		return fmt.Errorf("notify: unexpected payload for %s", ev.Type)
	}
	o := data.Offer

	body := fmt.Sprintf(
		"New product offer\nCustomer: %s %s\nPhone: %s\nEmail: %s\nCity: %s\nProduct: %s\nQuantity: %d\nText: %s\nDate: %s\n",
		o.FirstName, o.LastName, o.Phone, orDash(o.Email), orDash(o.City),
		data.ProductName, o.Quantity, orDash(o.OfferText),
		o.CreatedAt.Format("2006-01-02 15:04"))

	n.sendEmail(ctx, "New Product Offer", body)
	n.sendTelegram(ctx, "<b>New Product Offer</b>\n"+body)
	return nil
}

// HandleContactCreated sends the new-contact-message notification.
func (n *Notifier) HandleContactCreated(ctx context.Context, ev events.Event) error {
	data, ok := ev.Data.(events.ContactCreatedData)
	if !ok {
		return fmt.Errorf("notify: unexpected payload for %s", ev.Type)
	}
	m := data.Message

	body := fmt.Sprintf(
		"New contact message\nCustomer: %s %s\nEmail: %s\nPhone: %s\nSubject: %s\n\n%s\n\nDate: %s\n",
		m.FirstName, m.LastName, m.Email, orDash(m.Phone), orDash(m.Subject),
		m.Message, m.CreatedAt.Format("2006-01-02 15:04"))

	n.sendEmail(ctx, "New Contact Message", body)
	n.sendTelegram(ctx, "<b>New Contact Message</b>\n"+body)
	return nil
}

func (n *Notifier) sendEmail(ctx context.Context, subject, body string) {
	if n.email.Host == "" || len(n.email.Recipients) == 0 {
		return
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.email.From, strings.Join(n.email.Recipients, ", "), subject, body)

	addr := n.email.Host + ":" + n.email.Port
	var auth smtp.Auth
	if n.email.Password != "" {
		auth = smtp.PlainAuth("", n.email.From, n.email.Password, n.email.Host)
	}
	if err := smtp.SendMail(addr, auth, n.email.From, n.email.Recipients, []byte(msg)); err != nil {
		log.Printf("notify: email send failed: %v", err)
	}
}

func (n *Notifier) sendTelegram(ctx context.Context, text string) {
	if n.telegram.BotToken == "" || n.telegram.ChatID == "" || text == "" {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"chat_id":                  n.telegram.ChatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
	if err != nil {
		log.Printf("notify: telegram payload marshal failed: %v", err)
		return
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.telegramAPI, n.telegram.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		log.Printf("notify: telegram request build failed: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Printf("notify: telegram send failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("notify: telegram send failed: status %d", resp.StatusCode)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
