package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// LogNotifier writes the alert to the structured log at error level. It is
// normally the last link in the chain and never fails.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a [LogNotifier]. A nil logger selects
// [slog.Default] at notification time.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Name implements [Notifier].
func (*LogNotifier) Name() string { return "log" }

// Notify implements [Notifier].
func (n *LogNotifier) Notify(ctx context.Context, a Alert, msg string) error {
	l := n.logger
	if l == nil {
		l = slog.Default()
	}
	attrs := []slog.Attr{
		slog.String("message", msg),
		slog.Time("raised_at", a.At),
	}
	if a.Location != nil {
		attrs = append(attrs,
			slog.Float64("lat", a.Location.Lat),
			slog.Float64("long", a.Location.Long),
		)
	}
	l.LogAttrs(ctx, slog.LevelError, "emergency alert", attrs...)
	return nil
}

// webhookExecutor is the subset of *discordgo.Session used by
// [DiscordNotifier].
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// alertColor is the embed side-bar colour (red).
const alertColor = 0xE53935

// DiscordNotifier posts alerts to a Discord channel through an incoming
// webhook. No bot token is needed.
type DiscordNotifier struct {
	exec     webhookExecutor
	id       string
	token    string
	username string
}

// DiscordOption configures a [DiscordNotifier].
type DiscordOption func(*DiscordNotifier)

// WithUsername overrides the display name of webhook posts.
func WithUsername(name string) DiscordOption {
	return func(n *DiscordNotifier) {
		n.username = name
	}
}

// withExecutor replaces the Discord session. Used by tests.
func withExecutor(e webhookExecutor) DiscordOption {
	return func(n *DiscordNotifier) {
		n.exec = e
	}
}

// NewDiscordNotifier returns a [DiscordNotifier] for a webhook URL of the
// form https://discord.com/api/webhooks/<id>/<token>.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) (*DiscordNotifier, error) {
	id, token, err := ParseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	n := &DiscordNotifier{id: id, token: token, username: "Awaaz SOS"}
	for _, o := range opts {
		o(n)
	}
	if n.exec == nil {
		s, err := discordgo.New("")
		if err != nil {
			return nil, fmt.Errorf("alert: create discord session: %w", err)
		}
		n.exec = s
	}
	return n, nil
}

// ParseWebhookURL extracts the webhook id and token from a Discord webhook
// URL.
func ParseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("alert: parse webhook url: %w", err)
	}
	if u.Scheme != "https" {
		return "", "", errors.New("alert: webhook url must use https")
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// api/webhooks/<id>/<token>, optionally api/v10/webhooks/<id>/<token>
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", errors.New("alert: webhook url must end in /webhooks/<id>/<token>")
}

// Name implements [Notifier].
func (*DiscordNotifier) Name() string { return "discord" }

// Notify implements [Notifier].
func (n *DiscordNotifier) Notify(ctx context.Context, a Alert, msg string) error {
	_, err := n.exec.WebhookExecute(n.id, n.token, true, &discordgo.WebhookParams{
		Username: n.username,
		Content:  msg,
		Embeds:   []*discordgo.MessageEmbed{buildEmbed(a)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("alert: discord webhook: %w", err)
	}
	return nil
}

func buildEmbed(a Alert) *discordgo.MessageEmbed {
	at := a.At
	if at.IsZero() {
		at = time.Now()
	}
	embed := &discordgo.MessageEmbed{
		Title:     "EMERGENCY ALERT",
		Color:     alertColor,
		Timestamp: at.UTC().Format(time.RFC3339),
	}
	if a.Location == nil {
		embed.Description = LocationUnavailable
		return embed
	}
	embed.URL = a.Location.MapsLink()
	embed.Description = "User needs help."
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Latitude", Value: formatCoord(a.Location.Lat), Inline: true},
		{Name: "Longitude", Value: formatCoord(a.Location.Long), Inline: true},
		{Name: "Map", Value: a.Location.MapsLink()},
	}
	return embed
}
