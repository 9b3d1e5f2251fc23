package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	colorRed    = 0xE74C3C // every search failed
	colorOrange = 0xE67E22 // partial failure

	// maxFields is how many failed searches are listed before summarizing.
	maxFields = 10
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendWarmReport posts report as a single Discord embed.
func (d *DiscordNotifier) SendWarmReport(ctx context.Context, report *WarmReport) error {
	payload := discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(report)},
	}
	return d.post(ctx, payload)
}

func buildEmbed(report *WarmReport) discordEmbed {
	embed := discordEmbed{
		Title: fmt.Sprintf("Cache warm: %d of %d saved searches failed",
			len(report.Failed), report.Total),
		Color:       colorOrange,
		Description: fmt.Sprintf("Cycle took %s.", report.Duration.Round(time.Millisecond)),
	}
	if report.AllFailed() {
		embed.Color = colorRed
		embed.Description += " The upstream RESO API may be down or the quota spent."
	}

	limit := min(len(report.Failed), maxFields)
	for _, f := range report.Failed[:limit] {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:   f.Name,
			Value:  f.Kind,
			Inline: true,
		})
	}

	if rest := report.Failed[limit:]; len(rest) > 0 {
		names := make([]string, 0, len(rest))
		for _, f := range rest {
			names = append(names, f.Name)
		}
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:  fmt.Sprintf("... and %d more", len(rest)),
			Value: strings.Join(names, ", "),
		})
	}

	return embed
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
