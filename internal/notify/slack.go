package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/slack-go/slack"
)

// SlackNotifier sends notifications to Slack via a Webhook.
type SlackNotifier struct {
	WebhookURL string
	Client     *http.Client
}

// NewSlackNotifier creates a new SlackNotifier.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts the suite summary to the configured Slack webhook.
func (s *SlackNotifier) Notify(ctx context.Context, msg Message) error {
	if s.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL is not configured")
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	if err := slack.PostWebhookCustomHTTPContext(ctx, s.WebhookURL, client, webhookMessage(msg)); err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	return nil
}

func webhookMessage(msg Message) *slack.WebhookMessage {
	color := "good"
	if !msg.Summary.OK() {
		color = "danger"
	}

	attachment := slack.Attachment{
		Color: color,
		Fields: []slack.AttachmentField{
			{Title: "Passed", Value: strconv.Itoa(msg.Summary.Passed), Short: true},
			{Title: "Failed", Value: strconv.Itoa(msg.Summary.Failed), Short: true},
			{Title: "Skipped", Value: strconv.Itoa(msg.Summary.Skipped), Short: true},
			{Title: "Pass rate", Value: fmt.Sprintf("%.1f%%", msg.Summary.PassRate*100), Short: true},
		},
	}
	if len(msg.Failures) > 0 {
		attachment.Text = "```\n" + msg.FailureLines() + "\n```"
	}

	return &slack.WebhookMessage{
		Text:        msg.Text(),
		Attachments: []slack.Attachment{attachment},
	}
}
