package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/carlmjohnson/requests"
)

const slackPostMessageURL = "https://slack.com/api/chat.postMessage"

// Slack posts notifications to a channel with a bot token.
type Slack struct {
	botToken  string
	channelID string
	endpoint  string
	cl        *http.Client
}

type slackMessage struct {
	Channel     string            `json:"channel"`
	Text        string            `json:"text,omitempty"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color string `json:"color"`
	Title string `json:"title"`
	Text  string `json:"text"`
	Ts    int64  `json:"ts,omitempty"`
}

type slackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewSlack returns a Slack channel.
func NewSlack(botToken, channelID string) *Slack {
	return &Slack{
		botToken:  botToken,
		channelID: channelID,
		endpoint:  slackPostMessageURL,
		cl:        &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts title/message as a single attachment.
func (s *Slack) Notify(ctx context.Context, title, message string) error {
	msg := slackMessage{
		Channel: s.channelID,
		Attachments: []slackAttachment{{
			Color: "#36a64f",
			Title: title,
			Text:  message,
			Ts:    time.Now().Unix(),
		}},
	}
	var resp slackResponse
	err := requests.URL(s.endpoint).
		Client(s.cl).
		Bearer(s.botToken).
		BodyJSON(msg).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("slack API error: %s", resp.Error)
	}
	return nil
}
