package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultSlackBaseURL is the Slack Web API endpoint.
const DefaultSlackBaseURL = "https://slack.com/api"

// Common errors
var (
	ErrSlackAPI = errors.New("slack API call failed")
)

// Slack posts chat messages and diagnostic file uploads via the Slack Web
// API. Like the webhook it is at-most-once: failures are returned for
// logging and never retried.
type Slack struct {
	// BaseURL is overridable for tests.
	BaseURL string

	token      string
	httpClient *http.Client
}

// NewSlack creates a Slack client with a bounded per-call timeout.
func NewSlack(token string, timeout time.Duration) *Slack {
	return &Slack{
		BaseURL: DefaultSlackBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type slackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// PostMessage sends a chat.postMessage to the given channel.
func (s *Slack) PostMessage(ctx context.Context, channel, text string) error {
	body, err := json.Marshal(map[string]string{
		"channel": channel,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.BaseURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	return s.do(req)
}

// UploadFile ships a file (e.g. a rejected payload) to the given channel
// with an explanatory comment.
func (s *Slack) UploadFile(ctx context.Context, channel, filename, content, comment string) error {
	form := url.Values{}
	form.Set("channels", channel)
	form.Set("filename", filename)
	form.Set("content", content)
	form.Set("initial_comment", comment)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.BaseURL+"/files.upload", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+s.token)

	return s.do(req)
}

func (s *Slack) do(req *http.Request) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrSlackAPI, resp.StatusCode)
	}

	var out slackResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode slack response: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("%w: %s", ErrSlackAPI, out.Error)
	}
	return nil
}
