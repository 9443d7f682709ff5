package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"akasha-chat-be/internal/entity"
	"akasha-chat-be/pkg/assistant"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// maxBodySize caps how much of a reply body is read.
const maxBodySize = 1 << 20

type outgoingMessage struct {
	ChatID string        `json:"chatId"`
	Text   string        `json:"text"`
	Tools  []entity.Tool `json:"tools"`
}

type botReply struct {
	Output *string `json:"output"`
}

// Client posts user turns to a workflow webhook that answers with {"output": "..."}.
type Client struct {
	URL     string
	Client  *http.Client
	limiter *rate.Limiter
}

var _ assistant.Endpoint = &Client{}

// NewClient builds a webhook client. ratePerSec <= 0 disables throttling.
func NewClient(url string, timeout time.Duration, ratePerSec float64) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
	if ratePerSec > 0 {
		burst := int(ratePerSec)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
	return c
}

func (c *Client) Reply(ctx context.Context, req assistant.Request) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", errors.Wrapf(entity.ErrTransport, "rate limit wait: %v", err)
		}
	}

	tools := req.Tools
	if tools == nil {
		tools = []entity.Tool{}
	}
	body, err := json.Marshal(outgoingMessage{ChatID: req.ChatID, Text: req.Text, Tools: tools})
	if err != nil {
		return "", errors.Wrapf(err, "failed to marshal webhook request to %s", c.URL)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrapf(err, "failed to construct webhook request to %s", c.URL)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return "", errors.Wrapf(entity.ErrTransport, "post webhook %s: %v", c.URL, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", errors.Wrapf(entity.ErrTransport, "read webhook response from %s: %v", c.URL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Wrapf(entity.ErrTransport, "webhook %s returned status %d: %s", c.URL, resp.StatusCode, truncate(b, 256))
	}

	var reply botReply
	if err := json.Unmarshal(b, &reply); err != nil {
		return "", errors.Wrapf(entity.ErrDecode, "unmarshal webhook response from %s: %v", c.URL, err)
	}
	if reply.Output == nil {
		return "", errors.Wrapf(entity.ErrDecode, "webhook response from %s has no output field", c.URL)
	}
	if strings.TrimSpace(*reply.Output) == "" {
		return "", errors.Wrapf(entity.ErrDecode, "webhook response from %s has an empty output", c.URL)
	}

	return *reply.Output, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
