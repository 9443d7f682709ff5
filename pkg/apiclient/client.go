// Package apiclient talks to the chat backend's REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"akasha-chat-be/internal/dto"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// APIError is a non-2xx reply. Draft is set when a message could not be
// delivered to the assistant.
type APIError struct {
	Status  int
	Message string
	Draft   string
	Chat    *dto.ChatResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for baseURL, e.g. "http://localhost:3000/api".
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Register(ctx context.Context, email, password, name string) (*dto.RegisterResponse, error) {
	var out dto.RegisterResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", dto.RegisterRequest{Email: email, Password: password, Name: name}, &out)
	return &out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	var out dto.LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", dto.LoginRequest{Email: email, Password: password}, &out)
	return &out, err
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", dto.LogoutRequest{RefreshToken: refreshToken}, nil)
}

func (c *Client) ListChats(ctx context.Context) ([]*dto.ChatResponse, error) {
	var out []*dto.ChatResponse
	err := c.doJSON(ctx, http.MethodGet, "/chats", nil, &out)
	return out, err
}

func (c *Client) GetChat(ctx context.Context, id uuid.UUID) (*dto.ChatResponse, error) {
	var out dto.ChatResponse
	err := c.doJSON(ctx, http.MethodGet, "/chats/"+id.String(), nil, &out)
	return &out, err
}

func (c *Client) StartChat(ctx context.Context, prompt string) (*dto.ChatResponse, error) {
	var out dto.ChatResponse
	err := c.doJSON(ctx, http.MethodPost, "/chats", dto.StartChatRequest{Prompt: prompt}, &out)
	return &out, err
}

// Send posts text to a chat. On an assistant failure the returned *APIError
// carries the draft to restore.
func (c *Client) Send(ctx context.Context, id uuid.UUID, text string) (*dto.ChatResponse, error) {
	var out dto.ChatResponse
	err := c.doJSON(ctx, http.MethodPost, "/chats/"+id.String()+"/messages", dto.SendMessageRequest{Text: text}, &out)
	return &out, err
}

func (c *Client) RenameChat(ctx context.Context, id uuid.UUID, title string) (*dto.ChatResponse, error) {
	var out dto.ChatResponse
	err := c.doJSON(ctx, http.MethodPatch, "/chats/"+id.String(), dto.RenameChatRequest{Title: title}, &out)
	return &out, err
}

func (c *Client) DeleteChat(ctx context.Context, id uuid.UUID) error {
	return c.doJSON(ctx, http.MethodDelete, "/chats/"+id.String(), nil, nil)
}

func (c *Client) GetTools(ctx context.Context) (*dto.ToolSettingsResponse, error) {
	var out dto.ToolSettingsResponse
	err := c.doJSON(ctx, http.MethodGet, "/settings/tools", nil, &out)
	return &out, err
}

func (c *Client) SetTools(ctx context.Context, enabled []string) (*dto.ToolSettingsResponse, error) {
	var out dto.ToolSettingsResponse
	err := c.doJSON(ctx, http.MethodPut, "/settings/tools", dto.UpdateToolSettingsRequest{Enabled: enabled}, &out)
	return &out, err
}

func (c *Client) GetProfile(ctx context.Context) (*dto.UserProfileResponse, error) {
	var out dto.UserProfileResponse
	err := c.doJSON(ctx, http.MethodGet, "/user/profile", nil, &out)
	return &out, err
}

// UpdateProfile sends a multipart form. Empty name or nil avatar leave that
// field unchanged.
func (c *Client) UpdateProfile(ctx context.Context, name string, avatarName string, avatar io.Reader) (*dto.UserProfileResponse, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if name != "" {
		if err := w.WriteField("name", name); err != nil {
			return nil, err
		}
	}
	if avatar != nil {
		part, err := w.CreateFormFile("avatar", filepath.Base(avatarName))
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, avatar); err != nil {
			return nil, errors.Wrap(err, "read avatar")
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPut, "/user/profile", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out dto.UserProfileResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WebSocketURL is the push endpoint with the token in the query, since
// websocket handshakes cannot carry custom headers from every client.
func (c *Client) WebSocketURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return errors.Wrap(err, "decode response")
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
		var failed dto.SendFailedResponse
		if len(env.Data) > 0 && json.Unmarshal(env.Data, &failed) == nil && failed.Draft != "" {
			apiErr.Draft = failed.Draft
			apiErr.Chat = failed.Chat
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrap(err, "decode data")
	}
	return nil
}
