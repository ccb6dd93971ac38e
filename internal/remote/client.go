// Package remote talks to the incubator's device API.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"smart_hatchery/internal/models"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 5 * time.Second

// TokenSource yields the bearer token for authorized calls.
type TokenSource interface {
	Token() (string, bool)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	http   *resty.Client
	tokens TokenSource
}

func NewClient(cfg Config, tokens TokenSource) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		tokens: tokens,
	}
}

// TokenResponse is the body of POST /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Ack is the generic body of write endpoints.
type Ack struct {
	Msg    string `json:"msg,omitempty"`
	Status string `json:"status,omitempty"`
	Action string `json:"action,omitempty"`
}

// Login exchanges credentials for an access token. The device answers bad
// credentials with 400, which is reported as ErrUnauthorized.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (TokenResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": creds.Username,
			"password": creds.Password,
		}).
		Post("/token")
	if err := classify("login", resp, err); err != nil {
		if errors.Is(err, ErrRejected) {
			return TokenResponse{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return TokenResponse{}, err
	}
	var out TokenResponse
	if err := decode("login", resp, &out); err != nil {
		return TokenResponse{}, err
	}
	if out.AccessToken == "" {
		return TokenResponse{}, fmt.Errorf("login: %w: empty access token", ErrUnavailable)
	}
	return out, nil
}

// Register creates a device API account.
func (c *Client) Register(ctx context.Context, creds models.Credentials) (Ack, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(creds).
		Post("/register")
	if err := classify("register", resp, err); err != nil {
		return Ack{}, err
	}
	var out Ack
	return out, decode("register", resp, &out)
}

// GetConfiguration returns the active configuration, or nil if the device
// has none yet.
func (c *Client) GetConfiguration(ctx context.Context) (*models.Configuration, error) {
	req, err := c.authorized(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := req.Get("/settings")
	if err := classify("get configuration", resp, err); err != nil {
		return nil, err
	}
	var out *models.Configuration
	if err := decode("get configuration", resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetLatestReading(ctx context.Context) (models.Reading, error) {
	req, err := c.authorized(ctx)
	if err != nil {
		return models.Reading{}, err
	}
	resp, err := req.Get("/latest")
	if err := classify("get latest reading", resp, err); err != nil {
		return models.Reading{}, err
	}
	var out models.Reading
	if err := decode("get latest reading", resp, &out); err != nil {
		return models.Reading{}, err
	}
	return out, nil
}

// GetHistory returns the device's recent window, oldest first.
func (c *Client) GetHistory(ctx context.Context) ([]models.HistoryPoint, error) {
	req, err := c.authorized(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := req.Get("/history")
	if err := classify("get history", resp, err); err != nil {
		return nil, err
	}
	out := make([]models.HistoryPoint, 0, 20)
	if err := decode("get history", resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetConfiguration(ctx context.Context, cfg models.Configuration) error {
	req, err := c.authorized(ctx)
	if err != nil {
		return err
	}
	resp, err := req.SetBody(cfg).Post("/settings")
	return classify("set configuration", resp, err)
}

func (c *Client) SendCommand(ctx context.Context, name string) error {
	req, err := c.authorized(ctx)
	if err != nil {
		return err
	}
	resp, err := req.Post("/control/" + url.PathEscape(name))
	return classify("send command "+name, resp, err)
}

func (c *Client) authorized(ctx context.Context) (*resty.Request, error) {
	token, ok := c.tokens.Token()
	if !ok {
		return nil, fmt.Errorf("%w: no session token", ErrUnauthorized)
	}
	return c.http.R().SetContext(ctx).SetAuthToken(token), nil
}

func decode(op string, resp *resty.Response, dst any) error {
	if err := json.Unmarshal(resp.Body(), dst); err != nil {
		return fmt.Errorf("%s: %w: decode body: %w", op, ErrUnavailable, err)
	}
	return nil
}
