// Package jellyfin implements the session Transport over the media server's REST API.
package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/genricoloni/synremote/internal/domain"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

const (
	_maxImageSize   = 10 * 1024 * 1024 // 10 MB
	_maxSessionBody = 4 * 1024 * 1024
	requestTimeout  = 10 * time.Second
)

var (
	// ErrNotConfigured is returned when no server URL is configured
	ErrNotConfigured = errors.New("media server URL not configured")
	// ErrUnauthorized is returned when the server rejects the access token
	ErrUnauthorized = errors.New("access token rejected by server")
)

// TokenSource supplies the access token sent with every request
type TokenSource interface {
	Token() (string, error)
}

// DeviceIdentity supplies this controller's device id
type DeviceIdentity interface {
	DeviceID() (string, error)
}

// Client talks to the media server's session endpoints
type Client struct {
	logger *zap.Logger
	cfg    domain.Config
	tokens TokenSource
	device DeviceIdentity
	client *http.Client
}

// NewClient creates a new session API client
func NewClient(logger *zap.Logger, cfg domain.Config, tokens TokenSource, device DeviceIdentity) *Client {
	return &Client{
		logger: logger,
		cfg:    cfg,
		tokens: tokens,
		device: device,
		client: &http.Client{
			Timeout: requestTimeout, // Essential to prevent a hung request from stalling the poll loop
		},
	}
}

// FetchControllableSessions lists the sessions the user may control
func (c *Client) FetchControllableSessions(ctx context.Context, userID string) ([]domain.RawSession, error) {
	query := url.Values{}
	if userID != "" {
		query.Set("ControllableByUserId", userID)
	}

	resp, err := c.do(ctx, http.MethodGet, "/Sessions", query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sessions []domain.RawSession
	if err := json.NewDecoder(io.LimitReader(resp.Body, _maxSessionBody)).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	c.logger.Debug("Sessions fetched", zap.Int("count", len(sessions)))
	return sessions, nil
}

// SendCommand sends a general command to a session
func (c *Client) SendCommand(ctx context.Context, sessionID, name string, args map[string]string) error {
	body, err := json.Marshal(struct {
		Name      string            `json:"Name"`
		Arguments map[string]string `json:"Arguments,omitempty"`
	}{Name: name, Arguments: args})
	if err != nil {
		return fmt.Errorf("failed to encode command: %w", err)
	}

	path := "/Sessions/" + url.PathEscape(sessionID) + "/Command"
	resp, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return fmt.Errorf("command %s: %w", name, err)
	}
	resp.Body.Close()
	return nil
}

// SendPlaystateCommand sends a playstate command to a session
func (c *Client) SendPlaystateCommand(ctx context.Context, sessionID, name string, args map[string]string) error {
	query := url.Values{}
	for k, v := range args {
		query.Set(k, v)
	}

	path := "/Sessions/" + url.PathEscape(sessionID) + "/Playing/" + url.PathEscape(name)
	resp, err := c.do(ctx, http.MethodPost, path, query, nil)
	if err != nil {
		return fmt.Errorf("playstate %s: %w", name, err)
	}
	resp.Body.Close()
	return nil
}

// StartPlayback asks a session to play the given items immediately
func (c *Client) StartPlayback(ctx context.Context, sessionID string, itemIDs []string, startPositionTicks mo.Option[int64]) error {
	if len(itemIDs) == 0 {
		return errors.New("no items to play")
	}

	query := url.Values{}
	query.Set("playCommand", "PlayNow")
	query.Set("itemIds", strings.Join(itemIDs, ","))
	if ticks, ok := startPositionTicks.Get(); ok {
		query.Set("startPositionTicks", strconv.FormatInt(ticks, 10))
	}

	path := "/Sessions/" + url.PathEscape(sessionID) + "/Playing"
	resp, err := c.do(ctx, http.MethodPost, path, query, nil)
	if err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	resp.Body.Close()
	return nil
}

// FetchImage downloads the primary image of an item
func (c *Client) FetchImage(ctx context.Context, itemID string, maxHeight int) ([]byte, error) {
	query := url.Values{}
	if maxHeight > 0 {
		query.Set("maxHeight", strconv.Itoa(maxHeight))
	}

	resp, err := c.do(ctx, http.MethodGet, "/Items/"+url.PathEscape(itemID)+"/Images/Primary", query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return nil, fmt.Errorf("url is not an image: %s", resp.Header.Get("Content-Type"))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, _maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	c.logger.Debug("Image fetched successfully", zap.Int("bytes", len(data)), zap.String("item", itemID))
	return data, nil
}

// do performs an authenticated request and checks the status code.
// On success the caller owns resp.Body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	base := c.cfg.ServerURL()
	if base == "" {
		return nil, ErrNotConfigured
	}

	target := base + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	auth, err := c.authorization()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("User-Agent", c.cfg.ClientName()+"/"+c.cfg.ClientVersion())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp, nil
}

// authorization builds the MediaBrowser authorization header
func (c *Client) authorization() (string, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("no access token: %w", err)
	}
	deviceID, err := c.device.DeviceID()
	if err != nil {
		return "", fmt.Errorf("no device id: %w", err)
	}

	fields := []string{
		fmt.Sprintf("Client=%q", c.cfg.ClientName()),
		fmt.Sprintf("Device=%q", c.cfg.DeviceName()),
		fmt.Sprintf("DeviceId=%q", deviceID),
		fmt.Sprintf("Version=%q", c.cfg.ClientVersion()),
		fmt.Sprintf("Token=%q", token),
	}
	return "MediaBrowser " + strings.Join(fields, ", "), nil
}
