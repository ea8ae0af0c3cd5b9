package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultPollTimeout = 50 * time.Second

// Gateway talks to a WhatsApp HTTP gateway: send on POST /api/sendText,
// typing on POST /api/typing, receive on long-poll GET /api/messages.
type Gateway struct {
	http    *http.Client
	baseURL string
	token   string
}

type GatewayOptions struct {
	HTTPClient *http.Client
}

func NewGateway(baseURL, token string, opts GatewayOptions) (*Gateway, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("whatsapp: gateway URL is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Gateway{
		http:    httpClient,
		baseURL: baseURL,
		token:   strings.TrimSpace(token),
	}, nil
}

type sendTextRequest struct {
	MessageID string `json:"message_id"`
	To        string `json:"to"`
	Body      string `json:"body"`
}

type typingRequest struct {
	To    string `json:"to"`
	State string `json:"state"` // composing|paused
}

type pollResponse struct {
	Messages []Inbound `json:"messages"`
	Cursor   string    `json:"cursor"`
}

func (g *Gateway) SendText(ctx context.Context, address, text string) error {
	payload := sendTextRequest{
		MessageID: uuid.NewString(),
		To:        address,
		Body:      text,
	}
	return g.post(ctx, "/api/sendText", payload)
}

func (g *Gateway) StartTyping(ctx context.Context, address string) error {
	return g.post(ctx, "/api/typing", typingRequest{To: address, State: "composing"})
}

func (g *Gateway) StopTyping(ctx context.Context, address string) error {
	return g.post(ctx, "/api/typing", typingRequest{To: address, State: "paused"})
}

// Receive long-polls for inbound messages after cursor. It returns the
// messages and the next cursor; a poll that times out empty returns
// (nil, cursor, nil).
func (g *Gateway) Receive(ctx context.Context, cursor string, timeout time.Duration) ([]Inbound, string, error) {
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	query := url.Values{}
	query.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	endpoint := fmt.Sprintf("%s/api/messages?%s", g.baseURL, query.Encode())

	reqCtx, cancel := context.WithTimeout(ctx, timeout+5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, cursor, err
	}
	g.auth(req)

	resp, err := g.http.Do(req)
	if err != nil {
		if isPollTimeout(err) {
			return nil, cursor, nil
		}
		return nil, cursor, fmt.Errorf("poll messages: %w", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, cursor, fmt.Errorf("gateway http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out pollResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, cursor, fmt.Errorf("decode poll response: %w", err)
	}
	next := out.Cursor
	if next == "" {
		next = cursor
	}
	return out.Messages, next, nil
}

func (g *Gateway) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	g.auth(req)

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s: %w", path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway %s http %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

func (g *Gateway) auth(req *http.Request) {
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
}

func isPollTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "client.timeout exceeded")
}
