package assistant

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

const defaultRetrievalK = 100

type HTTPClient struct {
	http    *http.Client
	baseURL string
	k       int
}

type HTTPClientOptions struct {
	HTTPClient *http.Client
	RetrievalK int
}

func NewHTTPClient(baseURL string, opts HTTPClientOptions) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("assistant base url is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	k := opts.RetrievalK
	if k <= 0 {
		k = defaultRetrievalK
	}
	return &HTTPClient{http: httpClient, baseURL: baseURL, k: k}, nil
}

type loadUserDataRequest struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

type userQueryRequest struct {
	UserID              string    `json:"user_id"`
	UserName            string    `json:"user_name"`
	Query               string    `json:"query"`
	ConversationHistory []Message `json:"conversation_history"`
	K                   int       `json:"k"`
}

type userQueryResponse struct {
	Answer string `json:"answer"`
}

func (c *HTTPClient) LoadUserData(ctx context.Context, userID, userName string) error {
	raw, err := c.post(ctx, "/api/load-user-data", loadUserDataRequest{
		UserID:   userID,
		UserName: userName,
	})
	if err != nil {
		return err
	}
	// The call is load-bearing for its side effect; the body only needs to
	// be well-formed JSON.
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("%w: load-user-data: %v", ErrBadResponse, err)
	}
	return nil
}

func (c *HTTPClient) Converse(ctx context.Context, userID, userName, query string, history []Message) (string, error) {
	if history == nil {
		history = []Message{}
	}
	raw, err := c.post(ctx, "/api/user-query", userQueryRequest{
		UserID:              userID,
		UserName:            userName,
		Query:               query,
		ConversationHistory: history,
		K:                   c.k,
	})
	if err != nil {
		return "", err
	}
	var out userQueryResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: user-query: %v", ErrBadResponse, err)
	}
	answer := strings.TrimSpace(out.Answer)
	if answer == "" {
		return "", fmt.Errorf("%w: empty answer", ErrBadResponse)
	}
	return answer, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
