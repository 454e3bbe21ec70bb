// Package bridge is the HTTP client for the companion bot process that owns
// the platform APIs, the reply generator, and the operator chat surface. The
// core pipeline only ever sees the collaborator interfaces in
// internal/social; this client is their production implementation.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"reply-scout/internal/models"
	"reply-scout/internal/platform"
	"reply-scout/internal/social"
)

// Client talks to the bridge service over HTTP.
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client

	// Service token cache, owned by the instance so independent clients
	// (and tests) never share auth state.
	tokenMu  sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient creates a new bridge client
func NewClient(baseURL, secret string) *Client {
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// serviceToken returns a cached service token, refreshing it when it is
// within a minute of expiring.
func (c *Client) serviceToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Until(c.tokenExp) > time.Minute {
		return c.token, nil
	}

	var resp tokenResponse
	if err := c.post(ctx, "/auth/token", map[string]string{"secret": c.secret}, &resp, ""); err != nil {
		return "", fmt.Errorf("failed to refresh service token: %w", err)
	}

	c.token = resp.Token
	c.tokenExp = resp.ExpiresAt
	return c.token, nil
}

// FetchCandidatePosts asks the bridge to scan one platform.
func (c *Client) FetchCandidatePosts(ctx context.Context, p platform.Platform) ([]social.Post, error) {
	token, err := c.serviceToken(ctx)
	if err != nil {
		return nil, err
	}

	var posts []social.Post
	if err := c.get(ctx, "/scan/"+p.String(), &posts, token); err != nil {
		return nil, fmt.Errorf("scan request for %s failed: %w", p, err)
	}
	return posts, nil
}

type generateRequest struct {
	Post social.Post `json:"post"`
}

type generateResponse struct {
	ReplyText string `json:"reply_text"`
}

// GenerateReplyText asks the bridge's language model to draft a reply.
func (c *Client) GenerateReplyText(ctx context.Context, post social.Post) (string, error) {
	token, err := c.serviceToken(ctx)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := c.post(ctx, "/generate", generateRequest{Post: post}, &resp, token); err != nil {
		return "", fmt.Errorf("generate request for %s failed: %w", post.ID, err)
	}
	if resp.ReplyText == "" {
		return "", fmt.Errorf("generator returned empty reply for %s", post.ID)
	}
	return resp.ReplyText, nil
}

type presentResponse struct {
	Success         bool   `json:"success"`
	NotificationRef string `json:"notification_ref,omitempty"`
	Error           string `json:"error,omitempty"`
}

// PresentForApproval delivers a candidate to the operator chat.
func (c *Client) PresentForApproval(ctx context.Context, candidate *models.PendingReply) (social.PresentResult, error) {
	token, err := c.serviceToken(ctx)
	if err != nil {
		return social.PresentResult{}, err
	}

	var resp presentResponse
	if err := c.post(ctx, "/notify/present", candidate, &resp, token); err != nil {
		return social.PresentResult{}, fmt.Errorf("present request for %s failed: %w", candidate.PostID, err)
	}
	return social.PresentResult{
		Success:         resp.Success,
		NotificationRef: resp.NotificationRef,
		Error:           resp.Error,
	}, nil
}

// NotifyOutcome reports a decision or scan outcome to the operator chat.
func (c *Client) NotifyOutcome(ctx context.Context, outcome social.Outcome) error {
	token, err := c.serviceToken(ctx)
	if err != nil {
		return err
	}

	if err := c.post(ctx, "/notify/outcome", outcome, nil, token); err != nil {
		return fmt.Errorf("outcome notification for %s failed: %w", outcome.PostID, err)
	}
	return nil
}

type postResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// PostReply publishes an approved reply through the bridge.
func (c *Client) PostReply(ctx context.Context, candidate *models.PendingReply) (social.PostResult, error) {
	token, err := c.serviceToken(ctx)
	if err != nil {
		return social.PostResult{}, err
	}

	var resp postResponse
	if err := c.post(ctx, "/post", candidate, &resp, token); err != nil {
		return social.PostResult{}, fmt.Errorf("post request for %s failed: %w", candidate.PostID, err)
	}
	return social.PostResult{Success: resp.Success, Error: resp.Error}, nil
}

// CrossPost mirrors an approved reply to secondary surfaces.
func (c *Client) CrossPost(ctx context.Context, candidate *models.PendingReply) error {
	token, err := c.serviceToken(ctx)
	if err != nil {
		return err
	}

	if err := c.post(ctx, "/crosspost", candidate, nil, token); err != nil {
		return fmt.Errorf("crosspost request for %s failed: %w", candidate.PostID, err)
	}
	return nil
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, out interface{}, token string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// post performs an authenticated POST with a JSON body; out may be nil when
// the response body is irrelevant.
func (c *Client) post(ctx context.Context, path string, payload, out interface{}, token string) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("bridge returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
