// Package missive wraps the Missive Posts API, the messaging collaborator
// used for placeholder and result messages in a conversation.
package missive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrPostFailed wraps any non-success response from the Posts API.
var ErrPostFailed = errors.New("missive post failed")

const defaultTimeout = 30 * time.Second

type Config struct {
	APIToken  string
	BaseURL   string
	Username  string
	AvatarURL string
}

type Client struct {
	http    *http.Client
	baseURL string
	token   string

	username  string
	avatarURL string
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://public.missiveapp.com/v1"
	}

	return &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		baseURL:   baseURL,
		token:     cfg.APIToken,
		username:  cfg.Username,
		avatarURL: cfg.AvatarURL,
	}
}

type postPayload struct {
	Posts postBody `json:"posts"`
}

type postBody struct {
	Conversation string           `json:"conversation"`
	Markdown     string           `json:"markdown"`
	Username     string           `json:"username,omitempty"`
	UsernameIcon string           `json:"username_icon,omitempty"`
	Notification postNotification `json:"notification"`
}

type postNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type postResponse struct {
	Posts struct {
		ID string `json:"id"`
	} `json:"posts"`
}

// CreatePost creates a post in a conversation and returns its id.
func (c *Client) CreatePost(ctx context.Context, conversationID, markdown string) (string, error) {
	payload := postPayload{
		Posts: postBody{
			Conversation: conversationID,
			Markdown:     markdown,
			Username:     c.username,
			UsernameIcon: c.avatarURL,
			Notification: postNotification{
				Title: c.username,
				Body:  notificationPreview(markdown),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding post payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/posts", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building post request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("creating post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrPostFailed, resp.StatusCode, detail)
	}

	var decoded postResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding post response: %w", err)
	}
	if decoded.Posts.ID == "" {
		return "", fmt.Errorf("%w: response carried no post id", ErrPostFailed)
	}

	slog.DebugContext(ctx, "created post", "post_id", decoded.Posts.ID, "conversation_id", conversationID)
	return decoded.Posts.ID, nil
}

// DeletePost removes a post. A post that is already gone counts as deleted.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/posts/"+postID, nil)
	if err != nil {
		return fmt.Errorf("building delete request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("deleting post %s: %w", postID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		slog.DebugContext(ctx, "deleted post", "post_id", postID)
		return nil
	case http.StatusNotFound:
		slog.WarnContext(ctx, "post already gone", "post_id", postID)
		return nil
	default:
		return fmt.Errorf("%w: delete %s returned status %d", ErrPostFailed, postID, resp.StatusCode)
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
}

// notificationPreview shortens the markdown to the first 100 characters for
// the push notification body, cutting on rune boundaries.
func notificationPreview(markdown string) string {
	runes := []rune(markdown)
	if len(runes) <= 100 {
		return markdown
	}
	return string(runes[:100]) + "..."
}
