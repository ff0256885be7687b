// Package advice generates short daily schedule advice through a remote
// chat-completion style text-generation API. It is deliberately thin glue:
// prompt assembly, one HTTP call, response extraction, and a per-day cache
// so repeated week renders do not hammer the API.
package advice

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	applog "github.com/sylee2006/Mobile-project/internal/log"
	"github.com/sylee2006/Mobile-project/internal/model"
)

const (
	defaultTimeout  = 20 * time.Second
	defaultCacheTTL = 6 * time.Hour
)

// Client calls the remote text-generation API. The zero APIKey disables it:
// ForDay then returns an empty string without error, so callers degrade
// gracefully when advice is not configured.
type Client struct {
	url    string
	apiKey string
	model  string

	httpClient *http.Client

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	text      string
	updatedAt time.Time
}

// New constructs a Client for the given endpoint and model.
func New(url, apiKey, model string) *Client {
	return &Client{
		url:        url,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: defaultTimeout},
		cache:      make(map[string]cacheEntry),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// chat-completion wire types; only the fields we use.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ForDay returns one short piece of advice for the given date's events.
// Results are cached per day and event-set fingerprint; an unchanged day is
// answered from cache. Returns "" without error when the client is disabled.
func (c *Client) ForDay(ctx context.Context, date time.Time, events []model.Event) (string, error) {
	if !c.Enabled() {
		return "", nil
	}

	key := cacheKey(date, events)

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()
	if ok && time.Since(entry.updatedAt) < defaultCacheTTL {
		return entry.text, nil
	}

	text, err := c.generate(ctx, buildPrompt(date, events))
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{text: text, updatedAt: time.Now()}
	c.mu.Unlock()

	applog.Info("advice generated", "day", date.Format(model.DayKeyLayout), "event_count", len(events))
	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("advice: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("advice: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("advice: request failed: %w", err)
	}
	defer resp.Body.Close()

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("advice: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if body.Error != nil && body.Error.Message != "" {
			msg = body.Error.Message
		}
		return "", errors.New("advice: " + msg)
	}
	if len(body.Choices) == 0 {
		return "", errors.New("advice: empty response")
	}

	return strings.TrimSpace(body.Choices[0].Message.Content), nil
}

// buildPrompt summarizes the day's schedule into a single instruction.
func buildPrompt(date time.Time, events []model.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "My schedule for %s:\n", date.Format("Monday, January 2"))

	if len(events) == 0 {
		b.WriteString("(no events)\n")
	}
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s-%s %s",
			ev.Start.Format("15:04"), ev.End.Format("15:04"), ev.Title)
		if ev.Location != "" {
			fmt.Fprintf(&b, " at %s", ev.Location)
		}
		b.WriteString("\n")
	}

	b.WriteString("Give one short, practical piece of advice for this day in a single sentence.")
	return b.String()
}

// cacheKey fingerprints the day plus its event set so edits invalidate the
// cached advice.
func cacheKey(date time.Time, events []model.Event) string {
	h := sha256.New()
	h.Write([]byte(date.Format(model.DayKeyLayout)))
	for _, ev := range events {
		h.Write([]byte(ev.ID))
		h.Write([]byte(ev.Start.Format(time.RFC3339)))
		h.Write([]byte(ev.End.Format(time.RFC3339)))
		h.Write([]byte(ev.Title))
	}
	return hex.EncodeToString(h.Sum(nil)[:12])
}
