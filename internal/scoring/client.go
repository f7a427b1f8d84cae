// Package scoring talks to the two remote collaborators that own persistent
// score data: a trophy endpoint accepting signed deltas and a match-history
// endpoint accepting append-only records. Both are plain POST-with-JSON
// calls, authenticated with a short-lived JWT minted from a shared secret.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// HistoryRecord is the wire shape of one match-history append.
type HistoryRecord struct {
	HistoryID    string    `json:"historyId"`
	UserID       string    `json:"userId"`
	OpponentName string    `json:"opponentName"`
	MatchResult  string    `json:"matchResult"`
	TrophyCount  int       `json:"trophyCount"`
	PlayedAt     time.Time `json:"playedAt"`
}

// trophyAdjustment is the wire shape of one trophy delta.
type trophyAdjustment struct {
	UserID   string `json:"userId"`
	Trophies int    `json:"trophies"`
}

// Client calls the remote scoring endpoints.
type Client struct {
	httpClient *http.Client
	trophyURL  string
	historyURL string
	secret     []byte
	logger     *logrus.Logger
}

// NewClient builds a scoring client. secret may be empty, in which case
// requests are sent unauthenticated.
func NewClient(trophyURL, historyURL string, secret []byte, logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		trophyURL:  trophyURL,
		historyURL: historyURL,
		secret:     secret,
		logger:     logger,
	}
}

// NewClientFromEnv reads TROPHY_API_URL, HISTORY_API_URL, and
// SCORE_API_SECRET. Returns nil when neither URL is configured so callers
// can leave scoring disabled.
func NewClientFromEnv(logger *logrus.Logger) *Client {
	trophyURL := os.Getenv("TROPHY_API_URL")
	historyURL := os.Getenv("HISTORY_API_URL")
	if trophyURL == "" && historyURL == "" {
		logger.Warn("TROPHY_API_URL and HISTORY_API_URL unset, scoring disabled")
		return nil
	}
	return NewClient(trophyURL, historyURL, []byte(os.Getenv("SCORE_API_SECRET")), logger)
}

// AdjustTrophies posts a signed trophy delta for one player.
func (c *Client) AdjustTrophies(ctx context.Context, userID string, delta int) error {
	if c.trophyURL == "" {
		return fmt.Errorf("trophy endpoint not configured")
	}
	return c.post(ctx, c.trophyURL, trophyAdjustment{UserID: userID, Trophies: delta})
}

// AppendHistory posts one match-history record.
func (c *Client) AppendHistory(ctx context.Context, rec HistoryRecord) error {
	if c.historyURL == "" {
		return fmt.Errorf("history endpoint not configured")
	}
	return c.post(ctx, c.historyURL, rec)
}

func (c *Client) post(ctx context.Context, url string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if len(c.secret) > 0 {
		token, err := c.bearer()
		if err != nil {
			return fmt.Errorf("failed to sign bearer token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("POST %s: unexpected status %d", url, resp.StatusCode)
	}
	c.logger.WithField("url", url).Debug("scoring call succeeded")
	return nil
}

// bearer mints a short-lived HS256 token identifying this coordinator.
func (c *Client) bearer() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "hangduel-server",
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
	})
	return token.SignedString(c.secret)
}
