package telegram_receiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jdelaire/goalbot/core"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	// httpSlack is added to the long-poll timeout for the HTTP deadline.
	httpSlack    = 5 * time.Second
	maxBodyBytes = 8 << 20
)

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type update struct {
	UpdateID *int64   `json:"update_id"`
	Message  *message `json:"message"`
}

type message struct {
	MessageID int64   `json:"message_id"`
	Chat      *chat   `json:"chat"`
	Date      int64   `json:"date"`
	Text      *string `json:"text"`
}

type chat struct {
	ID *int64 `json:"id"`
}

// Receiver fetches updates from the Telegram Bot API with long polling.
type Receiver struct {
	botToken string
	logger   *slog.Logger
	client   *http.Client
	baseURL  string
}

// New creates a Telegram receiver.
func New(botToken string, logger *slog.Logger) *Receiver {
	return &Receiver{
		botToken: botToken,
		logger:   logger,
		client:   &http.Client{},
		baseURL:  defaultBaseURL,
	}
}

// WithBaseURL overrides the Telegram API base URL (for testing).
func (r *Receiver) WithBaseURL(url string) *Receiver {
	r.baseURL = url
	return r
}

// Fetch returns updates with update_id >= cursor, waiting up to timeout
// for one to arrive. An empty batch means the poll timed out.
func (r *Receiver) Fetch(ctx context.Context, cursor int64, timeout time.Duration) ([]core.InboundEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+httpSlack)
	defer cancel()

	q := url.Values{}
	q.Set("offset", strconv.FormatInt(cursor, 10))
	q.Set("timeout", strconv.Itoa(int(timeout/time.Second)))
	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", r.baseURL, r.botToken, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &core.TransportError{Method: "getUpdates", Err: redact(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &core.TransportError{Method: "getUpdates", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiResp apiResponse
		_ = json.Unmarshal(body, &apiResp)
		return nil, &core.TransportError{Method: "getUpdates", StatusCode: resp.StatusCode, Description: apiResp.Description}
	}

	events, err := ParseUpdates(body)
	if err != nil {
		r.logger.Warn("discarding malformed getUpdates response", "cursor", cursor, "error", err)
		return nil, err
	}
	return events, nil
}

// ParseUpdates validates a getUpdates body and converts it to events.
// Updates without a message yield events with ChatID 0 so the caller
// still advances past them.
func ParseUpdates(body []byte) ([]core.InboundEvent, error) {
	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedResponse, err)
	}
	if !apiResp.OK {
		return nil, fmt.Errorf("%w: ok=false: %s", core.ErrMalformedResponse, apiResp.Description)
	}

	var updates []update
	if err := json.Unmarshal(apiResp.Result, &updates); err != nil {
		return nil, fmt.Errorf("%w: result: %v", core.ErrMalformedResponse, err)
	}

	events := make([]core.InboundEvent, 0, len(updates))
	for i, u := range updates {
		if u.UpdateID == nil {
			return nil, fmt.Errorf("%w: update %d has no update_id", core.ErrMalformedResponse, i)
		}
		ev := core.InboundEvent{Cursor: *u.UpdateID}
		if u.Message != nil {
			if u.Message.Chat == nil || u.Message.Chat.ID == nil {
				return nil, fmt.Errorf("%w: update %d has no chat id", core.ErrMalformedResponse, *u.UpdateID)
			}
			ev.ChatID = *u.Message.Chat.ID
			if u.Message.Text != nil {
				ev.Text = *u.Message.Text
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

// redact strips the request URL, which carries the bot token, from
// client errors.
func redact(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
}

var _ core.Fetcher = (*Receiver)(nil)
