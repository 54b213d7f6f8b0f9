package telegram_notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jdelaire/goalbot/core"
)

const maxBodyBytes = 1 << 20

type sendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      *struct {
		MessageID *int64 `json:"message_id"`
		Date      int64  `json:"date"`
		Chat      *struct {
			ID *int64 `json:"id"`
		} `json:"chat"`
	} `json:"result"`
}

// Notifier sends messages via the Telegram Bot API.
type Notifier struct {
	botToken string
	client   *http.Client
	baseURL  string
}

// New creates a Telegram notifier with the given bot token.
func New(botToken string) *Notifier {
	return &Notifier{
		botToken: botToken,
		client:   &http.Client{Timeout: 10 * time.Second},
		baseURL:  "https://api.telegram.org",
	}
}

// SendText delivers text to chatID and returns the confirmed message.
func (n *Notifier) SendText(ctx context.Context, chatID int64, text string) (core.Delivery, error) {
	q := url.Values{
		"chat_id": {strconv.FormatInt(chatID, 10)},
		"text":    {text},
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage?%s", n.baseURL, n.botToken, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return core.Delivery{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
		}
		return core.Delivery{}, &core.TransportError{Method: "sendMessage", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return core.Delivery{}, &core.TransportError{Method: "sendMessage", Err: err}
	}

	var body sendResponse
	decodeErr := json.Unmarshal(raw, &body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.Delivery{}, &core.TransportError{
			Method:      "sendMessage",
			StatusCode:  resp.StatusCode,
			Description: body.Description,
		}
	}

	switch {
	case decodeErr != nil:
		return core.Delivery{}, fmt.Errorf("%w: %v", core.ErrMalformedResponse, decodeErr)
	case !body.OK:
		return core.Delivery{}, fmt.Errorf("%w: ok=false: %s", core.ErrMalformedResponse, body.Description)
	case body.Result == nil || body.Result.MessageID == nil:
		return core.Delivery{}, fmt.Errorf("%w: missing message_id", core.ErrMalformedResponse)
	case body.Result.Chat == nil || body.Result.Chat.ID == nil:
		return core.Delivery{}, fmt.Errorf("%w: missing chat id", core.ErrMalformedResponse)
	}

	return core.Delivery{
		MessageID: *body.Result.MessageID,
		ChatID:    *body.Result.Chat.ID,
		SentAt:    time.Unix(body.Result.Date, 0),
	}, nil
}

// WithBaseURL sets a custom base URL (for testing).
func (n *Notifier) WithBaseURL(baseURL string) *Notifier {
	n.baseURL = baseURL
	return n
}

var _ core.Sender = (*Notifier)(nil)
