// Package telegram is a thin typed client for the Telegram Bot API
// operations the Approval Dialogue needs: sendMessage with an inline
// keyboard, editMessageText, and answerCallbackQuery. Outbound calls
// are rate-limited to one message per second per chat with a shared
// token bucket.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/vmunix/felscan/internal/httpx"
	"github.com/vmunix/felscan/internal/svcerr"
)

const serviceName = "telegram"

// Client is a keep-alive HTTP client for one Telegram bot.
type Client struct {
	baseURL    string
	chatID     int64
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a Telegram client for botToken, sending to chatID.
func New(botToken string, chatID int64) *Client {
	return &Client{
		baseURL:    "https://api.telegram.org/bot" + botToken,
		chatID:     chatID,
		httpClient: httpx.NewClient(httpx.Options{}),
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
	}
}

// InlineButton is one button of a two-button inline keyboard row.
type InlineButton struct {
	Text         string
	CallbackData string
}

type sendMessageResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, form url.Values) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, svcerr.Transport(serviceName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, nil)
	if err != nil {
		return nil, svcerr.Malformed(serviceName, err)
	}
	req.URL.RawQuery = form.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, svcerr.Transport(serviceName, err)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, svcerr.Protocol(serviceName, resp.StatusCode, string(body))
	}
	return resp.Body, nil
}

// SendApproval posts the structured approval message: movie
// title+year, capability blocks, reason, and a two-button inline
// keyboard tagged with requestID. Returns the sent message's id.
func (c *Client) SendApproval(ctx context.Context, text, requestID string) (int64, error) {
	keyboard := fmt.Sprintf(`{"inline_keyboard":[[{"text":"Approve","callback_data":"dl_yes_%s"},{"text":"Decline","callback_data":"dl_no_%s"}]]}`, requestID, requestID)
	form := url.Values{
		"chat_id":      {strconv.FormatInt(c.chatID, 10)},
		"text":         {text},
		"parse_mode":   {"HTML"},
		"reply_markup": {keyboard},
	}

	body, err := c.call(ctx, "sendMessage", form)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	var resp sendMessageResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return 0, svcerr.Malformed(serviceName, err)
	}
	return resp.Result.MessageID, nil
}

// Notify sends a non-interactive outbound message (download
// started/completed/error).
func (c *Client) Notify(ctx context.Context, text string) error {
	form := url.Values{
		"chat_id":    {strconv.FormatInt(c.chatID, 10)},
		"text":       {text},
		"parse_mode": {"HTML"},
	}
	body, err := c.call(ctx, "sendMessage", form)
	if err != nil {
		return err
	}
	defer body.Close()
	return nil
}

// EditToTerminal rewrites the approval message to a terminal text
// ("Download Started" / "Skipped" / "Download Failed: reason") and
// removes the inline keyboard.
func (c *Client) EditToTerminal(ctx context.Context, messageID int64, text string) error {
	form := url.Values{
		"chat_id":    {strconv.FormatInt(c.chatID, 10)},
		"message_id": {strconv.FormatInt(messageID, 10)},
		"text":       {text},
		"parse_mode": {"HTML"},
	}
	body, err := c.call(ctx, "editMessageText", form)
	if err != nil {
		return err
	}
	defer body.Close()
	return nil
}

// AnswerCallback acknowledges an inbound callback query so Telegram
// stops showing the client-side loading spinner.
func (c *Client) AnswerCallback(ctx context.Context, callbackQueryID string) error {
	form := url.Values{"callback_query_id": {callbackQueryID}}
	body, err := c.call(ctx, "answerCallbackQuery", form)
	if err != nil {
		return err
	}
	defer body.Close()
	return nil
}
