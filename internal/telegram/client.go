// Package telegram adapts the Bot API client library to the notifier's
// sender: send and edit HTML text messages.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrNotModified is returned by EditMessage when the new text equals the
// current one. Callers treat it as success.
var ErrNotModified = errors.New("message is not modified")

// APIError is a non-ok Bot API response.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  int // seconds, set on 429
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// RetryAfter reports the flood-control wait carried by err.
func RetryAfter(err error) (time.Duration, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second, true
	}
	return 0, false
}

// Client sends through a tgbotapi.BotAPI.
type Client struct {
	bot   *tgbotapi.BotAPI
	token string
}

// NewClient connects to the bot identified by token and checks it with
// getMe. baseURL is normally https://api.telegram.org.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/bot%s/%s"
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, translate("getMe", err, token)
	}
	return &Client{bot: bot, token: token}, nil
}

// Username is the bot account name reported by getMe.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// SendMessage posts a new HTML message and returns its id. The library does
// not take a context; ctx is checked before the request and the HTTP client
// timeout bounds it.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	sent, err := c.bot.Send(msg)
	if err != nil {
		return 0, translate("sendMessage", err, c.token)
	}
	return int64(sent.MessageID), nil
}

// EditMessage replaces the text of a previously sent message.
func (c *Client) EditMessage(ctx context.Context, chatID, messageID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(chatID, int(messageID), text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true

	if _, err := c.bot.Request(edit); err != nil {
		err = translate("editMessageText", err, c.token)
		var apiErr *APIError
		if errors.As(err, &apiErr) && strings.Contains(apiErr.Description, "message is not modified") {
			return ErrNotModified
		}
		return err
	}
	return nil
}

// translate maps library errors onto APIError and strips the token, which
// the request URL embeds, from transport errors.
func translate(method string, err error, token string) error {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return &APIError{
			Method:      method,
			Code:        tgErr.Code,
			Description: tgErr.Message,
			RetryAfter:  tgErr.RetryAfter,
		}
	}
	return fmt.Errorf("telegram %s: request failed: %w", method, scrub(err, token))
}

func scrub(err error, token string) error {
	if token == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}
