// Package telegram is the thin chat-transport adapter: a minimal Bot API
// client covering only what the conversation core needs (long polling,
// sending and editing messages, answering callback queries).
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"partyfinder/internal/config"

	"github.com/valyala/fasthttp"
)

type Client struct {
	token  string
	client *fasthttp.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		token: cfg.BotToken,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         40 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// GetUpdates long-polls for new updates past offset. timeoutSecs is the
// server-side hold time.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSecs int) ([]Update, error) {
	params := map[string]any{
		"offset":          offset,
		"timeout":         timeoutSecs,
		"allowed_updates": []string{"message", "callback_query"},
	}
	return doRequest[[]Update](ctx, c, "getUpdates", params)
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (Message, error) {
	params := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if markup != nil {
		params["reply_markup"] = markup
	}
	return doRequest[Message](ctx, c, "sendMessage", params)
}

func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int64, text string, markup *InlineKeyboardMarkup) (Message, error) {
	params := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	if markup != nil {
		params["reply_markup"] = markup
	}
	return doRequest[Message](ctx, c, "editMessageText", params)
}

// AnswerCallbackQuery acknowledges a button press so the client stops showing
// a spinner.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	_, err := doRequest[bool](ctx, c, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
	})
	return err
}

type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	Description string `json:"description"`
}

func doRequest[T any](ctx context.Context, client *Client, method string, params map[string]any) (T, error) {
	var zero T

	body, err := json.Marshal(params)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal %s params: %w", method, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("https://api.telegram.org/bot%s/%s", client.token, method))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if deadline, ok := ctx.Deadline(); ok {
		err = client.client.DoDeadline(req, resp, deadline)
	} else {
		err = client.client.Do(req, resp)
	}
	if err != nil {
		return zero, fmt.Errorf("%s request failed: %w", method, err)
	}

	var result apiResponse[T]
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return zero, fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !result.OK {
		return zero, fmt.Errorf("%s: API error %d: %s", method, resp.StatusCode(), result.Description)
	}
	return result.Result, nil
}

type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}
