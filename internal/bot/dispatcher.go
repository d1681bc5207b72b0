package bot

import (
	"context"
	"time"

	"partyfinder/internal/config"
	"partyfinder/internal/constants"
	"partyfinder/internal/domain"
	"partyfinder/internal/telegram"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const pollRetryDelay = 3 * time.Second

// Dispatcher runs the long-poll loop: it pulls updates, feeds them to the
// state machine, and delivers the resulting screens. Updates for distinct
// users are handled concurrently; a user's own updates stay in order.
type Dispatcher struct {
	client  *telegram.Client
	machine *Machine
	cfg     *config.Config
	logger  zerolog.Logger
}

func NewDispatcher(client *telegram.Client, machine *Machine, cfg *config.Config, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{client: client, machine: machine, cfg: cfg, logger: logger}
}

// Run blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info().Msg("update loop starting")

	var offset int64
	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("update loop stopped")
			return nil
		default:
		}

		pollCtx, cancel := context.WithTimeout(ctx, constants.TelegramAPITimeout)
		updates, err := d.client.GetUpdates(pollCtx, offset, int(d.cfg.PollTimeout.Seconds()))
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d.logger.Warn().Err(err).Msg("getUpdates failed, retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		if len(updates) > 0 {
			offset = updates[len(updates)-1].UpdateID + 1
			d.handleBatch(ctx, updates)
		}
	}
}

// handleBatch fans updates out per user: one goroutine per user keeps that
// user's updates sequential while different users proceed in parallel.
func (d *Dispatcher) handleBatch(ctx context.Context, updates []telegram.Update) {
	byUser := make(map[int64][]telegram.Update)
	var order []int64
	for _, u := range updates {
		id := updateUserID(u)
		if id == 0 {
			continue
		}
		if _, seen := byUser[id]; !seen {
			order = append(order, id)
		}
		byUser[id] = append(byUser[id], u)
	}

	var g errgroup.Group
	for _, userID := range order {
		batch := byUser[userID]
		g.Go(func() error {
			for _, u := range batch {
				d.handleUpdate(ctx, u)
			}
			return nil
		})
	}
	g.Wait()
}

func (d *Dispatcher) handleUpdate(ctx context.Context, u telegram.Update) {
	ctx, cancel := context.WithTimeout(ctx, constants.EventTimeout)
	defer cancel()

	switch {
	case u.CallbackQuery != nil:
		d.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && u.Message.From != nil:
		d.handleMessage(ctx, u.Message)
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if err := d.client.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		d.logger.Warn().Err(err).Str("callback_id", cb.ID).Msg("failed to answer callback")
	}
	if cb.Message == nil {
		d.logger.Warn().Str("callback_id", cb.ID).Msg("callback without message, dropping")
		return
	}

	ev := Event{UserID: cb.From.ID, Handle: cb.From.Username}

	var screen domain.Screen
	action, err := ParseAction(cb.Data)
	if err != nil {
		screen = d.machine.HandleInvalid(ctx, ev.UserID, err)
	} else {
		ev.Action = &action
		screen = d.machine.Handle(ctx, ev)
	}

	d.deliverEdit(ctx, cb.Message.Chat.ID, cb.Message.MessageID, screen)
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *telegram.Message) {
	ev := Event{
		UserID: msg.From.ID,
		Handle: msg.From.Username,
		Text:   msg.Text,
	}
	screen := d.machine.Handle(ctx, ev)

	if _, err := d.client.SendMessage(ctx, msg.Chat.ID, screen.Text, toMarkup(screen)); err != nil {
		d.logger.Error().Err(err).Int64("chat_id", msg.Chat.ID).
			Str("screen", string(screen.ID)).Msg("failed to deliver screen")
	}
}

// deliverEdit updates the message the button lived on. The state transition
// has already been committed; if the edit fails, one fallback send is
// attempted, then the failure is logged and abandoned.
func (d *Dispatcher) deliverEdit(ctx context.Context, chatID, messageID int64, screen domain.Screen) {
	_, err := d.client.EditMessageText(ctx, chatID, messageID, screen.Text, toMarkup(screen))
	if err == nil {
		return
	}
	d.logger.Warn().Err(err).Int64("chat_id", chatID).
		Str("screen", string(screen.ID)).Msg("edit failed, falling back to send")

	if _, err := d.client.SendMessage(ctx, chatID, screen.Text, toMarkup(screen)); err != nil {
		d.logger.Error().Err(err).Int64("chat_id", chatID).
			Str("screen", string(screen.ID)).Msg("fallback delivery failed, abandoning")
	}
}

func toMarkup(screen domain.Screen) *telegram.InlineKeyboardMarkup {
	if len(screen.Buttons) == 0 {
		return nil
	}
	markup := &telegram.InlineKeyboardMarkup{}
	for _, row := range screen.Buttons {
		var btns []telegram.InlineKeyboardButton
		for _, b := range row {
			btns = append(btns, telegram.InlineKeyboardButton{Text: b.Label, CallbackData: b.Action})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, btns)
	}
	return markup
}

func updateUserID(u telegram.Update) int64 {
	if u.CallbackQuery != nil {
		return u.CallbackQuery.From.ID
	}
	if u.Message != nil && u.Message.From != nil {
		return u.Message.From.ID
	}
	return 0
}
