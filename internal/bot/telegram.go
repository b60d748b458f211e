package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"fintrack/internal/log"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v3"
)

// TelegramConfig configures the Bot API transport.
type TelegramConfig struct {
	Token       string
	PollTimeout time.Duration
	// RateLimit caps outgoing messages per second across all chats.
	RateLimit float64
}

// Telegram connects a Dispatcher to the Telegram Bot API with long polling.
type Telegram struct {
	bot     *tele.Bot
	d       *Dispatcher
	limiter *rate.Limiter
	logger  *log.Logger
	ctx     context.Context
}

// NewTelegram creates the API client. It contacts Telegram to validate the
// token.
func NewTelegram(cfg TelegramConfig, d *Dispatcher) (*Telegram, error) {
	logger := log.WithComponent(log.ComponentBot)
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
		OnError: func(err error, c tele.Context) {
			if c != nil && c.Chat() != nil {
				logger.Error("Telegram handler failed", log.FieldChatID, c.Chat().ID, log.FieldError, err)
				return
			}
			logger.Error("Telegram error", log.FieldError, err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	limit := rate.Limit(cfg.RateLimit)
	burst := max(1, int(cfg.RateLimit))
	if cfg.RateLimit <= 0 {
		limit, burst = rate.Inf, 1
	}

	t := &Telegram{
		bot:     b,
		d:       d,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
		ctx:     context.Background(),
	}
	t.routes()
	return t, nil
}

// requestContext carries a logger tagged with the chat id.
func (t *Telegram) requestContext(c tele.Context) context.Context {
	return log.NewContext(t.ctx, t.logger.With(log.FieldChatID, c.Chat().ID))
}

func (t *Telegram) routes() {
	t.bot.Handle("/start", func(c tele.Context) error {
		return t.send(c, t.d.Start(t.requestContext(c), c.Chat().ID))
	})
	t.bot.Handle(tele.OnText, func(c tele.Context) error {
		return t.send(c, t.d.Text(t.requestContext(c), c.Chat().ID, c.Text()))
	})
	t.bot.Handle(tele.OnDocument, func(c tele.Context) error {
		doc := c.Message().Document
		replies := t.d.Document(t.requestContext(c), c.Chat().ID, func() (io.ReadCloser, error) {
			return t.bot.File(&doc.File)
		})
		return t.send(c, replies)
	})
	t.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		if err := c.Respond(); err != nil {
			t.logger.Warn("Failed to answer callback", log.FieldChatID, c.Chat().ID, log.FieldError, err)
		}
		return t.send(c, t.d.Callback(t.requestContext(c), c.Chat().ID, c.Callback().Data))
	})
}

// Run polls for updates until ctx is cancelled.
func (t *Telegram) Run(ctx context.Context) error {
	t.ctx = ctx
	go func() {
		<-ctx.Done()
		t.bot.Stop()
	}()
	t.logger.Info("Bot polling started", "username", t.bot.Me.Username)
	t.bot.Start()
	t.logger.Info("Bot polling stopped")
	return nil
}

func (t *Telegram) send(c tele.Context, replies []Reply) error {
	for _, r := range replies {
		if err := t.limiter.Wait(t.ctx); err != nil {
			return err
		}
		if err := t.sendOne(c, r); err != nil {
			return err
		}
	}
	return nil
}

func (t *Telegram) sendOne(c tele.Context, r Reply) error {
	switch len(r.Photos) {
	case 0:
	case 1:
		p := r.Photos[0]
		return c.Send(photo(p))
	default:
		album := make(tele.Album, 0, len(r.Photos))
		for _, p := range r.Photos {
			album = append(album, photo(p))
		}
		return c.SendAlbum(album)
	}

	var opts []interface{}
	if r.HTML {
		opts = append(opts, tele.ModeHTML)
	}
	if len(r.Menu) > 0 {
		opts = append(opts, markup(r.Menu))
	}
	return c.Send(r.Text, opts...)
}

func photo(p Photo) *tele.Photo {
	return &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(p.Data)),
		Caption: p.Caption,
	}
}

func markup(m Menu) *tele.ReplyMarkup {
	rows := make([][]tele.InlineButton, len(m))
	for i, row := range m {
		rows[i] = make([]tele.InlineButton, len(row))
		for j, b := range row {
			rows[i][j] = tele.InlineButton{Text: b.Text, Data: b.Data}
		}
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}
