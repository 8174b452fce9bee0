package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/inho1628/korea-community-website/digest"
	"github.com/inho1628/korea-community-website/model"
	"github.com/inho1628/korea-community-website/ranker"
)

// botAPI is the subset of *tgbotapi.BotAPI used here.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// HotFeed supplies posts for the /hot command.
type HotFeed interface {
	TopHotPosts(ctx context.Context, n int) ([]ranker.RankedPost, error)
}

// Telegram sends board notifications through a Telegram bot and answers a
// couple of chat commands.
type Telegram struct {
	api     botAPI
	chatID  int64
	feed    HotFeed
	feedLen int
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures Telegram.
type Option func(*Telegram)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Telegram) { t.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Telegram) { t.now = now }
}

// NewTelegram connects to the Bot API with token. Moderator notifications
// go to chatID.
func NewTelegram(token string, chatID int64, opts ...Option) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return newTelegram(api, chatID, opts...), nil
}

func newTelegram(api botAPI, chatID int64, opts ...Option) *Telegram {
	t := &Telegram{
		api:     api,
		chatID:  chatID,
		feedLen: 10,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SendMessage posts text to chatID and returns the Telegram message id.
func (t *Telegram) SendMessage(ctx context.Context, chatID int64, text string, html bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if html {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	msg.DisableWebPagePreview = true

	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send telegram message: %w", err)
	}
	return int64(sent.MessageID), nil
}

// NotifyApplication tells moderators about a new gallery application.
func (t *Telegram) NotifyApplication(ctx context.Context, app model.GalleryApplication, applicant model.User) error {
	_, err := t.SendMessage(ctx, t.chatID, FormatApplication(app, applicant, t.now()), true)
	return err
}

// ServeHotFeed enables the /hot command, listing n posts by default. Call it
// before Listen.
func (t *Telegram) ServeHotFeed(feed HotFeed, n int) {
	t.feed = feed
	if n > 0 {
		t.feedLen = n
	}
}

// Listen answers chat commands until ctx is cancelled.
func (t *Telegram) Listen(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.api.GetUpdatesChan(u)
	defer t.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := t.HandleUpdate(ctx, update); err != nil {
				t.logger.Warn("telegram command failed", "error", err)
			}
		}
	}
}

// HandleUpdate dispatches a single update. Non-command messages are ignored.
func (t *Telegram) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return nil
	}

	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		text := "코리아 커뮤니티 알림 봇입니다.\n\n" +
			"/hot - 지금 인기글 보기\n" +
			"/chatid - 이 채팅의 ID 확인"
		_, err := t.SendMessage(ctx, chatID, text, false)
		return err
	case "chatid":
		_, err := t.SendMessage(ctx, chatID, "chat_id: "+strconv.FormatInt(chatID, 10), false)
		return err
	case "hot":
		return t.sendHot(ctx, chatID, msg.CommandArguments())
	default:
		return nil
	}
}

func (t *Telegram) sendHot(ctx context.Context, chatID int64, args string) error {
	if t.feed == nil {
		_, err := t.SendMessage(ctx, chatID, "인기글 기능이 꺼져 있습니다.", false)
		return err
	}

	n := t.feedLen
	if v, err := strconv.Atoi(strings.TrimSpace(args)); err == nil && v > 0 && v <= 50 {
		n = v
	}

	posts, err := t.feed.TopHotPosts(ctx, n)
	if err != nil {
		return fmt.Errorf("load hot posts: %w", err)
	}
	if len(posts) == 0 {
		_, err := t.SendMessage(ctx, chatID, "아직 게시글이 없습니다.", false)
		return err
	}
	_, err = t.SendMessage(ctx, chatID, digest.Format(posts, t.now()), true)
	return err
}
