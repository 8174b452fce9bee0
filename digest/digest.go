package digest

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/inho1628/korea-community-website/ranker"
)

// Source supplies the ranked hot feed.
type Source interface {
	TopHotPosts(ctx context.Context, n int) ([]ranker.RankedPost, error)
}

// Sender delivers a formatted message to a chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, html bool) (int64, error)
}

// Runner builds and sends the daily hot-posts digest.
type Runner struct {
	source Source
	sender Sender
	chatID int64
	count  int
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithChatID sets the Telegram chat ID.
func WithChatID(chatID int64) Option {
	return func(r *Runner) {
		r.chatID = chatID
	}
}

// WithPostCount sets the number of posts per digest.
func WithPostCount(count int) Option {
	return func(r *Runner) {
		r.count = count
	}
}

// WithClock overrides the reference time for relative ages.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a new digest runner.
func NewRunner(source Source, sender Sender, opts ...Option) *Runner {
	r := &Runner{
		source: source,
		sender: sender,
		count:  10,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run sends one digest message. An empty feed sends nothing.
func (r *Runner) Run(ctx context.Context) error {
	if r.chatID == 0 {
		return fmt.Errorf("chat_id not set")
	}

	posts, err := r.source.TopHotPosts(ctx, r.count)
	if err != nil {
		return fmt.Errorf("load hot posts: %w", err)
	}
	if len(posts) == 0 {
		r.logger.Info("no posts for digest")
		return nil
	}

	msgID, err := r.sender.SendMessage(ctx, r.chatID, Format(posts, r.now()), true)
	if err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	r.logger.Info("digest sent", "chat_id", r.chatID, "posts", len(posts), "message_id", msgID)
	return nil
}

// Format renders ranked posts as a Telegram HTML message.
func Format(posts []ranker.RankedPost, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("🔥 <b>오늘의 인기글</b>\n\n")

	for i, p := range posts {
		age := "방금"
		if p.CreatedAt.Valid {
			age = humanize.RelTime(p.CreatedAt.Time, now, "ago", "from now")
		}
		fmt.Fprintf(&sb, "%d. <b>%s</b> <i>[%s]</i>\n", i+1, html.EscapeString(p.Title), p.Category)
		fmt.Fprintf(&sb, "   ⭐ %s | ❤️ %s | 💬 %d | %s\n",
			humanize.Comma(int64(p.Score)), humanize.Comma(int64(p.Likes)), p.CommentCount, age)
	}

	return strings.TrimRight(sb.String(), "\n")
}
