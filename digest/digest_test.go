package digest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/inho1628/korea-community-website/model"
	"github.com/inho1628/korea-community-website/ranker"
)

// Mocks

type mockSource struct {
	posts     []ranker.RankedPost
	err       error
	requested int
}

func (m *mockSource) TopHotPosts(ctx context.Context, n int) ([]ranker.RankedPost, error) {
	m.requested = n
	if m.err != nil {
		return nil, m.err
	}
	return m.posts, nil
}

type sentMessage struct {
	chatID int64
	text   string
	html   bool
}

type mockSender struct {
	sent []sentMessage
	err  error
}

func (m *mockSender) SendMessage(ctx context.Context, chatID int64, text string, html bool) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.sent = append(m.sent, sentMessage{chatID, text, html})
	return int64(len(m.sent)), nil
}

var now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func rankedPost(id, title string, score, likes, comments int, created time.Time) ranker.RankedPost {
	return ranker.RankedPost{
		Post: model.Post{
			ID:        id,
			Category:  model.CategoryHumor,
			Title:     title,
			Likes:     likes,
			CreatedAt: model.At(created),
		},
		CommentCount: comments,
		Score:        score,
	}
}

// Tests

func TestRunDigest(t *testing.T) {
	source := &mockSource{posts: []ranker.RankedPost{
		rankedPost("p1", "Best tteokbokki in Seoul", 1250, 200, 40, now.Add(-3*time.Hour)),
		rankedPost("p2", "Jeju trip", 69, 10, 3, now.Add(-48*time.Hour)),
	}}
	sender := &mockSender{}

	runner := NewRunner(source, sender,
		WithChatID(12345),
		WithPostCount(5),
		WithClock(func() time.Time { return now }),
	)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if source.requested != 5 {
		t.Errorf("requested %d posts, want 5", source.requested)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.chatID != 12345 || !msg.html {
		t.Errorf("message = %+v", msg)
	}
	for _, want := range []string{"Best tteokbokki in Seoul", "1,250", "3 hours ago", "Jeju trip", "2 days ago"} {
		if !strings.Contains(msg.text, want) {
			t.Errorf("digest missing %q:\n%s", want, msg.text)
		}
	}
	if strings.Index(msg.text, "tteokbokki") > strings.Index(msg.text, "Jeju") {
		t.Error("digest should keep ranking order")
	}
}

func TestRunDigestNoChatID(t *testing.T) {
	runner := NewRunner(&mockSource{}, &mockSender{})

	if err := runner.Run(context.Background()); err == nil {
		t.Error("expected error when chat_id not set")
	}
}

func TestRunDigestEmptyFeed(t *testing.T) {
	sender := &mockSender{}
	runner := NewRunner(&mockSource{}, sender, WithChatID(1))

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent %d messages for empty feed, want 0", len(sender.sent))
	}
}

func TestRunDigestSourceError(t *testing.T) {
	runner := NewRunner(&mockSource{err: errors.New("storage down")}, &mockSender{}, WithChatID(1))

	if err := runner.Run(context.Background()); err == nil {
		t.Error("expected error when source fails")
	}
}

func TestRunDigestSendError(t *testing.T) {
	source := &mockSource{posts: []ranker.RankedPost{rankedPost("p1", "t", 1, 0, 0, now)}}
	runner := NewRunner(source, &mockSender{err: errors.New("telegram down")}, WithChatID(1))

	if err := runner.Run(context.Background()); err == nil {
		t.Error("expected error when send fails")
	}
}

func TestFormatEscapesHTML(t *testing.T) {
	posts := []ranker.RankedPost{rankedPost("p1", "<script>alert(1)</script> & co", 5, 1, 0, now)}

	text := Format(posts, now)

	if strings.Contains(text, "<script>") {
		t.Errorf("title not escaped: %s", text)
	}
	if !strings.Contains(text, "&lt;script&gt;") || !strings.Contains(text, "&amp; co") {
		t.Errorf("expected escaped title: %s", text)
	}
}

func TestFormatInvalidTimestamp(t *testing.T) {
	p := rankedPost("p1", "no date", 5, 1, 0, now)
	p.CreatedAt = model.Timestamp{}

	if text := Format([]ranker.RankedPost{p}, now); !strings.Contains(text, "방금") {
		t.Errorf("expected fallback age: %s", text)
	}
}
