package mailer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mailprefs/internal/model"
)

func testSettings() *model.AppSettings {
	return &model.AppSettings{
		SMTPHost:        "smtp.example.org",
		SMTPPort:        587,
		SMTPFromAddress: "noreply@example.org",
		SMTPFromName:    "Build Server",
	}
}

func TestFormatMessage(t *testing.T) {
	m := New(testSettings())
	result := m.formatMessage(Message{
		To:      []string{"a@example.org", "b@example.org"},
		Subject: "Build passed\r\nBcc: evil@example.org",
		Body:    "All green.",
	})

	cases := []struct {
		name string
		want string
	}{
		{"from header", "From: Build Server <noreply@example.org>\r\n"},
		{"to header", "To: a@example.org, b@example.org\r\n"},
		{"subject header", "Subject: Build passed  Bcc: evil@example.org\r\n"},
		{"mime header", "MIME-Version: 1.0\r\n"},
		{"content type header", "Content-Type: text/plain; charset=UTF-8\r\n"},
		{"body", "\r\n\r\nAll green."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !strings.Contains(result, tc.want) {
				t.Errorf("expected %q in message, got:\n%s", tc.want, result)
			}
		})
	}
}

func TestFormatMessageStripsLineBreaksFromRecipients(t *testing.T) {
	m := New(testSettings())
	result := m.formatMessage(Message{To: []string{"a@example.org\r\nBcc: evil@example.org"}})

	if strings.Contains(result, "\r\nBcc:") {
		t.Errorf("recipient injected a header:\n%s", result)
	}
}

func TestSendWithoutSettings(t *testing.T) {
	m := New(nil)
	if m.Enabled() {
		t.Error("expected an unconfigured mailer to be disabled")
	}
	if err := m.SendTest("a@example.org"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestReconfigure(t *testing.T) {
	m := New(nil)
	m.Reconfigure(testSettings())
	if !m.Enabled() {
		t.Error("expected mailer to be enabled after Reconfigure")
	}
	m.Reconfigure(nil)
	if m.Enabled() {
		t.Error("expected mailer to be disabled after clearing settings")
	}
}

type recorder struct {
	mu    sync.Mutex
	sent  []Message
	fails int
}

func (r *recorder) send(msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fails > 0 {
		r.fails--
		return errors.New("connection refused")
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestQueueDeliversAndRetries(t *testing.T) {
	rec := &recorder{fails: 1}
	m := New(testSettings())
	m.sendFn = rec.send

	q := NewQueue(m, time.Millisecond, 4, 2)
	q.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = q.Start(ctx)
		close(done)
	}()

	if err := q.Enqueue(Message{To: []string{"a@example.org"}, Subject: "hi"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	waitFor(t, func() bool { return rec.count() == 1 })

	cancel()
	<-done
}

func TestQueueFull(t *testing.T) {
	q := NewQueue(New(testSettings()), time.Hour, 1, 0)
	if err := q.Enqueue(Message{}); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	if err := q.Enqueue(Message{}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
}

func TestQueueDrainsOnShutdown(t *testing.T) {
	rec := &recorder{}
	m := New(testSettings())
	m.sendFn = rec.send
	q := NewQueue(m, time.Hour, 4, 0)

	for i := 0; i < 3; i++ {
		if err := q.Enqueue(Message{To: []string{"a@example.org"}}); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if rec.count() != 3 {
		t.Errorf("expected 3 messages drained, got %d", rec.count())
	}
}
