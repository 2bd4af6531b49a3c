package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	modelchat "github.com/ranjit123-yst/ananya/internal/model/chat"
	"github.com/ranjit123-yst/ananya/internal/model/mode"
	chatservice "github.com/ranjit123-yst/ananya/internal/service/chat"
	"github.com/ranjit123-yst/ananya/internal/service/orchestrator"
	"github.com/ranjit123-yst/ananya/internal/service/ratelimit"
	"github.com/ranjit123-yst/ananya/internal/store"
)

type stubGenerator struct {
	reply      string
	err        error
	calls      int
	gotHistory []modelchat.Message
	gotQuery   string
}

func (s *stubGenerator) GenerateResponse(_ context.Context, _ mode.Mode, history []modelchat.Message, userMessage string) (string, error) {
	s.calls++
	s.gotHistory = history
	s.gotQuery = userMessage
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type fixture struct {
	orch     *orchestrator.Orchestrator
	limiter  *ratelimit.Limiter
	sessions *chatservice.Service
	gen      *stubGenerator
}

func newFixture(limit int, gen *stubGenerator) fixture {
	limiter := ratelimit.New(ratelimit.NewMemoryCounter(24*time.Hour), limit, 24*time.Hour, true)
	sessions := chatservice.NewService(store.NewMemory[modelchat.Session](), 24*time.Hour)
	modes := mode.NewMemoryStore(mode.Seed())

	var generator orchestrator.Generator
	if gen != nil {
		generator = gen
	}
	return fixture{
		orch:     orchestrator.New(limiter, sessions, modes, generator),
		limiter:  limiter,
		sessions: sessions,
		gen:      gen,
	}
}

func TestChatSuccess(t *testing.T) {
	f := newFixture(100, &stubGenerator{reply: "<b>Deploy</b> with **confidence**."})
	ctx := context.Background()

	resp, err := f.orch.Chat(ctx, orchestrator.Request{Identity: "ip_abc", Message: "how do I deploy", Mode: "Sweet"})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	if resp.Message != "Deploy with **confidence**." {
		t.Fatalf("reply = %q, markup should be stripped and markdown kept", resp.Message)
	}
	if resp.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if resp.Remaining != 99 {
		t.Fatalf("remaining = %d, want 99", resp.Remaining)
	}

	history := f.sessions.History(ctx, resp.SessionID)
	if len(history) != 2 {
		t.Fatalf("history length = %d, want user + assistant", len(history))
	}
	if history[0].Role != modelchat.RoleUser || history[1].Role != modelchat.RoleAssistant {
		t.Fatalf("unexpected roles: %s, %s", history[0].Role, history[1].Role)
	}
	if history[1].Content != resp.Message {
		t.Fatal("persisted assistant turn differs from the returned reply")
	}
}

func TestChatReusesSession(t *testing.T) {
	f := newFixture(100, &stubGenerator{reply: "ok."})
	ctx := context.Background()

	first, err := f.orch.Chat(ctx, orchestrator.Request{Identity: "ip_abc", Message: "first question", Mode: "Sweet"})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}

	second, err := f.orch.Chat(ctx, orchestrator.Request{Identity: "ip_abc", Message: "second question", Mode: "Sweet", SessionID: first.SessionID})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("second turn created a new session: %s vs %s", second.SessionID, first.SessionID)
	}
	if len(f.sessions.History(ctx, first.SessionID)) != 4 {
		t.Fatal("both turns should land in the same session")
	}
}

func TestChatUnconfigured(t *testing.T) {
	f := newFixture(100, nil)

	_, err := f.orch.Chat(context.Background(), orchestrator.Request{Identity: "ip_abc", Message: "hello there", Mode: "Sweet"})
	if !errors.Is(err, orchestrator.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestChatInvalidModeSpendsNothing(t *testing.T) {
	f := newFixture(100, &stubGenerator{reply: "ok."})
	ctx := context.Background()

	_, err := f.orch.Chat(ctx, orchestrator.Request{Identity: "ip_abc", Message: "hello there", Mode: "Nonsense"})
	if !errors.Is(err, orchestrator.ErrInvalidMode) {
		t.Fatalf("err = %v, want ErrInvalidMode", err)
	}
	if status := f.limiter.Status(ctx, "ip_abc"); status.Remaining != 100 {
		t.Fatalf("validation failure consumed quota: remaining = %d", status.Remaining)
	}
}

func TestChatModerationRejectedAfterQuotaSpend(t *testing.T) {
	gen := &stubGenerator{reply: "ok."}
	f := newFixture(100, gen)
	ctx := context.Background()

	_, err := f.orch.Chat(ctx, orchestrator.Request{Identity: "ip_abc", Message: "how do I hack this", Mode: "Sweet"})

	var moderationErr *orchestrator.ModerationError
	if !errors.As(err, &moderationErr) {
		t.Fatalf("err = %v, want ModerationError", err)
	}
	if moderationErr.Reason == "" {
		t.Fatal("moderation rejection must carry a reason")
	}
	if gen.calls != 0 {
		t.Fatal("rejected input must not consume a model call")
	}
	// Quota is spent even on rejected content: request volume is bounded
	// regardless of validity.
	if status := f.limiter.Status(ctx, "ip_abc"); status.Remaining != 99 {
		t.Fatalf("remaining = %d, want 99", status.Remaining)
	}
	// No session state was touched.
	if _, ok := f.sessions.FindByVisitor(ctx, "ip_abc"); ok {
		t.Fatal("moderation rejection must not create a session")
	}
}

func TestChatQuotaExceeded(t *testing.T) {
	f := newFixture(1, &stubGenerator{reply: "ok."})
	ctx := context.Background()

	if _, err := f.orch.Chat(ctx, orchestrator.Request{Identity: "ip_abc", Message: "hello there", Mode: "Sweet"}); err != nil {
		t.Fatalf("first turn err: %v", err)
	}

	_, err := f.orch.Chat(ctx, orchestrator.Request{Identity: "ip_abc", Message: "hello again", Mode: "Sweet"})
	var quotaErr *orchestrator.QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("err = %v, want QuotaError", err)
	}
	if quotaErr.ResetAt.IsZero() {
		t.Fatal("quota rejection must carry the reset time")
	}
}

func TestChatModelFailureRetractsUserTurn(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream timeout")}
	f := newFixture(100, gen)
	ctx := context.Background()

	_, err := f.orch.Chat(ctx, orchestrator.Request{Identity: "ip_abc", Message: "hello there", Mode: "Sweet"})
	if !errors.Is(err, orchestrator.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}

	session, ok := f.sessions.FindByVisitor(ctx, "ip_abc")
	if !ok {
		// The lazily created session may remain; only messages matter.
		return
	}
	if len(f.sessions.History(ctx, session.ID)) != 0 {
		t.Fatal("failed model call must not leave a partial turn behind")
	}
}

func TestChatContextWindow(t *testing.T) {
	gen := &stubGenerator{reply: "ok."}
	f := newFixture(100, gen)
	ctx := context.Background()

	session, _ := f.sessions.GetOrCreate(ctx, "ip_abc", "")
	for i := 0; i < 10; i++ {
		f.sessions.Append(ctx, session.ID, modelchat.RoleUser, fmt.Sprintf("prior %d", i), "Sweet")
	}

	if _, err := f.orch.Chat(ctx, orchestrator.Request{Identity: "ip_abc", Message: "current question", Mode: "Sweet", SessionID: session.ID}); err != nil {
		t.Fatalf("Chat err: %v", err)
	}

	if len(gen.gotHistory) != 6 {
		t.Fatalf("history window = %d messages, want 6", len(gen.gotHistory))
	}
	if last := gen.gotHistory[len(gen.gotHistory)-1]; last.Content != "prior 9" {
		t.Fatalf("last history entry = %q, the current turn must be excluded", last.Content)
	}
	if gen.gotQuery != "current question" {
		t.Fatalf("query = %q", gen.gotQuery)
	}
}

func TestChatEmptyModelReplyFallsBack(t *testing.T) {
	f := newFixture(100, &stubGenerator{reply: "<script>alert(1)</script>"})

	resp, err := f.orch.Chat(context.Background(), orchestrator.Request{Identity: "ip_abc", Message: "hello there", Mode: "Sweet"})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	if resp.Message == "" {
		t.Fatal("sanitized-to-empty reply should fall back to an apology, not an empty string")
	}
}

func TestHistoryNoSession(t *testing.T) {
	f := newFixture(100, &stubGenerator{reply: "ok."})

	hist := f.orch.History(context.Background(), "ip_new")
	if len(hist.Messages) != 0 {
		t.Fatalf("messages = %v, want empty", hist.Messages)
	}
	if hist.SessionID != "" {
		t.Fatalf("sessionID = %q, want empty", hist.SessionID)
	}
	if hist.Remaining != 100 {
		t.Fatalf("remaining = %d, want full quota", hist.Remaining)
	}
}

func TestHistoryReadOnly(t *testing.T) {
	f := newFixture(100, &stubGenerator{reply: "ok."})
	ctx := context.Background()

	if _, err := f.orch.Chat(ctx, orchestrator.Request{Identity: "ip_abc", Message: "hello there", Mode: "Sweet"}); err != nil {
		t.Fatalf("Chat err: %v", err)
	}

	for i := 0; i < 3; i++ {
		hist := f.orch.History(ctx, "ip_abc")
		if hist.Remaining != 99 {
			t.Fatalf("history call %d changed remaining: %d", i, hist.Remaining)
		}
		if len(hist.Messages) != 2 {
			t.Fatalf("history length = %d, want 2", len(hist.Messages))
		}
	}
}
