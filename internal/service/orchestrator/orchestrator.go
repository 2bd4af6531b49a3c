package orchestrator

import (
	"context"
	"fmt"
	"log"

	"github.com/ranjit123-yst/ananya/internal/model/chat"
	"github.com/ranjit123-yst/ananya/internal/model/mode"
	chatservice "github.com/ranjit123-yst/ananya/internal/service/chat"
	"github.com/ranjit123-yst/ananya/internal/service/moderation"
	"github.com/ranjit123-yst/ananya/internal/service/ratelimit"
)

// contextWindow bounds the prior turns forwarded to the model for continuity.
const contextWindow = 6

// fallbackReply covers the rare case of the model returning only markup or
// whitespace.
const fallbackReply = "I apologize, but I could not generate a response. Please try again."

// Generator produces a model reply for a mode, prior turns, and the current
// user message. ai.Service implements it; tests substitute a stub.
type Generator interface {
	GenerateResponse(ctx context.Context, selected mode.Mode, history []chat.Message, userMessage string) (string, error)
}

// Orchestrator sequences a chat turn: quota, moderation, session bookkeeping,
// model invocation, sanitation.
type Orchestrator struct {
	limiter   *ratelimit.Limiter
	sessions  *chatservice.Service
	modes     mode.Store
	generator Generator
}

// Request is one inbound chat turn, identity already resolved.
type Request struct {
	Identity  string
	Message   string
	Mode      string
	SessionID string
}

// Response is a completed chat turn.
type Response struct {
	Message   string
	SessionID string
	Remaining int
}

// HistoryResponse is the visitor's stored conversation plus quota status.
type HistoryResponse struct {
	Messages  []chat.Message
	SessionID string
	Remaining int
}

// New wires the orchestrator. generator may be nil when model credentials are
// absent; chat turns then fail with ErrUnavailable while history still works.
func New(limiter *ratelimit.Limiter, sessions *chatservice.Service, modes mode.Store, generator Generator) *Orchestrator {
	return &Orchestrator{
		limiter:   limiter,
		sessions:  sessions,
		modes:     modes,
		generator: generator,
	}
}

// Chat runs the full request pipeline. The quota slot is consumed before
// moderation on purpose: total request volume is bounded regardless of
// content validity.
func (o *Orchestrator) Chat(ctx context.Context, req Request) (Response, error) {
	if o.generator == nil {
		return Response{}, ErrUnavailable
	}

	selected, ok := o.modes.Find(req.Mode)
	if !ok {
		return Response{}, ErrInvalidMode
	}

	quota := o.limiter.Check(ctx, req.Identity)
	if !quota.Allowed {
		return Response{}, &QuotaError{ResetAt: quota.ResetAt}
	}

	if verdict := moderation.ModerateInput(req.Message); !verdict.Allowed {
		return Response{}, &ModerationError{Reason: verdict.Reason}
	}

	session, err := o.sessions.GetOrCreate(ctx, req.Identity, req.SessionID)
	if err != nil {
		return Response{}, fmt.Errorf("resolve session: %w", err)
	}

	userTurn, err := o.sessions.Append(ctx, session.ID, chat.RoleUser, req.Message, selected.Name)
	if err != nil {
		return Response{}, fmt.Errorf("append user turn: %w", err)
	}

	// Last contextWindow prior messages, excluding the turn just appended.
	recent := o.sessions.Recent(ctx, session.ID, contextWindow+1)
	history := recent
	if n := len(recent); n > 0 && recent[n-1].ID == userTurn.ID {
		history = recent[:n-1]
	}

	reply, err := o.generator.GenerateResponse(ctx, selected, history, req.Message)
	if err != nil {
		// The optimistic user turn must not survive a failed model call.
		o.sessions.Retract(ctx, session.ID, userTurn.ID)
		log.Printf("[orchestrator] model call failed: %v", err)
		return Response{}, ErrUpstream
	}

	sanitized := moderation.SanitizeOutput(reply)
	if sanitized == "" {
		sanitized = fallbackReply
	}

	if _, err := o.sessions.Append(ctx, session.ID, chat.RoleAssistant, sanitized, selected.Name); err != nil {
		return Response{}, fmt.Errorf("append assistant turn: %w", err)
	}

	return Response{
		Message:   sanitized,
		SessionID: session.ID,
		Remaining: quota.Remaining,
	}, nil
}

// History returns the visitor's conversation and read-only quota status. A
// visitor with no session gets an empty history and full quota, not an error.
func (o *Orchestrator) History(ctx context.Context, identity string) HistoryResponse {
	session, ok := o.sessions.FindByVisitor(ctx, identity)
	if !ok {
		return HistoryResponse{
			Messages:  []chat.Message{},
			Remaining: o.limiter.Limit(),
		}
	}

	status := o.limiter.Status(ctx, identity)
	return HistoryResponse{
		Messages:  o.sessions.History(ctx, session.ID),
		SessionID: session.ID,
		Remaining: status.Remaining,
	}
}
