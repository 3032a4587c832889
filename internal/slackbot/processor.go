package slackbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/basehelp/basehelp/internal/analytics"
	"github.com/basehelp/basehelp/internal/reply"
	"github.com/basehelp/basehelp/internal/tenant"
)

// Generator produces a structured answer plus the source list it was
// generated against. Implemented by the conversation/RAG collaborator.
type Generator interface {
	GenerateReply(ctx context.Context, t *tenant.Tenant, p *tenant.Profile, ev InboundEvent) (reply.Generated, []reply.Source, error)
}

// AnsweredClassifier answers "is this reply an insightful answer?".
type AnsweredClassifier interface {
	IsAnswered(ctx context.Context, message, reply string) (bool, error)
}

// TenantDirectory resolves Slack identities to tenant records.
// *tenant.Store satisfies it.
type TenantDirectory interface {
	TenantBySlackTeamID(ctx context.Context, teamID string) (*tenant.Tenant, error)
	UserBySlackUserID(ctx context.Context, slackUserID string) (*tenant.User, error)
	CreateSlackUser(ctx context.Context, slackUserID, name, realName string) (*tenant.User, error)
	ProfileByTenantAndUser(ctx context.Context, tenantID, userID string) (*tenant.Profile, error)
	CreateProfile(ctx context.Context, tenantID, userID, role string) (*tenant.Profile, error)
}

// Processor orchestrates one queued task: gate, generate, format,
// post. Every step is safe to repeat under queue redelivery; the final
// Slack post is at-least-once, so a retry after partial failure can
// produce a duplicate reply.
type Processor struct {
	gate      *ReplyGate
	generator Generator
	answered  AnsweredClassifier
	directory TenantDirectory
	newClient ClientFactory
	formatter *reply.Formatter
	recorder  analytics.Recorder
}

// NewProcessor wires the orchestrator. answered may be nil to skip the
// answered-check classification on processed replies.
func NewProcessor(gate *ReplyGate, generator Generator, answered AnsweredClassifier,
	directory TenantDirectory, newClient ClientFactory, formatter *reply.Formatter,
	recorder analytics.Recorder) *Processor {
	return &Processor{
		gate:      gate,
		generator: generator,
		answered:  answered,
		directory: directory,
		newClient: newClient,
		formatter: formatter,
		recorder:  recorder,
	}
}

// Process handles one verified task. A nil return means the task is
// fully handled, including the gate-rejected terminal path; an error
// means the queue should redeliver.
func (p *Processor) Process(ctx context.Context, ev InboundEvent) error {
	started := time.Now()
	traceID := uuid.NewString()
	log := slog.With("trace_id", traceID, "event_type", ev.Type, "channel", ev.Channel)

	if ev.FromBot() {
		log.Debug("ignoring bot event")
		return nil
	}

	shouldReply, err := p.gate.ShouldReply(ctx, ev.Text)
	if err != nil {
		return fmt.Errorf("reply gate: %w", err)
	}
	if !shouldReply {
		log.Info("gate rejected, not replying")
		p.record(ctx, analytics.ReplyRecord{
			TraceID:          traceID,
			Channel:          ev.Channel,
			EventType:        ev.Type,
			GateAccepted:     false,
			ProcessingMillis: time.Since(started).Milliseconds(),
			ProcessedAt:      time.Now().UTC(),
		})
		return nil
	}

	ten, err := p.directory.TenantBySlackTeamID(ctx, ev.Team)
	if err != nil {
		return fmt.Errorf("resolve tenant for team %s: %w", ev.Team, err)
	}
	client, err := p.newClient(ten)
	if err != nil {
		return fmt.Errorf("slack client for tenant %s: %w", ten.Slug, err)
	}
	profile, err := p.signIn(ctx, ten, ev.User, client)
	if err != nil {
		return fmt.Errorf("slack sign-in: %w", err)
	}

	gen, sources, err := p.generator.GenerateReply(ctx, ten, profile, ev)
	if err != nil {
		return fmt.Errorf("generate reply: %w", err)
	}

	text := p.formatter.Format(gen, sources, ten.Slug)
	if err := client.PostMessage(ctx, ev.Channel, ev.ThreadTS, text); err != nil {
		return fmt.Errorf("post reply: %w", err)
	}
	log.Info("reply posted", "tenant", ten.Slug, "sources", len(sources))

	answered := false
	if p.answered != nil {
		if answered, err = p.answered.IsAnswered(ctx, ev.Text, gen.Message); err != nil {
			// Analytics-only signal; the reply is already posted.
			log.Warn("answered check failed", "error", err)
		}
	}

	p.record(ctx, analytics.ReplyRecord{
		TraceID:          traceID,
		TenantSlug:       ten.Slug,
		Channel:          ev.Channel,
		EventType:        ev.Type,
		GateAccepted:     true,
		Answered:         answered,
		CitationFallback: citationFallback(gen.UsedSourceIndexes, len(sources)),
		ProcessingMillis: time.Since(started).Milliseconds(),
		ProcessedAt:      time.Now().UTC(),
	})
	return nil
}

// signIn resolves (creating on first contact) the platform user and
// tenant profile behind a Slack user ID.
func (p *Processor) signIn(ctx context.Context, ten *tenant.Tenant, slackUserID string, client Client) (*tenant.Profile, error) {
	user, err := p.directory.UserBySlackUserID(ctx, slackUserID)
	switch {
	case errors.Is(err, tenant.ErrNotFound):
		info, err := client.UserInfo(ctx, slackUserID)
		if err != nil {
			return nil, err
		}
		if user, err = p.directory.CreateSlackUser(ctx, slackUserID, info.Name, info.RealName); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	profile, err := p.directory.ProfileByTenantAndUser(ctx, ten.ID, user.ID)
	if errors.Is(err, tenant.ErrNotFound) {
		return p.directory.CreateProfile(ctx, ten.ID, user.ID, "guest")
	}
	return profile, err
}

func (p *Processor) record(ctx context.Context, rec analytics.ReplyRecord) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, rec); err != nil {
		slog.Warn("reply record failed", "error", err)
	}
}

func citationFallback(indexes []int, sourceCount int) bool {
	for _, idx := range indexes {
		if idx < 0 || idx >= sourceCount {
			return true
		}
	}
	return false
}
