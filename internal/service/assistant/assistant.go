// Package assistant answers attendee questions from the current conference
// snapshot using a primary chat provider and an optional fallback.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/conference-companion-go/internal/adapter"
	"github.com/kapu/conference-companion-go/internal/constants"
	"github.com/kapu/conference-companion-go/internal/domain"
	"github.com/kapu/conference-companion-go/internal/prompt"
	"github.com/kapu/conference-companion-go/internal/service/content"
	"github.com/kapu/conference-companion-go/internal/util"
	"github.com/kapu/conference-companion-go/pkg/errors"
)

// SnapshotSource yields the content the assistant answers from.
type SnapshotSource interface {
	Current() (*content.Snapshot, error)
}

// ConversationStore keeps recent turns per conversation. Redis in production.
type ConversationStore interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
}

type Config struct {
	ConferenceName string
	Location       *time.Location
}

type Assistant struct {
	primary   ChatProvider
	fallback  ChatProvider
	source    SnapshotSource
	store     ConversationStore
	prompts   *prompt.PromptBuilder
	formatter *adapter.ResponseFormatter
	breaker   *util.CircuitBreaker
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// New wires an assistant. fallback and store may be nil.
func New(primary, fallback ChatProvider, source SnapshotSource, store ConversationStore, cfg Config, logger *zap.Logger) *Assistant {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	a := &Assistant{
		primary:   primary,
		fallback:  fallback,
		source:    source,
		store:     store,
		prompts:   prompt.DefaultPromptBuilder(),
		formatter: adapter.NewResponseFormatter(),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
	a.breaker = util.NewCircuitBreaker(util.CircuitBreakerOptions{
		Name:                "assistant",
		FailureThreshold:    constants.CircuitBreakerConfig.FailureThreshold,
		ResetTimeout:        constants.CircuitBreakerConfig.ResetTimeout,
		HealthCheckInterval: constants.CircuitBreakerConfig.HealthCheckInterval,
		HealthCheckTimeout:  constants.CircuitBreakerConfig.HealthCheckTimeout,
		HealthCheck:         a.healthCheckPing,
	}, logger)
	return a
}

// Ask answers one question. An empty conversationID starts a new conversation.
func (a *Assistant) Ask(ctx context.Context, conversationID, question string) (*Answer, error) {
	q := sanitizeQuestion(question)
	if q == "" {
		return nil, errors.NewValidationError("question must not be empty", "question", question)
	}

	if conversationID == "" {
		conversationID = uuid.NewString()
	} else if _, err := uuid.Parse(conversationID); err != nil {
		return nil, errors.NewValidationError("conversation_id must be a UUID", "conversation_id", conversationID)
	}

	if !a.breaker.CanExecute() {
		status := a.breaker.GetStatus()
		fields := []zap.Field{
			zap.String("state", status.State.String()),
			zap.Int("failure_count", status.FailureCount),
		}
		if status.NextRetryTime != nil {
			fields = append(fields, zap.Time("next_retry", *status.NextRetryTime))
		}
		a.logger.Error("Assistant unavailable (Circuit OPEN)", fields...)
		return nil, errors.NewAppError("the assistant is temporarily unavailable, please try again shortly", errors.CodeService, 503, nil)
	}

	snap, err := a.source.Current()
	if err != nil {
		return nil, err
	}

	history := a.loadHistory(ctx, conversationID)
	req, err := a.buildRequest(snap, history, q)
	if err != nil {
		return nil, errors.NewServiceError("failed to build assistant prompt", "assistant", "prompt", err)
	}

	result, provider, usedFallback, err := a.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	text := util.TruncateString(strings.TrimSpace(result.Text), constants.StringLimits.AssistantAnswer)
	if text == "" {
		return nil, errors.NewServiceError(provider+" returned an empty answer", "assistant", "generate", nil)
	}

	a.saveHistory(ctx, conversationID, append(history, prompt.Turn{Question: q, Answer: text}))

	return &Answer{
		ConversationID: conversationID,
		Text:           text,
		Provider:       provider,
		Model:          result.Model,
		UsedFallback:   usedFallback,
		ContentVersion: snap.Version,
		AnsweredAt:     a.now(),
	}, nil
}

// CircuitStatus exposes the breaker for the health endpoint.
func (a *Assistant) CircuitStatus() util.CircuitBreakerStatus {
	return a.breaker.GetStatus()
}

func (a *Assistant) generate(ctx context.Context, req Request) (ProviderResult, string, bool, error) {
	result, primaryErr := a.primary.Generate(ctx, req)
	if primaryErr == nil {
		a.breaker.RecordSuccess()
		return result, a.primary.Name(), false, nil
	}

	a.logger.Warn("Primary provider failed",
		zap.String("provider", a.primary.Name()),
		zap.Error(primaryErr),
	)

	var fallbackErr error
	if a.fallback != nil {
		result, fallbackErr = a.fallback.Generate(ctx, req)
		if fallbackErr == nil {
			a.breaker.RecordSuccess()
			return result, a.fallback.Name(), true, nil
		}
		a.logger.Warn("Fallback provider failed",
			zap.String("provider", a.fallback.Name()),
			zap.Error(fallbackErr),
		)
	}

	if isServiceFailure(primaryErr) || isServiceFailure(fallbackErr) {
		timeout := constants.CircuitBreakerConfig.ResetTimeout
		if isRateLimitError(primaryErr) || isRateLimitError(fallbackErr) {
			timeout = constants.CircuitBreakerConfig.RateLimitTimeout
		}
		a.breaker.RecordFailure(timeout)
	}

	return ProviderResult{}, "", false, errors.NewAppError(
		"the assistant could not answer right now, please try again shortly",
		errors.CodeService, 503, map[string]any{"provider": a.primary.Name()},
	).WithCause(primaryErr)
}

func (a *Assistant) buildRequest(snap *content.Snapshot, history []prompt.Turn, question string) (Request, error) {
	system, err := a.prompts.BuildSystemPrompt(prompt.SystemPromptData{
		ConferenceName: a.cfg.ConferenceName,
		Timezone:       a.cfg.Location.String(),
	})
	if err != nil {
		return Request{}, err
	}

	agenda := make([]string, 0, len(domain.ConferenceDays))
	for _, day := range domain.ConferenceDays {
		if cards := snap.Cards[day]; len(cards) > 0 {
			agenda = append(agenda, a.formatter.FormatAgenda(day, cards))
		}
	}

	c := snap.Content
	data := prompt.AssistantPromptData{
		Now:      a.now().In(a.cfg.Location).Format("Monday Jan 2, 3:04pm"),
		Agenda:   agenda,
		Speakers: a.formatter.FormatSpeakers(c.Speakers),
		Sponsors: a.formatter.FormatSponsors(c.Sponsors),
		Places:   placeLines(c.Venues, c.Recommendations),
		History:  history,
		Question: question,
	}

	body, err := a.prompts.BuildAssistantPrompt(data)
	if err != nil {
		return Request{}, err
	}
	if len(body) > constants.AIInputLimits.MaxContextChars {
		a.logger.Warn("Assistant prompt truncated", zap.Int("length", len(body)))
		body = trimContext(body, question)
	}

	return Request{
		System: system,
		Prompt: body,
		Config: DefaultGenerationConfig,
	}, nil
}

// trimContext keeps the head of an oversized prompt and re-appends the question.
func trimContext(body, question string) string {
	tail := fmt.Sprintf("\n\n## Question\n%q\n", question)
	keep := max(constants.AIInputLimits.MaxContextChars-len(tail), 0)
	return util.TruncateString(body, keep) + tail
}

func placeLines(venues []*domain.Venue, recs []*domain.Recommendation) []prompt.PlaceLine {
	lines := make([]prompt.PlaceLine, 0, len(venues)+len(recs))
	for _, v := range util.Compact(venues) {
		lines = append(lines, prompt.PlaceLine{
			Name:     v.Name,
			Kind:     v.Tag.String(),
			Location: v.Location.String(),
			Address:  v.Address,
		})
	}
	for _, r := range util.Compact(recs) {
		lines = append(lines, prompt.PlaceLine{
			Name:     r.Name,
			Kind:     r.Type.String(),
			Location: r.Location.String(),
			URL:      r.URL,
		})
	}
	return lines
}

func conversationKey(id string) string {
	return constants.RedisConfig.KeyPrefix + "assistant:" + id
}

func (a *Assistant) loadHistory(ctx context.Context, conversationID string) []prompt.Turn {
	if a.store == nil {
		return nil
	}
	var turns []prompt.Turn
	found, err := a.store.Get(ctx, conversationKey(conversationID), &turns)
	if err != nil {
		a.logger.Warn("Failed to load conversation", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}
	return turns
}

func (a *Assistant) saveHistory(ctx context.Context, conversationID string, turns []prompt.Turn) {
	if a.store == nil {
		return
	}
	if n := constants.AIInputLimits.MaxHistoryTurns; len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	if err := a.store.Set(ctx, conversationKey(conversationID), turns, constants.CacheTTL.AssistantConversation); err != nil {
		a.logger.Warn("Failed to save conversation", zap.String("conversation_id", conversationID), zap.Error(err))
	}
}

// Forget drops a conversation's stored turns. It reports false when nothing was stored.
func (a *Assistant) Forget(ctx context.Context, conversationID string) (bool, error) {
	if _, err := uuid.Parse(conversationID); err != nil {
		return false, errors.NewValidationError("conversation_id must be a UUID", "conversation_id", conversationID)
	}
	if a.store == nil {
		return false, nil
	}
	deleted, err := a.store.Del(ctx, conversationKey(conversationID))
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

func (a *Assistant) healthCheckPing(ctx context.Context) bool {
	a.logger.Info("Health Check: Testing chat providers...")

	primaryOK := a.primary.Ping(ctx)
	fallbackOK := false
	if !primaryOK && a.fallback != nil {
		fallbackOK = a.fallback.Ping(ctx)
	}

	healthy := primaryOK || fallbackOK
	a.logger.Info("Health Check: Result",
		zap.Bool("primary", primaryOK),
		zap.Bool("fallback", fallbackOK),
		zap.Bool("healthy", healthy),
	)
	return healthy
}
