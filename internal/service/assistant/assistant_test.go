package assistant

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/conference-companion-go/internal/domain"
	"github.com/kapu/conference-companion-go/internal/normalize"
	"github.com/kapu/conference-companion-go/internal/prompt"
	"github.com/kapu/conference-companion-go/internal/service/content"
	"github.com/kapu/conference-companion-go/internal/util"
	"github.com/kapu/conference-companion-go/pkg/errors"
)

type fakeProvider struct {
	name    string
	text    string
	err     error
	prompts []Request
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, req Request) (ProviderResult, error) {
	f.prompts = append(f.prompts, req)
	if f.err != nil {
		return ProviderResult{}, f.err
	}
	return ProviderResult{Text: f.text, Model: f.name + "-model"}, nil
}

func (f *fakeProvider) Ping(context.Context) bool { return f.err == nil }

type staticSource struct {
	snap *content.Snapshot
}

func (s staticSource) Current() (*content.Snapshot, error) {
	if s.snap == nil {
		return nil, errors.NewAppError("content is not loaded yet", errors.CodeService, 503, nil)
	}
	return s.snap, nil
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memoryStore) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *memoryStore) Del(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func testSnapshot() *content.Snapshot {
	start := time.Date(2025, 4, 9, 9, 0, 0, 0, time.UTC)
	return &content.Snapshot{
		Version: 7,
		Content: &normalize.Content{
			Speakers: []*domain.Speaker{{Item: domain.Item{ID: "s1", Name: "Ada Lovelace"}, Company: "Engines"}},
			Sponsors: []*domain.Sponsor{{Item: domain.Item{ID: "sp1", Name: "Acme"}, Tier: domain.SponsorTierGold}},
			Venues:   []*domain.Venue{{Item: domain.Item{ID: "v1", Name: "Union Hall"}, Tag: domain.VenueTagConference}},
		},
		Cards: map[domain.Day][]domain.ScheduleCard{
			domain.DayWednesday: {{
				ID:                 "e1",
				Variant:            domain.CardVariantTalk,
				Type:               domain.EventTypeKeynote,
				Day:                domain.DayWednesday,
				Start:              start,
				FormattedStartTime: "9:00am",
				Heading:            "Ada Lovelace",
				Subheading:         "Opening Keynote",
			}},
		},
	}
}

func newTestAssistant(primary, fallback ChatProvider, store ConversationStore) *Assistant {
	a := New(primary, fallback, staticSource{snap: testSnapshot()}, store, Config{ConferenceName: "Dev Days"}, zap.NewNop())
	a.now = func() time.Time { return time.Date(2025, 4, 9, 8, 0, 0, 0, time.UTC) }
	return a
}

func TestAskUsesPrimaryProvider(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", text: "  Ada opens at 9:00am.  "}
	a := newTestAssistant(primary, nil, nil)

	answer, err := a.Ask(context.Background(), "", "Who\x00 opens   the\nconference?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Text != "Ada opens at 9:00am." || answer.Provider != "Gemini" || answer.UsedFallback {
		t.Fatalf("unexpected answer: %+v", answer)
	}
	if answer.ContentVersion != 7 {
		t.Fatalf("expected content version 7, got %d", answer.ContentVersion)
	}
	if _, err := uuid.Parse(answer.ConversationID); err != nil {
		t.Fatalf("expected generated uuid, got %q", answer.ConversationID)
	}

	req := primary.prompts[0]
	for _, want := range []string{"Opening Keynote", "Ada Lovelace (Engines)", "Gold: Acme", "Union Hall", `"Who opens the conference?"`} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.Contains(req.System, "Dev Days") {
		t.Errorf("system prompt missing conference name")
	}
}

func TestAskFallsBackWhenPrimaryFails(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", err: stderrors.New("503 Service Unavailable")}
	fallback := &fakeProvider{name: "OpenAI", text: "From the fallback."}
	a := newTestAssistant(primary, fallback, nil)

	answer, err := a.Ask(context.Background(), "", "When is lunch?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !answer.UsedFallback || answer.Provider != "OpenAI" || answer.Model != "OpenAI-model" {
		t.Fatalf("expected fallback answer, got %+v", answer)
	}
	if a.CircuitStatus().FailureCount != 0 {
		t.Fatalf("fallback success should not count as a failure")
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", text: "unused"}
	a := newTestAssistant(primary, nil, nil)

	for _, q := range []string{"", "   ", "\x00\x01\n"} {
		_, err := a.Ask(context.Background(), "", q)
		var verr *errors.ValidationError
		if !stderrors.As(err, &verr) {
			t.Fatalf("question %q: expected ValidationError, got %v", q, err)
		}
	}
	if len(primary.prompts) != 0 {
		t.Fatalf("provider should not be called")
	}
}

func TestAskRejectsMalformedConversationID(t *testing.T) {
	a := newTestAssistant(&fakeProvider{name: "Gemini", text: "ok"}, nil, nil)
	if _, err := a.Ask(context.Background(), "not-a-uuid", "hi"); errors.StatusCodeOf(err) != 400 {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAskOpensCircuitAfterRepeatedServiceFailures(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", err: stderrors.New("500 internal")}
	a := newTestAssistant(primary, nil, nil)

	for range 3 {
		if _, err := a.Ask(context.Background(), "", "hello"); err == nil {
			t.Fatalf("expected failure")
		}
	}
	if a.CircuitStatus().State != util.CircuitStateOpen {
		t.Fatalf("expected open circuit, got %s", a.CircuitStatus().State)
	}

	_, err := a.Ask(context.Background(), "", "hello")
	if errors.StatusCodeOf(err) != 503 {
		t.Fatalf("expected 503 while open, got %v", err)
	}
	if len(primary.prompts) != 3 {
		t.Fatalf("open circuit should short-circuit the provider")
	}
}

func TestAskDoesNotCountPromptErrors(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", err: stderrors.New("400 invalid argument")}
	a := newTestAssistant(primary, nil, nil)

	for range 5 {
		_, _ = a.Ask(context.Background(), "", "hello")
	}
	if a.CircuitStatus().State != util.CircuitStateClosed {
		t.Fatalf("client errors must not open the circuit")
	}
}

func TestAskKeepsConversationHistory(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", text: "At noon."}
	store := &memoryStore{data: map[string][]byte{}}
	a := newTestAssistant(primary, nil, store)

	first, err := a.Ask(context.Background(), "", "When is lunch?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := a.Ask(context.Background(), first.ConversationID, "And dinner?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := primary.prompts[1].Prompt
	if !strings.Contains(second, "Q1: When is lunch?") || !strings.Contains(second, "A1: At noon.") {
		t.Fatalf("history missing from follow-up prompt:\n%s", second)
	}

	var turns []prompt.Turn
	if ok, _ := store.Get(context.Background(), conversationKey(first.ConversationID), &turns); !ok || len(turns) != 2 {
		t.Fatalf("expected 2 stored turns, got %d", len(turns))
	}
}

func TestForgetConversation(t *testing.T) {
	primary := &fakeProvider{name: "Gemini", text: "At noon."}
	store := &memoryStore{data: map[string][]byte{}}
	a := newTestAssistant(primary, nil, store)

	answer, err := a.Ask(context.Background(), "", "When is lunch?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := a.Forget(context.Background(), answer.ConversationID)
	if err != nil || !found {
		t.Fatalf("expected stored conversation to be dropped: %v %v", found, err)
	}
	found, err = a.Forget(context.Background(), answer.ConversationID)
	if err != nil || found {
		t.Fatalf("second forget should find nothing: %v %v", found, err)
	}

	if _, err := a.Forget(context.Background(), "not-a-uuid"); errors.StatusCodeOf(err) != 400 {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAskWithoutContent(t *testing.T) {
	a := New(&fakeProvider{name: "Gemini", text: "x"}, nil, staticSource{}, nil, Config{}, zap.NewNop())
	if _, err := a.Ask(context.Background(), "", "hi"); errors.StatusCodeOf(err) != 503 {
		t.Fatalf("expected 503, got %v", err)
	}
}

func TestSanitizeQuestionCapsRunes(t *testing.T) {
	long := strings.Repeat("가", 600)
	got := sanitizeQuestion(long)
	if n := len([]rune(got)); n != 500 {
		t.Fatalf("expected 500 runes, got %d", n)
	}
}

func TestFailureClassification(t *testing.T) {
	tests := []struct {
		err       error
		service   bool
		rateLimit bool
	}{
		{nil, false, false},
		{context.Canceled, false, false},
		{context.DeadlineExceeded, true, false},
		{stderrors.New(`{"error":{"code":429,"message":"quota"}}`), true, true},
		{stderrors.New(`{"error":{"code":503}}`), true, false},
		{stderrors.New("400 bad request"), false, false},
		{stderrors.New("request timeout"), true, false},
	}
	for _, tt := range tests {
		if got := isServiceFailure(tt.err); got != tt.service {
			t.Errorf("isServiceFailure(%v) = %v, want %v", tt.err, got, tt.service)
		}
		if got := isRateLimitError(tt.err); got != tt.rateLimit {
			t.Errorf("isRateLimitError(%v) = %v, want %v", tt.err, got, tt.rateLimit)
		}
	}
}
