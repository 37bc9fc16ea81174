package synth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/routing"
)

// recordingPacer records requested delays without sleeping.
type recordingPacer struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (p *recordingPacer) Pace(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	p.delays = append(p.delays, d)
	p.mu.Unlock()
	return ctx.Err()
}

func TestSynthesize_Cache(t *testing.T) {
	mock := llm.NewMockProvider()
	pacer := &recordingPacer{}
	s := New(mock, pacer, DefaultConfig())

	resp, err := s.Synthesize(context.Background(), routing.TierCache, "What is photosynthesis?", routing.UserContext{}, routing.Options{})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	want := `[Cached Response] Here's a quick answer to your question about "What is photosynthesis?". This response was optimized for speed while maintaining educational accuracy.`
	if resp.Content != want {
		t.Errorf("content = %q, want %q", resp.Content, want)
	}
	if resp.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", resp.Confidence)
	}
	if resp.Citations == nil || len(resp.Citations) != 0 {
		t.Errorf("citations = %v, want empty non-nil", resp.Citations)
	}
	if len(resp.LearningObjectives) != 2 {
		t.Errorf("objectives = %v", resp.LearningObjectives)
	}
	if mock.CallCount() != 0 {
		t.Errorf("cache tier made %d LLM calls", mock.CallCount())
	}
	if len(pacer.delays) != 1 || pacer.delays[0] != 50*time.Millisecond {
		t.Errorf("delays = %v, want [50ms]", pacer.delays)
	}
}

func TestSynthesize_Lightweight(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Photosynthesis turns light into chemical energy."))
	pacer := &recordingPacer{}
	s := New(mock, pacer, DefaultConfig())

	uctx := routing.UserContext{Level: "intermediate", Subjects: []string{"biology", "chemistry"}}
	resp, err := s.Synthesize(context.Background(), routing.TierLightweight, "How do leaves make food?", uctx, routing.Options{})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if resp.Content != "Photosynthesis turns light into chemical energy." {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Confidence != 0.87 {
		t.Errorf("confidence = %v, want 0.87", resp.Confidence)
	}
	if len(resp.Citations) != 1 || resp.Citations[0].Title != "Educational Reference" {
		t.Errorf("citations = %+v", resp.Citations)
	}
	if len(resp.LearningObjectives) != 2 || resp.LearningObjectives[0] != "Concept understanding" {
		t.Errorf("objectives = %v", resp.LearningObjectives)
	}
	if len(pacer.delays) != 1 || pacer.delays[0] != 800*time.Millisecond {
		t.Errorf("delays = %v, want [800ms]", pacer.delays)
	}

	req, _ := mock.LastCall()
	if req.WebContext {
		t.Error("lightweight tier should not request web context")
	}
	if req.MaxTokens != DefaultConfig().MaxTokens {
		t.Errorf("MaxTokens = %d, want %d", req.MaxTokens, DefaultConfig().MaxTokens)
	}
	prompt := req.Messages[0].Content
	for _, want := range []string{`Student Question: "How do leaves make food?"`, "Level intermediate", "interested in biology, chemistry"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSynthesize_LightweightDefaultsInPrompt(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("ok"))
	s := New(mock, NoPacer{}, DefaultConfig())

	if _, err := s.Synthesize(context.Background(), routing.TierLightweight, "q", routing.UserContext{}, routing.Options{}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	req, _ := mock.LastCall()
	if !strings.Contains(req.Messages[0].Content, "Level beginner, interested in general learning") {
		t.Errorf("prompt missing defaults:\n%s", req.Messages[0].Content)
	}
}

func TestSynthesize_Deep(t *testing.T) {
	light := llm.NewMockProvider()
	deep := llm.NewMockProvider(llm.MockText(`"Quicksort averages O(n log n)..."`))
	pacer := &recordingPacer{}
	s := New(light, pacer, DefaultConfig()).WithDeepProvider(deep)

	uctx := routing.UserContext{Level: "advanced", Subjects: []string{"cs"}, RecentTopics: []string{"heaps"}}
	resp, err := s.Synthesize(context.Background(), routing.TierDeepReasoning, "critique quicksort", uctx, routing.Options{})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if resp.Content != "Quicksort averages O(n log n)..." {
		t.Errorf("content = %q (JSON string literal should be decoded)", resp.Content)
	}
	if resp.Confidence != 0.96 {
		t.Errorf("confidence = %v, want 0.96", resp.Confidence)
	}
	if len(resp.Citations) != 2 {
		t.Errorf("citations = %+v, want 2", resp.Citations)
	}
	if len(resp.LearningObjectives) != 4 {
		t.Errorf("objectives = %v, want 4", resp.LearningObjectives)
	}
	if light.CallCount() != 0 || deep.CallCount() != 1 {
		t.Errorf("calls light=%d deep=%d, want 0/1", light.CallCount(), deep.CallCount())
	}
	if len(pacer.delays) != 1 || pacer.delays[0] != 2500*time.Millisecond {
		t.Errorf("delays = %v, want [2500ms]", pacer.delays)
	}

	req, _ := deep.LastCall()
	if !req.WebContext {
		t.Error("deep tier should request web context")
	}
	prompt := req.Messages[0].Content
	for _, want := range []string{"\"level\": \"advanced\"", "\"recentTopics\": [\n", "Multi-Agent Analysis Required"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestSynthesize_SpeedSkipsPacing(t *testing.T) {
	pacer := &recordingPacer{}
	s := New(llm.NewMockProvider(), pacer, DefaultConfig())

	if _, err := s.Synthesize(context.Background(), routing.TierCache, "q", routing.UserContext{}, routing.Options{PrioritizeSpeed: true}); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(pacer.delays) != 0 {
		t.Errorf("delays = %v, want none", pacer.delays)
	}
}

func TestSynthesize_QualityDoublesTokens(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("ok"))
	s := New(mock, NoPacer{}, Config{MaxTokens: 1000})

	resp, err := s.Synthesize(context.Background(), routing.TierLightweight, "q", routing.UserContext{}, routing.Options{PrioritizeQuality: true})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if resp.Tier != routing.TierLightweight {
		t.Errorf("tier = %s, quality must not change tier", resp.Tier)
	}
	req, _ := mock.LastCall()
	if req.MaxTokens != 2000 {
		t.Errorf("MaxTokens = %d, want 2000", req.MaxTokens)
	}
}

func TestSynthesize_ProviderErrorPropagates(t *testing.T) {
	cause := &llm.ErrRateLimit{RetryAfter: time.Second, Err: errors.New("429")}
	for _, tier := range []routing.Tier{routing.TierLightweight, routing.TierDeepReasoning} {
		mock := llm.NewMockProvider(llm.MockError(cause))
		s := New(mock, NoPacer{}, DefaultConfig())

		resp, err := s.Synthesize(context.Background(), tier, "q", routing.UserContext{}, routing.Options{})
		if err == nil {
			t.Fatalf("%s: expected error", tier)
		}
		if resp != nil {
			t.Errorf("%s: expected nil response on failure", tier)
		}
		var rl *llm.ErrRateLimit
		if !errors.As(err, &rl) {
			t.Errorf("%s: error %v does not wrap ErrRateLimit", tier, err)
		}
		if mock.CallCount() != 1 {
			t.Errorf("%s: %d calls, want exactly 1 (no retry)", tier, mock.CallCount())
		}
	}
}

func TestSynthesize_EmptyTextIsError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("   "))
	s := New(mock, NoPacer{}, DefaultConfig())

	_, err := s.Synthesize(context.Background(), routing.TierLightweight, "q", routing.UserContext{}, routing.Options{})
	var inv *llm.ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v, want ErrInvalidResponse", err)
	}
}

func TestSynthesize_UnsupportedTier(t *testing.T) {
	pacer := &recordingPacer{}
	s := New(llm.NewMockProvider(), pacer, DefaultConfig())

	for _, tier := range []routing.Tier{routing.TierTemplate, routing.Tier(0), routing.Tier(42)} {
		_, err := s.Synthesize(context.Background(), tier, "q", routing.UserContext{}, routing.Options{})
		if !errors.Is(err, ErrUnsupportedTier) {
			t.Errorf("Synthesize(%s) err = %v, want ErrUnsupportedTier", tier, err)
		}
	}
	if len(pacer.delays) != 0 {
		t.Errorf("unsupported tiers paced: %v", pacer.delays)
	}
}

func TestSynthesize_CancelledDuringPacing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := llm.NewMockProvider(llm.MockText("never"))
	s := New(mock, SleepPacer{}, DefaultConfig())

	_, err := s.Synthesize(ctx, routing.TierDeepReasoning, "q", routing.UserContext{}, routing.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if mock.CallCount() != 0 {
		t.Error("provider called after cancellation")
	}
}

func TestSleepPacer(t *testing.T) {
	start := time.Now()
	if err := (SleepPacer{}).Pace(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("Pace: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("returned after %v, want >= 20ms", elapsed)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := (SleepPacer{}).Pace(ctx, time.Hour); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Pace with deadline = %v, want DeadlineExceeded", err)
	}
}

func TestCitationsNotShared(t *testing.T) {
	s := New(llm.NewMockProvider(llm.MockText("a"), llm.MockText("b")), NoPacer{}, DefaultConfig())
	r1, _ := s.Synthesize(context.Background(), routing.TierLightweight, "q", routing.UserContext{}, routing.Options{})
	r1.Citations[0].Title = "mutated"
	r2, _ := s.Synthesize(context.Background(), routing.TierLightweight, "q", routing.UserContext{}, routing.Options{})
	if r2.Citations[0].Title != "Educational Reference" {
		t.Error("citations slice shared between responses")
	}
}
