// Package tutor runs a learner's question through templates, routing,
// synthesis and XP, persisting the conversation as it goes.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/tutorly/internal/logger"
	"github.com/abhisek/tutorly/internal/routing"
	"github.com/abhisek/tutorly/internal/store"
	"github.com/abhisek/tutorly/internal/synth"
	"github.com/abhisek/tutorly/internal/xp"
)

// ErrEmptyQuery is returned by Ask for blank input.
var ErrEmptyQuery = errors.New("empty query")

// Answer is everything the caller needs to present one reply.
type Answer struct {
	TraceID       string
	Content       string
	LeadingPhrase string

	Tier     routing.Tier
	Decision routing.Decision
	// Features is zero for template answers.
	Features routing.Features

	Confidence         float64
	Citations          []synth.Citation
	LearningObjectives []string

	ActualLatency    time.Duration
	EstimatedLatency time.Duration
	Cached           bool

	// XPAwarded is zero when RPG mode is off.
	XPAwarded int
	LeveledUp bool
	Stats     xp.Stats

	// Achievements unlocked by this answer; their rewards are in BonusXP
	// and already reflected in Stats.
	Achievements []xp.Achievement
	BonusXP      int
}

var leadingPhrases = []string{
	"Great question! ",
	"I like how you're thinking. ",
	"Let's break it down. ",
	"That's an interesting point. ",
	"Let's explore that. ",
}

// Service is the tutoring pipeline.
type Service struct {
	router    *routing.Router
	synth     *synth.Synthesizer
	messages  *store.Typed[store.ChatMessage]
	templates *store.Typed[store.ResponseTemplate]
	unlocked  *store.Typed[store.UserAchievement]
	users     store.UserRepo
	pacer     synth.Pacer
	cfg       Config

	// unlockMu keeps concurrent answers from unlocking an achievement twice.
	unlockMu sync.Mutex

	// phrase picks a leading phrase; replaced in tests.
	phrase func() string
}

// NewService wires the pipeline.
func NewService(router *routing.Router, synthesizer *synth.Synthesizer, entities store.EntityRepo, users store.UserRepo, cfg Config) *Service {
	return &Service{
		router:    router,
		synth:     synthesizer,
		messages:  store.ChatMessageRepo(entities),
		templates: store.TemplateRepo(entities),
		unlocked:  store.AchievementRepo(entities),
		users:     users,
		pacer:     cfg.Pacer(),
		cfg:       cfg,
		phrase: func() string {
			return leadingPhrases[rand.IntN(len(leadingPhrases))]
		},
	}
}

// Ask answers one query. Persistence and XP failures are logged and do not
// fail the call; synthesis failures do.
func (s *Service) Ask(ctx context.Context, query string, opts routing.Options) (*Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	start := time.Now()
	traceID := uuid.NewString()
	log := logger.FromContext(ctx).With("trace_id", traceID)
	ctx = logger.ContextWithLogger(ctx, log)

	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}
	uctx := s.userContext(ctx, user)

	if _, err := s.messages.Create(ctx, user.Email, store.ChatMessage{
		Role:    "user",
		Content: query,
		TraceID: traceID,
	}); err != nil {
		log.Warn("failed to save user message", "err", err)
	}

	ans := &Answer{TraceID: traceID, LeadingPhrase: s.phrase()}

	if tmpl := s.matchTemplate(ctx, query); tmpl != nil {
		log.Info("serving template", "template", tmpl.Name)
		ans.Decision = routing.NewDecision(routing.TierTemplate, routing.RuleTemplate)
		if !opts.PrioritizeSpeed {
			if err := s.pacer.Pace(ctx, ans.Decision.EstimatedLatency); err != nil {
				return nil, fmt.Errorf("pace template: %w", err)
			}
		}
		ans.Content = tmpl.Content
		ans.Confidence = ans.Decision.Confidence
		ans.Citations = []synth.Citation{}
	} else {
		route := s.router.Route(ctx, query, uctx, opts)
		resp, err := s.synth.Synthesize(ctx, route.Decision.Tier, query, uctx, opts)
		if err != nil {
			log.Error("synthesis failed", "tier", route.Decision.Tier, "err", err)
			return nil, fmt.Errorf("synthesize answer: %w", err)
		}
		ans.Decision = route.Decision
		ans.Features = route.Features
		ans.Content = resp.Content
		ans.Confidence = resp.Confidence
		ans.Citations = resp.Citations
		ans.LearningObjectives = resp.LearningObjectives
	}

	ans.Tier = ans.Decision.Tier
	ans.EstimatedLatency = ans.Decision.EstimatedLatency
	ans.Cached = ans.Tier == routing.TierCache || ans.Tier == routing.TierTemplate
	ans.ActualLatency = time.Since(start)
	ans.Stats = fromStore(user.Stats)

	if user.RPGEnabled {
		ans.XPAwarded = xp.Award(ans.Tier, ans.Confidence, len(ans.LearningObjectives))
	}

	if _, err := s.messages.Create(ctx, user.Email, assistantMessage(ans)); err != nil {
		log.Warn("failed to save assistant message", "err", err)
	}

	if ans.XPAwarded > 0 {
		if s.awardXP(ctx, ans, ans.XPAwarded) {
			s.unlockAchievements(ctx, user.Email, ans)
		}
	}

	log.Info("answered query",
		"tier", ans.Tier,
		"latency_ms", ans.ActualLatency.Milliseconds(),
		"xp", ans.XPAwarded,
		"bonus_xp", ans.BonusXP,
	)
	return ans, nil
}

// History returns the last n chat messages, oldest first. n <= 0 means all.
func (s *Service) History(ctx context.Context, n int) ([]store.Record[store.ChatMessage], error) {
	recs, err := s.messages.List(ctx, store.ListOpts{Limit: n})
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	slices.Reverse(recs)
	return recs, nil
}

func (s *Service) userContext(ctx context.Context, u *store.User) routing.UserContext {
	uctx := routing.UserContext{
		Level:         u.Level,
		Subjects:      u.Subjects,
		LearningStyle: u.LearningStyle,
	}
	if s.cfg.RecentTopics == 0 {
		return uctx
	}

	recent, err := s.messages.Filter(ctx, map[string]any{"role": "user"}, store.ListOpts{Limit: s.cfg.RecentTopics})
	if err != nil {
		logger.FromContext(ctx).Warn("failed to load recent topics", "err", err)
		return uctx
	}
	for i := len(recent) - 1; i >= 0; i-- {
		if c := recent[i].Value.Content; c != "" {
			uctx.RecentTopics = append(uctx.RecentTopics, c)
		}
	}
	return uctx
}

// matchTemplate returns the first active template, in creation order,
// with a keyword contained in query. Lookup errors are logged and treated
// as no match.
func (s *Service) matchTemplate(ctx context.Context, query string) *store.ResponseTemplate {
	active, err := s.templates.Filter(ctx, map[string]any{"is_active": true}, store.ListOpts{Asc: true})
	if err != nil {
		logger.FromContext(ctx).Warn("failed to load response templates", "err", err)
		return nil
	}

	q := strings.ToLower(query)
	for _, rec := range active {
		for _, kw := range rec.Value.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(q, kw) {
				return &rec.Value
			}
		}
	}
	return nil
}

// awardXP adds amount to the stored stats and reports whether it was
// saved. The read and write happen in one store transaction.
func (s *Service) awardXP(ctx context.Context, ans *Answer, amount int) bool {
	log := logger.FromContext(ctx)

	var up bool
	u, err := s.users.ApplyStats(ctx, func(cur store.RPGStats) store.RPGStats {
		next, leveled := fromStore(cur).Apply(amount)
		up = leveled
		return toStore(next)
	})
	if err != nil {
		log.Warn("failed to award XP", "xp", amount, "err", err)
		return false
	}

	ans.Stats = fromStore(u.Stats)
	ans.LeveledUp = ans.LeveledUp || up
	if up {
		log.Info("level up", "level", ans.Stats.Level)
	}
	return true
}

// unlockAchievements records every newly met achievement and grants its
// reward. Failures are logged and leave the answer unchanged.
func (s *Service) unlockAchievements(ctx context.Context, email string, ans *Answer) {
	if len(s.cfg.Achievements) == 0 {
		return
	}
	log := logger.FromContext(ctx)

	s.unlockMu.Lock()
	defer s.unlockMu.Unlock()

	have, err := s.unlocked.List(ctx, store.ListOpts{})
	if err != nil {
		log.Warn("failed to load achievements", "err", err)
		return
	}
	unlocked := make(map[string]bool, len(have))
	for _, rec := range have {
		unlocked[rec.Value.Code] = true
	}

	asked, err := s.messages.Filter(ctx, map[string]any{"role": "user"}, store.ListOpts{})
	if err != nil {
		log.Warn("failed to count questions", "err", err)
		return
	}

	act := xp.Activity{TotalXP: ans.Stats.TotalXP, Messages: len(asked)}
	bonus := 0
	for _, a := range xp.Earned(s.cfg.Achievements, act, unlocked) {
		if _, err := s.unlocked.Create(ctx, email, store.UserAchievement{
			Code:       a.Code,
			Name:       a.Name,
			Tier:       a.Tier,
			XPReward:   a.XPReward,
			UnlockedAt: time.Now().UTC(),
		}); err != nil {
			log.Warn("failed to save achievement", "code", a.Code, "err", err)
			continue
		}
		log.Info("achievement unlocked", "code", a.Code, "reward", a.XPReward)
		ans.Achievements = append(ans.Achievements, a)
		bonus += a.XPReward
	}

	if bonus > 0 && s.awardXP(ctx, ans, bonus) {
		ans.BonusXP = bonus
	}
}

func assistantMessage(ans *Answer) store.ChatMessage {
	msg := store.ChatMessage{
		Role:               "assistant",
		Content:            ans.Content,
		TraceID:            ans.TraceID,
		ModelTier:          ans.Tier.String(),
		ConfidenceScore:    ans.Confidence,
		LatencyMs:          ans.ActualLatency.Milliseconds(),
		IsCached:           ans.Cached,
		XPAwarded:          ans.XPAwarded,
		LeadingPhrase:      ans.LeadingPhrase,
		LearningObjectives: ans.LearningObjectives,
	}
	for _, c := range ans.Citations {
		msg.Citations = append(msg.Citations, store.Citation(c))
	}
	return msg
}

func fromStore(s store.RPGStats) xp.Stats {
	return xp.Stats(s)
}

func toStore(s xp.Stats) store.RPGStats {
	return store.RPGStats(s)
}
