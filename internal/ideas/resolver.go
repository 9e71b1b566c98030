package ideas

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Prathap331/SB-Next/internal/api"
	"github.com/Prathap331/SB-Next/internal/client"
	"github.com/Prathap331/SB-Next/internal/clock"
	"github.com/Prathap331/SB-Next/internal/logging"
)

// State is a step of a resolution.
type State int

const (
	Idle State = iota
	Checking
	Retrying
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Checking:
		return "checking"
	case Retrying:
		return "retrying"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Progress is reported to the observer on every state change. Attempt and
// Deadline are set while Retrying.
type Progress struct {
	Deadline time.Time
	Topic    string
	State    State
	Attempt  int
}

// Fetcher calls the process-topic route.
type Fetcher interface {
	ProcessTopic(ctx context.Context, topic string) (*api.ProcessTopicResponse, error)
}

// Options tunes a Resolver. Zero values take the defaults.
type Options struct {
	Clock    clock.Clock
	Observer func(Progress)
	Budget   time.Duration
	Interval time.Duration
}

const (
	DefaultBudget   = 120 * time.Second
	DefaultInterval = 5 * time.Second
)

// Result is what a view renders for a topic.
type Result struct {
	Topic string
	// Advisory is set when Ideas are fallback ideas.
	Advisory  string
	Ideas     []Idea
	FromCache bool
	Fallback  bool
}

// Resolver turns topics into ideas.
type Resolver struct {
	fetcher  Fetcher
	cache    *Cache
	clock    clock.Clock
	observer func(Progress)
	budget   time.Duration
	interval time.Duration
}

// NewResolver creates a resolver that calls fetcher on cache misses.
func NewResolver(fetcher Fetcher, cache *Cache, opts Options) *Resolver {
	r := &Resolver{
		fetcher:  fetcher,
		cache:    cache,
		clock:    opts.Clock,
		observer: opts.Observer,
		budget:   opts.Budget,
		interval: opts.Interval,
	}
	if r.clock == nil {
		r.clock = clock.New()
	}
	if r.budget <= 0 {
		r.budget = DefaultBudget
	}
	if r.interval <= 0 {
		r.interval = DefaultInterval
	}
	return r
}

func (r *Resolver) report(p Progress) {
	if r.observer != nil {
		r.observer(p)
	}
}

// Resolve returns ideas for rawTopic. Apart from ErrEmptyTopic,
// ErrSignInRequired and cancellation of ctx, it always returns a result:
// backend ideas, cached ideas, or fallback ideas with an advisory.
// Nothing is cached once ctx is cancelled.
func (r *Resolver) Resolve(ctx context.Context, rawTopic string) (*Result, error) {
	logger := logging.Get(ctx)

	topic := NormalizeTopic(rawTopic)
	if strings.TrimSpace(topic) == "" {
		return nil, ErrEmptyTopic
	}

	r.report(Progress{State: Checking, Topic: topic})
	if entry, ok := r.cache.Get(ctx, topic); ok {
		logger.Debug().Str("topic", topic).Msg("using cached ideas")
		metricResolutions.WithLabelValues("cached").Inc()
		r.report(Progress{State: Resolved, Topic: topic})
		return &Result{
			Topic:     topic,
			Ideas:     entry.Ideas,
			Advisory:  entry.ErrorMessage,
			FromCache: true,
			Fallback:  entry.ErrorMessage != "",
		}, nil
	}

	start := r.clock.Now()
	deadline := start.Add(r.budget)
	var lastErr error

	for attempt := 1; ; attempt++ {
		r.report(Progress{State: Retrying, Topic: topic, Attempt: attempt, Deadline: deadline})
		metricAttempts.Inc()

		resp, err := r.fetcher.ProcessTopic(ctx, topic)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("resolving %q cancelled: %w", topic, ctxErr)
		}
		if err == nil {
			ideas := FromResponse(resp)
			r.cache.Put(ctx, Entry{Key: topic, Ideas: ideas, Timestamp: r.clock.Now().UnixMilli()})
			logger.Info().Str("topic", topic).Int("ideas", len(ideas)).Int("attempts", attempt).Msg("resolved topic")
			metricResolutions.WithLabelValues("backend").Inc()
			r.report(Progress{State: Resolved, Topic: topic, Attempt: attempt})
			return &Result{Topic: topic, Ideas: ideas}, nil
		}

		if errors.Is(err, client.ErrUnauthorized) {
			metricResolutions.WithLabelValues("unauthorized").Inc()
			r.report(Progress{State: Failed, Topic: topic, Attempt: attempt})
			return nil, ErrSignInRequired
		}

		lastErr = err
		elapsed := r.clock.Now().Sub(start)
		if !client.IsRetryable(err) || elapsed+r.interval >= r.budget {
			break
		}

		logger.Debug().Err(err).
			Str("topic", topic).
			Int("attempt", attempt).
			Dur("elapsed", elapsed).
			Msg("backend not ready, retrying")
		if err := r.clock.Sleep(ctx, r.interval); err != nil {
			return nil, fmt.Errorf("resolving %q cancelled: %w", topic, err)
		}
	}

	advisory := Advisory(lastErr)
	ideas := FallbackIdeas(topic)
	logger.Warn().Err(lastErr).Str("topic", topic).Msg("using fallback ideas")
	r.cache.Put(ctx, Entry{
		Key:          topic,
		Ideas:        ideas,
		ErrorMessage: advisory,
		Timestamp:    r.clock.Now().UnixMilli(),
	})
	metricResolutions.WithLabelValues("fallback").Inc()
	r.report(Progress{State: Failed, Topic: topic})
	return &Result{Topic: topic, Ideas: ideas, Advisory: advisory, Fallback: true}, nil
}
