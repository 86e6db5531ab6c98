package monitor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-alloy/internal/alloy"
	"github.com/mind-engage/mindengage-alloy/internal/analysis"
	"github.com/mind-engage/mindengage-alloy/internal/cache"
	"github.com/mind-engage/mindengage-alloy/internal/events"
	"github.com/mind-engage/mindengage-alloy/internal/metrics"
	"github.com/mind-engage/mindengage-alloy/internal/process"
	syncx "github.com/mind-engage/mindengage-alloy/internal/sync"
)

// ErrNoData means the analysis window holds no readings.
var ErrNoData = errors.New("no recent data found")

const (
	DefaultHours     = 24
	DefaultCostPerKg = 12.5
	DefaultLowStock  = 100.0
)

// Journal records domain events durably. *syncx.EventRepo satisfies it.
type Journal interface {
	Append(ctx context.Context, e syncx.Event) error
}

// Service runs the calculators over stored process data and fans the
// results out to metrics, the event journal and the message bus.
type Service struct {
	store       process.Store
	scorer      *analysis.GradeScorer
	detector    *analysis.AnomalyDetector
	recommender *analysis.Recommender
	recOpts     []analysis.RecommenderOption

	cache     cache.Cache
	cacheTTL  time.Duration
	publisher events.Publisher
	retry     events.RetryPolicy
	journal   Journal
	metrics   *metrics.Metrics
	log       *zap.Logger

	defaultGrade string
	costPerKg    float64
	now          func() time.Time
}

type Option func(*Service)

func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) { s.cache, s.cacheTTL = c, ttl }
}

func WithPublisher(p events.Publisher, rp events.RetryPolicy) Option {
	return func(s *Service) { s.publisher, s.retry = p, rp }
}

func WithJournal(j Journal) Option { return func(s *Service) { s.journal = j } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

// WithDefaultGrade sets the grade used when a query names none.
func WithDefaultGrade(g string) Option { return func(s *Service) { s.defaultGrade = g } }

func WithCostPerKg(v float64) Option { return func(s *Service) { s.costPerKg = v } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithRecommenderOptions configures the recommendation engine, e.g. a
// fixed jitter source.
func WithRecommenderOptions(opts ...analysis.RecommenderOption) Option {
	return func(s *Service) { s.recOpts = append(s.recOpts, opts...) }
}

func New(store process.Store, ref alloy.Reference, opts ...Option) *Service {
	s := &Service{
		store:        store,
		scorer:       analysis.NewGradeScorer(ref),
		detector:     analysis.NewAnomalyDetector(),
		retry:        events.DefaultRetry,
		defaultGrade: "316L",
		costPerKg:    DefaultCostPerKg,
		now:          time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.recommender = analysis.NewRecommender(ref, s.recOpts...)
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// emit journals and publishes one domain event. Failures are logged; the
// calling operation has already succeeded.
func (s *Service) emit(ctx context.Context, routingKey, key string, payload any) {
	body, err := events.Marshal(payload)
	if err != nil {
		s.log.Error("encode event", zap.String("routing_key", routingKey), zap.Error(err))
		return
	}
	if s.journal != nil {
		if err := s.journal.Append(ctx, syncx.Event{Type: routingKey, Key: key, Data: body}); err != nil {
			s.log.Warn("journal append failed", zap.String("routing_key", routingKey), zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := events.PublishWithRetry(ctx, s.publisher, routingKey, body, s.retry); err != nil {
			s.log.Warn("event publish failed", zap.String("routing_key", routingKey), zap.Error(err))
		}
	}
}
