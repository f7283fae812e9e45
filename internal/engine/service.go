package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/config"
	"github.com/mikey/mailsentry/internal/core"
	"github.com/mikey/mailsentry/internal/ensemble"
	"github.com/mikey/mailsentry/internal/headers"
	"github.com/mikey/mailsentry/internal/heuristics"
	"github.com/mikey/mailsentry/internal/urlintel"
)

const persistTimeout = 5 * time.Second

// AnalysisService is the ensemble decision engine: it joins the external
// content classifier with the deterministic URL and header signal paths and
// produces one explainable report per message. Stateless across requests;
// every entity it builds is request-scoped.
type AnalysisService struct {
	classifier        core.Classifier
	normalizer        core.TextNormalizer
	history           core.HistoryStore
	cache             core.ClassifierCache
	logger            *zap.Logger
	scorer            *urlintel.Scorer
	combiner          *ensemble.Combiner
	overrides         *ensemble.Overrides
	classifierTimeout time.Duration
	cacheTTL          time.Duration
}

// NewAnalysisService creates the engine from validated configuration.
// history and cache may be nil to disable persistence and caching.
func NewAnalysisService(
	classifier core.Classifier,
	normalizer core.TextNormalizer,
	history core.HistoryStore,
	cache core.ClassifierCache,
	logger *zap.Logger,
	cfg config.EngineConfig,
	classifierTimeout time.Duration,
	cacheTTL time.Duration,
) *AnalysisService {
	return &AnalysisService{
		classifier:        classifier,
		normalizer:        normalizer,
		history:           history,
		cache:             cache,
		logger:            logger,
		scorer:            urlintel.NewScorer(cfg.SuspiciousTLDs, cfg.MaxURLs, cfg.PathDepthThreshold, cfg.QueryLengthThreshold),
		combiner:          ensemble.NewCombiner(cfg),
		overrides:         ensemble.NewOverrides(cfg),
		classifierTimeout: classifierTimeout,
		cacheTTL:          cacheTTL,
	}
}

// Analyze runs the full pipeline over a message body and its optional raw
// header block. It never fails: every degraded input maps to a documented
// degraded value, so the caller always receives a complete report.
func (s *AnalysisService) Analyze(ctx context.Context, body, rawHeaders string) *core.AnalysisReport {
	hdrs := headers.Unfold(rawHeaders)

	// URL risk and auth parsing are independent; run them alongside the
	// classifier call and join before blending.
	var (
		urlRisk core.UrlRiskResult
		auth    core.AuthResult
		done    = make(chan struct{})
	)
	go func() {
		defer close(done)
		urlRisk = s.scorer.ScoreText(body)
		auth = headers.ParseAuthResults(hdrs)
	}()

	classifierResult, unavailable := s.classify(ctx, body)
	<-done

	spamProbability := ensemble.NeutralProbability
	if !unavailable {
		spamProbability = classifierResult.SpamProbability
	}

	phraseScore := heuristics.PhraseScore(body)
	displayMismatch := heuristics.DisplayNameMismatch(hdrs)

	rawBlend := s.combiner.Blend(spamProbability, urlRisk.Score, auth)
	score := s.overrides.Apply(rawBlend, ensemble.Signals{
		Auth:            auth,
		URLRisk:         urlRisk.Score,
		PhraseScore:     phraseScore,
		DisplayMismatch: displayMismatch,
	})

	report := &core.AnalysisReport{
		Verdict:               score.Verdict,
		FinalScore:            score.FinalScore,
		RawBlend:              score.RawBlend,
		URLRisk:               urlRisk,
		Auth:                  auth,
		AppliedOverrides:      score.AppliedOverrides,
		Classifier:            classifierResult,
		ClassifierUnavailable: unavailable,
		Category:              categoryOf(classifierResult),
		PhraseScore:           phraseScore,
		DisplayMismatch:       displayMismatch,
		ProcessingID:          uuid.NewString(),
		AnalyzedAt:            time.Now(),
	}

	s.persist(body, report)

	s.logger.Debug("Analysis complete",
		zap.String("processing_id", report.ProcessingID),
		zap.String("verdict", string(report.Verdict)),
		zap.Float64("final_score", report.FinalScore),
		zap.Float64("raw_blend", report.RawBlend),
		zap.Float64("url_risk", urlRisk.Score),
		zap.Bool("classifier_unavailable", unavailable))

	return report
}

// classify calls the external classifier under its own timeout. On any
// failure the engine degrades to maximal uncertainty instead of failing the
// request; the report carries the ClassifierUnavailable flag.
func (s *AnalysisService) classify(ctx context.Context, body string) (*core.ClassifierResult, bool) {
	normalized := s.normalizer.Normalize(body)

	var key string
	if s.cache != nil {
		sum := sha256.Sum256([]byte(normalized))
		key = hex.EncodeToString(sum[:])
		if cached, ok := s.cache.Get(key); ok {
			s.logger.Debug("Classifier cache hit", zap.String("key", key))
			return cached, false
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.classifierTimeout)
	defer cancel()

	result, err := s.classifier.Classify(callCtx, normalized)
	if err != nil {
		s.logger.Warn("Classifier unavailable, degrading to neutral probability", zap.Error(err))
		return nil, true
	}

	if s.cache != nil {
		s.cache.Set(key, result, s.cacheTTL)
	}
	return result, false
}

// persist hands a copy of the outcome to history storage without blocking
// the response. Persistence failure is logged and otherwise ignored.
func (s *AnalysisService) persist(message string, report *core.AnalysisReport) {
	if s.history == nil {
		return
	}

	record := &core.AnalysisRecord{
		ID:         report.ProcessingID,
		Message:    message,
		Verdict:    report.Verdict,
		Category:   report.Category,
		FinalScore: report.FinalScore,
		Timestamp:  report.AnalyzedAt,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.history.Save(ctx, record); err != nil {
			s.logger.Error("Failed to persist analysis record",
				zap.Error(err),
				zap.String("id", record.ID))
		}
	}()
}

// categoryOf picks the most probable threat category from the classifier's
// distribution, "General" when the model provides none. Ties break on the
// category name so the result is deterministic.
func categoryOf(result *core.ClassifierResult) string {
	if result == nil || len(result.Categories) == 0 {
		return "General"
	}

	names := make([]string, 0, len(result.Categories))
	for name := range result.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if result.Categories[name] > result.Categories[best] {
			best = name
		}
	}
	return best
}
