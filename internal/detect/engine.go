package detect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/Veraticus/spicewatch/internal/service"
	"github.com/google/uuid"
)

// Config wires an Engine to its collaborators.
type Config struct {
	Transactions service.TransactionReader
	Budgets      service.BudgetReader
	Anomalies    service.AnomalyWriter
	// Classifier is optional; without it only deterministic detectors run.
	Classifier service.Classifier
	Logger     *slog.Logger
	Now        func() time.Time
	Thresholds Thresholds
}

// Engine runs every detector against a transaction and stores what they find.
type Engine struct {
	classifier service.Classifier
	anomalies  service.AnomalyWriter
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
	detectors  []Detector
	thresholds Thresholds
}

// NewEngine creates an engine with the standard detector pipeline.
func NewEngine(cfg Config) *Engine {
	t := cfg.Thresholds.normalized()
	detectors := []Detector{
		NewDuplicateDetector(cfg.Transactions, t.DuplicateWindow),
		NewOddTimeDetector(t.OddHourStart, t.OddHourEnd, t.Location),
		NewSpikeDetector(cfg.Transactions, t.HistoryWindow, t.SpikeMultiplier),
		NewOveruseDetector(cfg.Transactions, t.OveruseShare, t.OveruseFloor, t.Location),
		NewBudgetChecker(cfg.Transactions, cfg.Budgets, t.PreventiveRatio),
		NewLeakDetector(cfg.Transactions, t.HistoryWindow, t.LeakMaxAmount, t.LeakMinPrior),
	}
	return NewEngineWithDetectors(detectors, cfg)
}

// NewEngineWithDetectors creates an engine running exactly the given detectors.
func NewEngineWithDetectors(detectors []Detector, cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		detectors:  detectors,
		classifier: cfg.Classifier,
		anomalies:  cfg.Anomalies,
		logger:     logger,
		now:        now,
		newID:      uuid.NewString,
		thresholds: cfg.Thresholds.normalized(),
	}
}

// RunDetection inspects a transaction that has just been written for ownerID
// and returns every anomaly found. Detector, classifier and storage failures
// are logged and never returned; detection must not fail the write that
// triggered it. The anomalies are returned even when persisting them failed.
func (e *Engine) RunDetection(ctx context.Context, txn model.Transaction, ownerID string) []model.Anomaly {
	if ownerID != "" {
		txn.OwnerID = ownerID
	}
	detectedAt := e.now()
	logger := e.logger.With("transaction_id", txn.ID, "owner_id", txn.OwnerID)

	findings := e.collect(ctx, txn, detectedAt, logger)

	if e.classifier != nil && e.ShouldClassify(txn, len(findings) > 0) {
		if result, ok := e.classifier.Classify(ctx, txn); ok {
			findings = mergeClassification(findings, result)
		} else {
			logger.Debug("classifier had no opinion")
		}
	}

	if len(findings) == 0 {
		logger.Debug("no anomalies detected")
		return nil
	}

	anomalies := e.toAnomalies(txn, findings, detectedAt)
	e.persist(ctx, anomalies, logger)
	return anomalies
}

func (e *Engine) collect(ctx context.Context, txn model.Transaction, now time.Time, logger *slog.Logger) []Finding {
	var findings []Finding
	for _, d := range e.detectors {
		f, err := runDetector(ctx, d, txn, now)
		if err != nil {
			logger.Warn("detector failed", "detector", d.Name(), "error", err)
			continue
		}
		if f != nil {
			logger.Debug("detector fired", "detector", d.Name(), "type", f.Type)
			findings = append(findings, *f)
		}
	}
	return findings
}

// runDetector shields the run from a detector that panics.
func runDetector(ctx context.Context, d Detector, txn model.Transaction, now time.Time) (f *Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, err = nil, fmt.Errorf("detector panicked: %v", r)
		}
	}()
	return d.Detect(ctx, txn, now)
}

// ShouldClassify decides whether the external classifier is worth a call:
// something already fired, the amount is high, the category is the catch-all,
// or the text contains a suspicious keyword.
func (e *Engine) ShouldClassify(txn model.Transaction, fired bool) bool {
	if fired {
		return true
	}
	if txn.Amount.GreaterThan(e.thresholds.HighValue) {
		return true
	}
	if txn.Category == model.CategoryOther {
		return true
	}
	text := strings.ToLower(txn.Title + " " + txn.Description)
	for _, kw := range e.thresholds.SuspiciousKeywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// mergeClassification adds the classifier's opinion unless it found nothing
// or an AI finding is already present.
func mergeClassification(findings []Finding, result *model.Classification) []Finding {
	if result == nil || !result.IsAnomaly {
		return findings
	}
	for _, f := range findings {
		if f.Type == model.AnomalyAIDetected {
			return findings
		}
	}

	explanation := result.Explanation
	if explanation == "" {
		explanation = "Flagged as irregular by automated review"
	}
	return append(findings, Finding{
		Type:        model.AnomalyAIDetected,
		Severity:    model.NormalizeSeverity(result.Severity),
		Explanation: explanation,
		Evidence:    model.AIEvidence{Provider: result.Provider, Confidence: result.Confidence},
	})
}

func (e *Engine) toAnomalies(txn model.Transaction, findings []Finding, detectedAt time.Time) []model.Anomaly {
	anomalies := make([]model.Anomaly, 0, len(findings))
	for _, f := range findings {
		anomalies = append(anomalies, model.Anomaly{
			ID:            e.newID(),
			OwnerID:       txn.OwnerID,
			TransactionID: ptr(txn.ID),
			Type:          f.Type,
			Severity:      model.NormalizeSeverity(string(f.Severity)),
			Status:        model.StatusPending,
			Explanation:   f.Explanation,
			Evidence:      f.Evidence,
			DetectedAt:    detectedAt,
		})
	}
	return anomalies
}

func (e *Engine) persist(ctx context.Context, anomalies []model.Anomaly, logger *slog.Logger) {
	if e.anomalies == nil {
		return
	}
	if err := e.anomalies.InsertAnomalies(ctx, anomalies); err != nil {
		logger.Error("failed to persist anomalies", "count", len(anomalies), "error", err)
		return
	}
	logger.Info("anomalies recorded", "count", len(anomalies))
}
