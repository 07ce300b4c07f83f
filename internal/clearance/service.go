// Package clearance orchestrates document anchoring and verification over
// the three external collaborators: the content store, the local
// fingerprint→locator index, and the shared trade ledger. All
// collaborators are capability interfaces so tests substitute in-memory
// doubles without touching the orchestration logic.
package clearance

import (
	"context"
	"errors"
	"fmt"

	"github.com/GangaMannan/CustomsClearnace/internal/docindex"
	"github.com/GangaMannan/CustomsClearnace/internal/docstore"
	"github.com/GangaMannan/CustomsClearnace/internal/fingerprint"
	"github.com/GangaMannan/CustomsClearnace/internal/ledger"
	"github.com/GangaMannan/CustomsClearnace/internal/risk"
	"go.uber.org/zap"
)

// Notifier is told about submissions that land in the RED channel.
// *email.InspectionNotifier satisfies this interface.
type Notifier interface {
	NotifyRedChannel(ctx context.Context, res *SubmitResult)
}

// Service owns the consistency contract between the content store, the
// index, and the ledger. Neither external system is transactionally
// coupled to the others, so the ordering in Submit is what keeps partial
// failures recoverable.
type Service struct {
	store  docstore.Store
	index  docindex.Index
	ledger ledger.Ledger
	engine *risk.Engine

	marketReference int64
	alerts          Notifier // nil = no RED-channel notifications
	logger          *zap.Logger
}

// NewService creates a Service. marketReference is the market reference
// value applied uniformly to every submission; submitters cannot
// influence it.
func NewService(store docstore.Store, index docindex.Index, led ledger.Ledger, engine *risk.Engine, marketReference int64, logger *zap.Logger) *Service {
	return &Service{
		store:           store,
		index:           index,
		ledger:          led,
		engine:          engine,
		marketReference: marketReference,
		logger:          logger,
	}
}

// SetNotifier configures RED-channel notification. Set to nil to disable.
func (s *Service) SetNotifier(n Notifier) {
	s.alerts = n
}

// Submit anchors one declaration: fingerprint, store, index, ledger, in
// that order. The store and index steps are safely re-attemptable —
// re-running with identical bytes reproduces the same fingerprint,
// locator, and index entry — while the ledger commit is irreversible, so
// it runs last. If the commit fails after the earlier steps succeeded,
// the index entry is left in place (it references valid stored bytes) and
// the failure carries StageLedger so the caller can retry just the commit
// without re-uploading.
func (s *Service) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	if req.DeclaredValue < 0 {
		return nil, fmt.Errorf("declared value must be non-negative, got %d", req.DeclaredValue)
	}
	// The reference is server-side configuration. It is still recorded on
	// the ledger entry so the channel can be re-derived after a later
	// reference update.
	reference := s.marketReference

	fp := fingerprint.New(req.Document)

	locator, err := s.store.Store(ctx, req.Document)
	if err != nil {
		return nil, &StageError{Stage: StageStore, Err: err}
	}

	// A ledger entry without a resolvable locator is unverifiable, so
	// the index write must land before the commit is attempted.
	if err := s.index.Put(ctx, fp, locator); err != nil {
		return nil, &StageError{Stage: StageIndex, Err: err}
	}

	channel := s.engine.Decide(req.DeclaredValue, reference)
	receipt, err := s.ledger.Commit(ctx, ledger.Record{
		Fingerprint:     fp,
		DeclaredValue:   req.DeclaredValue,
		MarketReference: reference,
		Status:          channel,
		Submitter:       req.Submitter,
	})
	if err != nil {
		return nil, &StageError{Stage: StageLedger, Err: err}
	}

	res := &SubmitResult{
		Fingerprint: fp,
		Locator:     locator,
		Receipt:     receipt,
		Channel:     channel,
	}
	if g, ok := s.store.(docstore.GatewayURLer); ok {
		res.GatewayURL = g.GatewayURL(locator)
	}

	s.logger.Info("document anchored",
		zap.String("fingerprint", fp.String()),
		zap.String("locator", locator),
		zap.Int64("declared_value", req.DeclaredValue),
		zap.String("channel", string(channel)),
		zap.Bool("reused", receipt.Reused),
	)

	if channel == risk.ChannelRed && s.alerts != nil {
		s.alerts.NotifyRedChannel(ctx, res)
	}
	return res, nil
}

// Verify resolves a fingerprint back to its ledger record and original
// bytes. The ledger record, not the bytes, is authoritative for the
// channel decision; fetched bytes are re-fingerprinted only as a tamper
// check against the looked-up fingerprint.
//
// Negative outcomes (NOT_FOUND, UNRESOLVABLE_LOCATION, FETCH_FAILED,
// CONTENT_MISMATCH) return a VerifyResult with nil error. Transient
// infrastructure failures return a StageError instead, so a validator is
// never told "fraudulent" when the true cause was a timeout.
func (s *Service) Verify(ctx context.Context, fp fingerprint.Fingerprint, locatorOverride string) (*VerifyResult, error) {
	rec, ok, err := s.ledger.Lookup(ctx, fp)
	if err != nil {
		return nil, &StageError{Stage: StageLedger, Err: err}
	}
	if !ok {
		return &VerifyResult{Outcome: OutcomeNotFound}, nil
	}

	// Recomputed from the stored pair, never from a possibly-changed
	// external reference.
	channel := s.engine.Decide(rec.DeclaredValue, rec.MarketReference)

	locator, found, err := s.index.Get(ctx, fp)
	if err != nil {
		return nil, &StageError{Stage: StageIndex, Err: err}
	}
	if !found {
		// Index lost or never local. An override trades index-enforced
		// integrity for a manual resolution path.
		locator = locatorOverride
	}
	if locator == "" {
		return &VerifyResult{
			Outcome: OutcomeUnresolvableLocation,
			Record:  rec,
			Channel: channel,
		}, nil
	}

	res := &VerifyResult{Record: rec, Locator: locator, Channel: channel}
	if g, ok := s.store.(docstore.GatewayURLer); ok {
		res.GatewayURL = g.GatewayURL(locator)
	}

	data, err := s.store.Fetch(ctx, locator)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			res.Outcome = OutcomeFetchFailed
			res.Detail = err.Error()
			return res, nil
		}
		return nil, &StageError{Stage: StageStore, Err: err}
	}

	if fingerprint.New(data) != fp {
		s.logger.Error("content mismatch: stored bytes do not hash to ledger fingerprint",
			zap.String("fingerprint", fp.String()),
			zap.String("locator", locator),
		)
		res.Outcome = OutcomeContentMismatch
		return res, nil
	}

	res.Outcome = OutcomeVerified
	res.Document = data
	return res, nil
}
