// Package aggregator maintains the running transcript of a PVSS round: it
// verifies incoming shares, folds accepted ones and merges transcripts
// collected by other relays.
package aggregator

import (
	"errors"
	"fmt"
	"sync"

	kyber "github.com/drand/kyber"
	"github.com/hashicorp/go-multierror"

	"github.com/optrand/pvss/key"
	"github.com/optrand/pvss/log"
	"github.com/optrand/pvss/pvss"
)

// ErrDuplicateContribution is returned when a share arrives for a
// participant whose contribution is already part of the transcript. The
// underlying fold would silently dedup the proof while still doubling the
// participant's slice of the core sum, so the aggregator refuses it
// upfront.
var ErrDuplicateContribution = errors.New("participant already contributed to this transcript")

// ErrUnknownParticipant is returned when a share claims an id outside the
// roster.
var ErrUnknownParticipant = errors.New("share issued by a participant outside the roster")

// Aggregator owns one transcript and is the single writer folding into it.
// The fold operations of the pvss package are pure, so concurrent callers
// only contend on the short critical section swapping the transcript
// pointer.
type Aggregator struct {
	l    log.Logger
	cfg  *pvss.Config
	keys []kyber.Point

	mu         sync.Mutex
	transcript *pvss.PVSSAggregatedShare
}

// New returns an aggregator for the given configuration, using the roster's
// public keys to verify the signed proofs of incoming shares.
func New(l log.Logger, cfg *pvss.Config, roster *key.Roster) (*Aggregator, error) {
	if roster.Len() != cfg.NumParticipants {
		return nil, fmt.Errorf("roster holds %d nodes, config expects %d participants",
			roster.Len(), cfg.NumParticipants)
	}
	return &Aggregator{
		l:          l.Named("aggregator"),
		cfg:        cfg,
		keys:       roster.Points(),
		transcript: pvss.EmptyAggregated(cfg.Scheme, cfg.Degree, cfg.NumParticipants),
	}, nil
}

// ProcessShare verifies the signed proof of the share against the issuer's
// public key and folds it into the transcript. Invalid shares are rejected
// with the verification error; shares from participants already present are
// rejected with ErrDuplicateContribution.
func (a *Aggregator) ProcessShare(sh *pvss.PVSSShare) error {
	id := sh.ParticipantID
	if int(id) >= len(a.keys) {
		return fmt.Errorf("%w: id %d", ErrUnknownParticipant, id)
	}

	if err := sh.SignedProof.Verify(a.cfg, a.keys[id]); err != nil {
		a.l.Warnw("rejecting share", "participant", id, "err", err)
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.transcript.Contributions[id]; ok {
		return fmt.Errorf("%w: id %d", ErrDuplicateContribution, id)
	}
	next, err := a.transcript.AggregatePVSSShare(sh)
	if err != nil {
		return err
	}
	a.transcript = next
	a.l.Debugw("share folded", "participant", id, "contributions", len(next.Contributions))
	return nil
}

// ProcessBatch folds every share of the batch, skipping the ones that fail
// verification or duplicate an existing contribution. It returns the number
// of accepted shares, and the collected rejections as a multierror.
func (a *Aggregator) ProcessBatch(shares []*pvss.PVSSShare) (int, error) {
	var accepted int
	var errs *multierror.Error
	for _, sh := range shares {
		if err := a.ProcessShare(sh); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("share of participant %d: %w", sh.ParticipantID, err))
			continue
		}
		accepted++
	}
	return accepted, errs.ErrorOrNil()
}

// Merge folds a transcript produced by another relay into ours. Every
// contribution of the incoming transcript is re-verified before merging, so
// a relay never has to trust its peers.
func (a *Aggregator) Merge(other *pvss.PVSSAggregatedShare) error {
	for _, id := range other.ContributionIDs() {
		if int(id) >= len(a.keys) {
			return fmt.Errorf("%w: id %d", ErrUnknownParticipant, id)
		}
		if err := other.Contributions[id].Verify(a.cfg, a.keys[id]); err != nil {
			a.l.Warnw("rejecting transcript", "participant", id, "err", err)
			return err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// an id present on both sides would get its slice of the core sum
	// counted twice while the merge dedups only the proof
	for _, id := range other.ContributionIDs() {
		if _, ok := a.transcript.Contributions[id]; ok {
			return fmt.Errorf("%w: id %d", ErrDuplicateContribution, id)
		}
	}

	next, err := a.transcript.Aggregate(other)
	if err != nil {
		return err
	}
	a.transcript = next
	a.l.Debugw("transcript merged", "contributions", len(next.Contributions))
	return nil
}

// Transcript returns the current transcript. Folds allocate fresh values,
// so the returned transcript is never mutated afterwards.
func (a *Aggregator) Transcript() *pvss.PVSSAggregatedShare {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transcript
}
