package pvss

import (
	"bytes"
	"errors"
	"testing"

	kyber "github.com/drand/kyber"
	"github.com/drand/kyber/util/random"
	"github.com/stretchr/testify/require"

	"github.com/optrand/pvss/crypto"
	"github.com/optrand/pvss/key"
)

type testRound struct {
	sch    *crypto.Scheme
	cfg    *Config
	pairs  []*key.Pair
	points []kyber.Point
}

func newTestRound(t *testing.T, degree, n int) *testRound {
	t.Helper()
	sch := crypto.NewPVSSOnG1()
	cfg := testConfig(t, sch, degree, n)

	pairs := make([]*key.Pair, n)
	points := make([]kyber.Point, n)
	for i := range pairs {
		pairs[i] = key.NewKeyPair(sch)
		points[i] = pairs[i].Public.Key
	}
	return &testRound{sch: sch, cfg: cfg, pairs: pairs, points: points}
}

// deal produces a fully valid share issued by the participant with the
// given id.
func (r *testRound) deal(t *testing.T, id Index) *PVSSShare {
	t.Helper()
	dealer, err := NewDealer(r.cfg, id, r.pairs[id])
	require.NoError(t, err)
	sh, err := dealer.Deal(random.New(), r.points)
	require.NoError(t, err)
	return sh
}

func TestSignedProofVerify(t *testing.T) {
	r := newTestRound(t, 3, 10)
	sh := r.deal(t, 5)

	require.NoError(t, sh.SignedProof.Verify(r.cfg, r.points[5]))

	// verifying under another participant's key fails on the signature
	err := sh.SignedProof.Verify(r.cfg, r.points[6])
	require.ErrorIs(t, err, ErrSignatureInvalid)

	// a corrupted proof fails before the signature is even checked
	corrupted := sh.SignedProof.Clone()
	corrupted.DecompProof.Response = r.sch.CommGroup.Scalar().Pick(random.New())
	require.ErrorIs(t, corrupted.Verify(r.cfg, r.points[5]), ErrProofInvalid)

	// a missing proof is its own error kind, not a panic
	require.ErrorIs(t, (&SignedProof{}).Verify(r.cfg, r.points[5]), ErrMissingProof)
}

func TestEmptyAggregated(t *testing.T) {
	sch := crypto.NewPVSSOnG1()
	agg := EmptyAggregated(sch, 3, 10)

	require.Equal(t, 10, agg.NumParticipants)
	require.Equal(t, 3, agg.Degree)
	require.Empty(t, agg.Contributions)
	require.True(t, agg.Core.Equal(EmptyCore(sch, 10)))
}

func TestAggregateSingleShare(t *testing.T) {
	r := newTestRound(t, 3, 10)
	sh := r.deal(t, 5)

	agg, err := EmptyAggregated(r.sch, 3, 10).AggregatePVSSShare(sh)
	require.NoError(t, err)

	require.Len(t, agg.Contributions, 1)
	require.True(t, agg.Contributions[5].Equal(sh.SignedProof))
	require.True(t, agg.Core.Equal(sh.Core))
}

func TestAggregateTwoShares(t *testing.T) {
	r := newTestRound(t, 3, 10)
	shA := r.deal(t, 2)
	shB := r.deal(t, 5)

	agg := EmptyAggregated(r.sch, 3, 10)
	agg, err := agg.AggregatePVSSShare(shA)
	require.NoError(t, err)
	agg, err = agg.AggregatePVSSShare(shB)
	require.NoError(t, err)

	require.ElementsMatch(t, []Index{2, 5}, agg.ContributionIDs())
	require.True(t, agg.Contributions[2].Equal(shA.SignedProof))
	require.True(t, agg.Contributions[5].Equal(shB.SignedProof))

	expected, err := shA.Core.Aggregate(shB.Core)
	require.NoError(t, err)
	require.True(t, agg.Core.Equal(expected))
}

func TestAggregateOrderIndependent(t *testing.T) {
	r := newTestRound(t, 3, 10)
	shA := r.deal(t, 1)
	shB := r.deal(t, 4)
	shC := r.deal(t, 8)

	fold := func(shares ...*PVSSShare) *PVSSAggregatedShare {
		acc := EmptyAggregated(r.sch, 3, 10)
		for _, sh := range shares {
			next, err := acc.AggregatePVSSShare(sh)
			require.NoError(t, err)
			acc = next
		}
		return acc
	}

	first := fold(shA, shB, shC)
	second := fold(shC, shA, shB)
	require.True(t, first.Equal(second))

	// tree-style merge of two partial transcripts gives the same result
	left := fold(shA)
	right := fold(shB, shC)
	merged, err := left.Aggregate(right)
	require.NoError(t, err)
	require.True(t, merged.Equal(first))
}

func TestAggregateDedupsProofNotCore(t *testing.T) {
	r := newTestRound(t, 3, 10)
	sh := r.deal(t, 5)

	agg := EmptyAggregated(r.sch, 3, 10)
	agg, err := agg.AggregatePVSSShare(sh)
	require.NoError(t, err)
	agg, err = agg.AggregatePVSSShare(sh)
	require.NoError(t, err)

	// the contributions map stays duplicate free
	require.Len(t, agg.Contributions, 1)
	require.True(t, agg.Contributions[5].Equal(sh.SignedProof))

	// but the core sum is not bound to the map: a core folded twice has
	// its components doubled
	doubled, err := sh.Core.Aggregate(sh.Core)
	require.NoError(t, err)
	require.True(t, agg.Core.Equal(doubled))
}

func TestAggregateEquivocationDetected(t *testing.T) {
	r := newTestRound(t, 3, 10)

	// two shares under the same id but independent polynomial material
	shA := r.deal(t, 3)
	shB := r.deal(t, 3)
	require.False(t, shA.SignedProof.DecompProof.GS.Equal(shB.SignedProof.DecompProof.GS))

	aggA, err := EmptyAggregated(r.sch, 3, 10).AggregatePVSSShare(shA)
	require.NoError(t, err)
	aggB, err := EmptyAggregated(r.sch, 3, 10).AggregatePVSSShare(shB)
	require.NoError(t, err)

	_, err = aggA.Aggregate(aggB)
	require.ErrorIs(t, err, ErrDifferentCommitments)
}

func TestAggregateEqualCommitmentsMerge(t *testing.T) {
	r := newTestRound(t, 3, 10)
	sh := r.deal(t, 3)

	// same commitment, different signature bytes: this is a benign
	// re-signing, not an equivocation, and the receiver's copy wins
	resigned := &PVSSShare{
		ParticipantID: 3,
		Core:          sh.Core,
		SignedProof: &SignedProof{
			DecompProof:       sh.SignedProof.DecompProof.Clone(),
			SignatureOnDecomp: append([]byte(nil), "another signature"...),
		},
	}

	aggA, err := EmptyAggregated(r.sch, 3, 10).AggregatePVSSShare(sh)
	require.NoError(t, err)
	aggB, err := EmptyAggregated(r.sch, 3, 10).AggregatePVSSShare(resigned)
	require.NoError(t, err)

	merged, err := aggA.Aggregate(aggB)
	require.NoError(t, err)
	require.True(t, merged.Contributions[3].Equal(sh.SignedProof))
}

func TestAggregateConfigIsolation(t *testing.T) {
	sch := crypto.NewPVSSOnG1()

	a := EmptyAggregated(sch, 3, 10)
	b := EmptyAggregated(sch, 3, 11)

	_, err := a.Aggregate(b)
	require.ErrorIs(t, err, ErrConfigMismatch)

	var cfgErr *ConfigMismatchError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, 3, cfgErr.Degree1)
	require.Equal(t, 3, cfgErr.Degree2)
	require.Equal(t, 10, cfgErr.Participants1)
	require.Equal(t, 11, cfgErr.Participants2)
}

func TestAggregateSharesBatch(t *testing.T) {
	r := newTestRound(t, 3, 10)
	shA := r.deal(t, 2)
	shB := r.deal(t, 5)

	agg, err := AggregateShares(r.sch, 3, []*PVSSShare{shA, shB}, []Index{2, 5})
	require.NoError(t, err)
	require.ElementsMatch(t, []Index{2, 5}, agg.ContributionIDs())

	_, err = AggregateShares(r.sch, 3, nil, nil)
	require.ErrorIs(t, err, ErrEmptyVector)

	_, err = AggregateShares(r.sch, 3, []*PVSSShare{shA, shB}, []Index{2})
	require.ErrorIs(t, err, ErrInsufficientIdentifiers)

	// the identifier list overrides the ids claimed by the shares
	agg, err = AggregateShares(r.sch, 3, []*PVSSShare{shA}, []Index{7})
	require.NoError(t, err)
	require.ElementsMatch(t, []Index{7}, agg.ContributionIDs())
}

func TestShareMarshalRoundTrip(t *testing.T) {
	r := newTestRound(t, 3, 10)
	sh := r.deal(t, 5)

	buff, err := sh.MarshalBinary()
	require.NoError(t, err)

	decoded, err := UnmarshalShareFrom(r.sch, bytes.NewReader(buff))
	require.NoError(t, err)
	require.True(t, sh.Equal(decoded))

	// the signed proof still verifies after the round trip
	require.NoError(t, decoded.SignedProof.Verify(r.cfg, r.points[5]))
}

func TestAggregatedMarshalRoundTrip(t *testing.T) {
	r := newTestRound(t, 3, 10)
	agg, err := AggregateShares(r.sch, 3, []*PVSSShare{r.deal(t, 2), r.deal(t, 5)}, []Index{2, 5})
	require.NoError(t, err)

	buff, err := agg.MarshalBinary()
	require.NoError(t, err)

	decoded, err := UnmarshalAggregatedFrom(r.sch, bytes.NewReader(buff))
	require.NoError(t, err)
	require.True(t, agg.Equal(decoded))

	buff2, err := decoded.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, buff, buff2)
	require.Equal(t, agg.Hash(r.sch), decoded.Hash(r.sch))
}

func TestAggregatedTOMLRoundTrip(t *testing.T) {
	r := newTestRound(t, 3, 10)
	agg, err := EmptyAggregated(r.sch, 3, 10).AggregatePVSSShare(r.deal(t, 5))
	require.NoError(t, err)

	loaded := new(PVSSAggregatedShare)
	require.NoError(t, loaded.FromTOML(agg.TOML()))
	require.True(t, agg.Equal(loaded))
	require.Equal(t, r.sch.Name, loaded.SchemeName)
}
