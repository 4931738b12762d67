package pvss

import (
	"testing"

	"github.com/drand/kyber/util/random"
	"github.com/stretchr/testify/require"
)

func TestDealerDeal(t *testing.T) {
	r := newTestRound(t, 3, 10)
	sh := r.deal(t, 5)

	require.Equal(t, Index(5), sh.ParticipantID)
	require.Equal(t, 10, sh.Core.Len())
	require.Len(t, sh.Core.Encs, 10)
	require.NoError(t, sh.SignedProof.Verify(r.cfg, r.points[5]))

	// no slot carries the identity element
	for i := 0; i < 10; i++ {
		require.False(t, sh.Core.Encs[i].Equal(r.sch.EncGroup.Point().Null()))
		require.False(t, sh.Core.Comms[i].Equal(r.sch.CommGroup.Point().Null()))
	}
}

func TestDealerIDOutOfRange(t *testing.T) {
	r := newTestRound(t, 3, 10)
	_, err := NewDealer(r.cfg, 10, r.pairs[0])
	require.Error(t, err)
}

func TestDealerKeyCountMismatch(t *testing.T) {
	r := newTestRound(t, 3, 10)
	dealer, err := NewDealer(r.cfg, 0, r.pairs[0])
	require.NoError(t, err)

	_, err = dealer.Deal(random.New(), r.points[:9])
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestDealerSharesAreIndependent(t *testing.T) {
	r := newTestRound(t, 3, 10)
	a := r.deal(t, 0)
	b := r.deal(t, 0)

	// fresh polynomial material on every deal
	require.False(t, a.Core.Equal(b.Core))
	require.False(t, a.SignedProof.DecompProof.GS.Equal(b.SignedProof.DecompProof.GS))
}
