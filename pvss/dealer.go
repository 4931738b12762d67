package pvss

import (
	"crypto/cipher"
	"fmt"

	kyber "github.com/drand/kyber"
	"github.com/drand/kyber/share"

	"github.com/optrand/pvss/key"
)

// ensure the roster index type and the pvss index type stay aliases of the
// same underlying integer
var _ key.Index = Index(0)

// Dealer produces the PVSS contribution of one participant: it samples a
// secret polynomial, addresses one encrypted evaluation to every
// participant and signs the decomposition proof binding the whole vector to
// the polynomial's free coefficient.
type Dealer struct {
	cfg  *Config
	id   Index
	pair *key.Pair
}

// NewDealer returns a dealer acting as the participant with the given id.
func NewDealer(cfg *Config, id Index, pair *key.Pair) (*Dealer, error) {
	if int(id) >= cfg.NumParticipants {
		return nil, fmt.Errorf("dealer id %d out of range for %d participants", id, cfg.NumParticipants)
	}
	return &Dealer{cfg: cfg, id: id, pair: pair}, nil
}

// Deal samples a fresh degree-t polynomial from the stream and builds this
// participant's share: commitments to the evaluations at points 1..n in the
// commitment group, encryptions of the same evaluations under the
// recipients' public keys in the encryption group, and a signed
// decomposition proof over the free coefficient. publicKeys must hold the
// recipients' keys indexed by participant id.
func (d *Dealer) Deal(stream cipher.Stream, publicKeys []kyber.Point) (*PVSSShare, error) {
	cfg := d.cfg
	if len(publicKeys) != cfg.NumParticipants {
		return nil, &EncryptionsLengthError{Ours: cfg.NumParticipants, Theirs: len(publicKeys)}
	}

	// degree+1 coefficients give a polynomial of degree t
	poly := share.NewPriPoly(cfg.Scheme.CommGroup, cfg.Degree+1, nil, stream)
	secret := poly.Secret()

	encs := make([]kyber.Point, cfg.NumParticipants)
	comms := make([]kyber.Point, cfg.NumParticipants)
	for j := 0; j < cfg.NumParticipants; j++ {
		// Eval(j) evaluates the polynomial at x = j+1, keeping the free
		// coefficient out of any participant's hands
		eval := poly.Eval(j).V
		comms[j] = cfg.Scheme.CommGroup.Point().Mul(eval, cfg.SRS.G2)
		encs[j] = cfg.Scheme.EncGroup.Point().Mul(eval, publicKeys[j])
	}

	dproof, err := GenerateDecompProof(stream, cfg, secret)
	if err != nil {
		return nil, fmt.Errorf("dealer %d: generating decomposition proof: %w", d.id, err)
	}
	msg, err := MessageFromProof(dproof)
	if err != nil {
		return nil, err
	}
	sig, err := cfg.Scheme.AuthScheme.Sign(d.pair.Key, msg)
	if err != nil {
		return nil, fmt.Errorf("dealer %d: signing decomposition proof: %w", d.id, err)
	}

	return &PVSSShare{
		ParticipantID: d.id,
		Core:          &PVSSCore{Encs: encs, Comms: comms},
		SignedProof: &SignedProof{
			DecompProof:       dproof,
			SignatureOnDecomp: sig,
		},
	}, nil
}
