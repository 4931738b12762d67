package pvss

import (
	"bytes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	kyber "github.com/drand/kyber"

	"github.com/optrand/pvss/crypto"
)

// decompDomain separates the challenge hash of decomposition proofs from
// any other use of the hash function.
var decompDomain = []byte("pvss:decomp:v1")

// DecompProof is a non-interactive proof of knowledge of the free
// coefficient of a dealer's secret polynomial. GS commits to that
// coefficient in the commitment group; it is the field compared for
// equality when detecting equivocation. Challenge and Response form a
// schnorr-style proof that the prover knows the discrete logarithm of GS
// with respect to the SRS generator.
type DecompProof struct {
	GS        kyber.Point
	Challenge kyber.Scalar
	Response  kyber.Scalar
}

// GenerateDecompProof proves knowledge of secret, the free coefficient of
// the dealer's polynomial, under the given configuration.
func GenerateDecompProof(stream cipher.Stream, cfg *Config, secret kyber.Scalar) (*DecompProof, error) {
	g := cfg.Scheme.CommGroup
	gs := g.Point().Mul(secret, cfg.SRS.G2)

	w := g.Scalar().Pick(stream)
	commit := g.Point().Mul(w, cfg.SRS.G2)

	challenge, err := challengeScalar(cfg, commit, gs)
	if err != nil {
		return nil, err
	}

	// z = w + c*s
	response := g.Scalar().Mul(challenge, secret)
	response.Add(response, w)

	return &DecompProof{GS: gs, Challenge: challenge, Response: response}, nil
}

// Verify checks the proof against the shared configuration. A structurally
// incomplete proof yields ErrMissingProof, a failing equation
// ErrProofInvalid.
func (d *DecompProof) Verify(cfg *Config) error {
	if d == nil || d.GS == nil || d.Challenge == nil || d.Response == nil {
		return ErrMissingProof
	}

	g := cfg.Scheme.CommGroup
	// recompute the prover's commitment: g2^z * gs^-c
	commit := g.Point().Mul(d.Response, cfg.SRS.G2)
	commit.Sub(commit, g.Point().Mul(d.Challenge, d.GS))

	challenge, err := challengeScalar(cfg, commit, d.GS)
	if err != nil {
		return err
	}
	if !challenge.Equal(d.Challenge) {
		return fmt.Errorf("%w: challenge mismatch", ErrProofInvalid)
	}
	return nil
}

// Equal returns true if both proofs hold the same commitment, challenge and
// response.
func (d *DecompProof) Equal(other *DecompProof) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.GS.Equal(other.GS) &&
		d.Challenge.Equal(other.Challenge) &&
		d.Response.Equal(other.Response)
}

// Clone returns a deep copy of the proof.
func (d *DecompProof) Clone() *DecompProof {
	return &DecompProof{
		GS:        d.GS.Clone(),
		Challenge: d.Challenge.Clone(),
		Response:  d.Response.Clone(),
	}
}

// MarshalTo writes the canonical encoding of the proof: commitment,
// challenge, response, in that order.
func (d *DecompProof) MarshalTo(w io.Writer) error {
	if d == nil || d.GS == nil || d.Challenge == nil || d.Response == nil {
		return ErrMissingProof
	}
	if _, err := d.GS.MarshalTo(w); err != nil {
		return err
	}
	if _, err := d.Challenge.MarshalTo(w); err != nil {
		return err
	}
	_, err := d.Response.MarshalTo(w)
	return err
}

// UnmarshalDecompProofFrom reads a proof in its canonical encoding from r.
func UnmarshalDecompProofFrom(sch *crypto.Scheme, r io.Reader) (*DecompProof, error) {
	d := &DecompProof{
		GS:        sch.CommGroup.Point(),
		Challenge: sch.CommGroup.Scalar(),
		Response:  sch.CommGroup.Scalar(),
	}
	if _, err := d.GS.UnmarshalFrom(r); err != nil {
		return nil, err
	}
	if _, err := d.Challenge.UnmarshalFrom(r); err != nil {
		return nil, err
	}
	if _, err := d.Response.UnmarshalFrom(r); err != nil {
		return nil, err
	}
	return d, nil
}

// MessageFromProof serializes a decomposition proof into the deterministic
// byte buffer that is signed by dealers and verified by aggregators. The
// bytes, not the in-memory layout, are the signing input, so the encoding
// must be identical on every platform.
func MessageFromProof(d *DecompProof) ([]byte, error) {
	var b bytes.Buffer
	if err := d.MarshalTo(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// challengeScalar derives the proof challenge from the configuration, the
// prover's commitment and GS.
func challengeScalar(cfg *Config, commit, gs kyber.Point) (kyber.Scalar, error) {
	h := sha256.New()
	_, _ = h.Write(decompDomain)
	_ = binary.Write(h, binary.LittleEndian, uint32(cfg.Degree))
	_ = binary.Write(h, binary.LittleEndian, uint32(cfg.NumParticipants))
	if _, err := cfg.SRS.G2.MarshalTo(h); err != nil {
		return nil, err
	}
	if _, err := commit.MarshalTo(h); err != nil {
		return nil, err
	}
	if _, err := gs.MarshalTo(h); err != nil {
		return nil, err
	}
	return cfg.Scheme.CommGroup.Scalar().SetBytes(h.Sum(nil)), nil
}
