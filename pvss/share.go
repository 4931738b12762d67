package pvss

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"

	kyber "github.com/drand/kyber"

	"github.com/optrand/pvss/crypto"
)

// SignedProof couples a decomposition proof with a signature over its
// canonical digest. A SignedProof is not self-certifying: Verify must be
// called against the issuer's verification key before the object is
// trusted.
type SignedProof struct {
	DecompProof       *DecompProof
	SignatureOnDecomp []byte
}

// Verify first delegates to the decomposition proof's own verification,
// then recomputes the canonical digest of the proof and checks the
// signature against the given verification key. Proof and signature
// failures are reported as distinct kinds (ErrProofInvalid vs
// ErrSignatureInvalid) so callers can penalize appropriately.
func (s *SignedProof) Verify(cfg *Config, verificationKey kyber.Point) error {
	if s == nil || s.DecompProof == nil {
		return ErrMissingProof
	}
	if err := s.DecompProof.Verify(cfg); err != nil {
		return err
	}
	msg, err := MessageFromProof(s.DecompProof)
	if err != nil {
		return err
	}
	if err := cfg.Scheme.AuthScheme.Verify(verificationKey, msg, s.SignatureOnDecomp); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return nil
}

// Equal returns true if both signed proofs hold the same proof and the same
// signature bytes.
func (s *SignedProof) Equal(other *SignedProof) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.DecompProof.Equal(other.DecompProof) &&
		bytes.Equal(s.SignatureOnDecomp, other.SignatureOnDecomp)
}

// Clone returns a deep copy of the signed proof.
func (s *SignedProof) Clone() *SignedProof {
	sig := make([]byte, len(s.SignatureOnDecomp))
	copy(sig, s.SignatureOnDecomp)
	return &SignedProof{
		DecompProof:       s.DecompProof.Clone(),
		SignatureOnDecomp: sig,
	}
}

// MarshalTo writes the canonical encoding of the signed proof: the proof
// followed by the length-prefixed signature.
func (s *SignedProof) MarshalTo(w io.Writer) error {
	if err := s.DecompProof.MarshalTo(w); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s.SignatureOnDecomp))); err != nil {
		return err
	}
	_, err := w.Write(s.SignatureOnDecomp)
	return err
}

// UnmarshalSignedProofFrom reads a signed proof in its canonical encoding.
func UnmarshalSignedProofFrom(sch *crypto.Scheme, r io.Reader) (*SignedProof, error) {
	proof, err := UnmarshalDecompProofFrom(sch, r)
	if err != nil {
		return nil, err
	}
	var sigLen uint32
	if err := binary.Read(r, binary.LittleEndian, &sigLen); err != nil {
		return nil, err
	}
	sig := make([]byte, sigLen)
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, err
	}
	return &SignedProof{DecompProof: proof, SignatureOnDecomp: sig}, nil
}

// PVSSShare is one participant's full contribution: its identity, its own
// share vectors and the signed proof binding them to a single secret. A
// share is produced once by a dealer and immutable thereafter. Its signed
// proof must be verified against the issuer's declared public key before
// the core is folded into any aggregate.
type PVSSShare struct {
	ParticipantID Index
	Core          *PVSSCore
	SignedProof   *SignedProof
}

// Equal returns true if both shares carry the same id, core and signed
// proof.
func (s *PVSSShare) Equal(other *PVSSShare) bool {
	return s.ParticipantID == other.ParticipantID &&
		s.Core.Equal(other.Core) &&
		s.SignedProof.Equal(other.SignedProof)
}

// MarshalTo writes the canonical encoding of the share.
func (s *PVSSShare) MarshalTo(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, s.ParticipantID); err != nil {
		return err
	}
	if err := s.Core.MarshalTo(w); err != nil {
		return err
	}
	return s.SignedProof.MarshalTo(w)
}

// MarshalBinary returns the canonical byte encoding of the share.
func (s *PVSSShare) MarshalBinary() ([]byte, error) {
	var b bytes.Buffer
	if err := s.MarshalTo(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// UnmarshalShareFrom reads a share in its canonical encoding from r.
func UnmarshalShareFrom(sch *crypto.Scheme, r io.Reader) (*PVSSShare, error) {
	var id Index
	if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
		return nil, err
	}
	core, err := UnmarshalCoreFrom(sch, r)
	if err != nil {
		return nil, err
	}
	proof, err := UnmarshalSignedProofFrom(sch, r)
	if err != nil {
		return nil, err
	}
	return &PVSSShare{ParticipantID: id, Core: core, SignedProof: proof}, nil
}

// PVSSAggregatedShare is the running transcript of a round: the shared
// threshold parameters, the homomorphic sum of all incorporated cores and
// an identity-indexed, duplicate-free map from participant id to the signed
// proof it contributed. The map records which proofs were folded in; the
// core is summed independently, so callers must make sure each
// participant's core is folded into a given accumulator at most once (see
// the aggregator package).
type PVSSAggregatedShare struct {
	NumParticipants int
	Degree          int
	Core            *PVSSCore
	Contributions   map[Index]*SignedProof
	// SchemeName records the scheme this transcript was produced under. It
	// is carried for persistence only and takes no part in the canonical
	// encoding or in equality.
	SchemeName string
}

// EmptyAggregated returns the initial transcript: an all-identity core and
// no contributions. It is the neutral element of Aggregate.
func EmptyAggregated(sch *crypto.Scheme, degree, numParticipants int) *PVSSAggregatedShare {
	return &PVSSAggregatedShare{
		NumParticipants: numParticipants,
		Degree:          degree,
		Core:            EmptyCore(sch, numParticipants),
		Contributions:   make(map[Index]*SignedProof),
		SchemeName:      sch.Name,
	}
}

// Aggregate merges two transcripts scoped to the same configuration into a
// new one, leaving both operands untouched. For any id present in both
// operands the decomposition commitments must be bitwise equal, otherwise
// the operands equivocate about that participant's secret and the merge
// fails with ErrDifferentCommitments. When both copies agree, the
// receiver's copy is kept. The operation is commutative and associative.
func (a *PVSSAggregatedShare) Aggregate(other *PVSSAggregatedShare) (*PVSSAggregatedShare, error) {
	if a.Degree != other.Degree || a.NumParticipants != other.NumParticipants {
		return nil, &ConfigMismatchError{
			Degree1:       a.Degree,
			Degree2:       other.Degree,
			Participants1: a.NumParticipants,
			Participants2: other.NumParticipants,
		}
	}

	contributions := make(map[Index]*SignedProof, len(a.Contributions)+len(other.Contributions))
	for i := 0; i < a.NumParticipants; i++ {
		id := Index(i)
		ours, haveOurs := a.Contributions[id]
		theirs, haveTheirs := other.Contributions[id]
		switch {
		case haveOurs && haveTheirs:
			if ours.DecompProof == nil || theirs.DecompProof == nil {
				return nil, ErrMissingProof
			}
			if !ours.DecompProof.GS.Equal(theirs.DecompProof.GS) {
				return nil, ErrDifferentCommitments
			}
			// both copies commit to the same secret, keep ours
			contributions[id] = ours
		case haveOurs:
			contributions[id] = ours
		case haveTheirs:
			contributions[id] = theirs
		}
	}

	core, err := a.Core.Aggregate(other.Core)
	if err != nil {
		return nil, err
	}

	return &PVSSAggregatedShare{
		NumParticipants: a.NumParticipants,
		Degree:          a.Degree,
		Core:            core,
		Contributions:   contributions,
		SchemeName:      a.SchemeName,
	}, nil
}

// AggregatePVSSShare folds a single share into the transcript: the share is
// wrapped as a one-entry aggregate and merged through Aggregate. This is
// the standard operation an online aggregator applies per incoming share.
func (a *PVSSAggregatedShare) AggregatePVSSShare(share *PVSSShare) (*PVSSAggregatedShare, error) {
	wrapped := &PVSSAggregatedShare{
		NumParticipants: a.NumParticipants,
		Degree:          a.Degree,
		Core:            share.Core,
		Contributions: map[Index]*SignedProof{
			share.ParticipantID: share.SignedProof,
		},
	}
	return a.Aggregate(wrapped)
}

// AggregateShares folds a batch of shares into a single transcript, with
// the i-th share attributed to ids[i] regardless of the id the share
// claims. An empty batch yields ErrEmptyVector, a batch larger than the
// identifier list ErrInsufficientIdentifiers.
func AggregateShares(sch *crypto.Scheme, degree int, shares []*PVSSShare, ids []Index) (*PVSSAggregatedShare, error) {
	if len(shares) == 0 {
		return nil, ErrEmptyVector
	}
	if len(shares) > len(ids) {
		return nil, ErrInsufficientIdentifiers
	}

	acc := EmptyAggregated(sch, degree, shares[0].Core.Len())
	for i, s := range shares {
		attributed := &PVSSShare{
			ParticipantID: ids[i],
			Core:          s.Core,
			SignedProof:   s.SignedProof,
		}
		next, err := acc.AggregatePVSSShare(attributed)
		if err != nil {
			return nil, fmt.Errorf("aggregating share %d: %w", i, err)
		}
		acc = next
	}
	return acc, nil
}

// ContributionIDs returns the ids present in the transcript in ascending
// order. All deterministic traversals of the contributions map go through
// this helper.
func (a *PVSSAggregatedShare) ContributionIDs() []Index {
	ids := make([]Index, 0, len(a.Contributions))
	for id := range a.Contributions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Equal returns true if both transcripts are scoped to the same
// configuration and hold the same core and contributions.
func (a *PVSSAggregatedShare) Equal(other *PVSSAggregatedShare) bool {
	if a.NumParticipants != other.NumParticipants || a.Degree != other.Degree {
		return false
	}
	if !a.Core.Equal(other.Core) {
		return false
	}
	if len(a.Contributions) != len(other.Contributions) {
		return false
	}
	for id, sp := range a.Contributions {
		osp, ok := other.Contributions[id]
		if !ok || !sp.Equal(osp) {
			return false
		}
	}
	return true
}

// MarshalTo writes the canonical encoding of the transcript: the threshold
// parameters, the core, then the contribution entries in ascending-id
// order. Byte stability of this encoding matters because transcript hashes
// and signatures are computed over it.
func (a *PVSSAggregatedShare) MarshalTo(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(a.NumParticipants)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(a.Degree)); err != nil {
		return err
	}
	if err := a.Core.MarshalTo(w); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(a.Contributions))); err != nil {
		return err
	}
	for _, id := range a.ContributionIDs() {
		if err := binary.Write(w, binary.LittleEndian, id); err != nil {
			return err
		}
		if err := a.Contributions[id].MarshalTo(w); err != nil {
			return fmt.Errorf("transcript: marshaling contribution %d: %w", id, err)
		}
	}
	return nil
}

// MarshalBinary returns the canonical byte encoding of the transcript.
func (a *PVSSAggregatedShare) MarshalBinary() ([]byte, error) {
	var b bytes.Buffer
	if err := a.MarshalTo(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// UnmarshalAggregatedFrom reads a transcript in its canonical encoding.
func UnmarshalAggregatedFrom(sch *crypto.Scheme, r io.Reader) (*PVSSAggregatedShare, error) {
	var n, degree uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &degree); err != nil {
		return nil, err
	}
	core, err := UnmarshalCoreFrom(sch, r)
	if err != nil {
		return nil, err
	}
	var entries uint32
	if err := binary.Read(r, binary.LittleEndian, &entries); err != nil {
		return nil, err
	}
	contributions := make(map[Index]*SignedProof, entries)
	for i := uint32(0); i < entries; i++ {
		var id Index
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, err
		}
		sp, err := UnmarshalSignedProofFrom(sch, r)
		if err != nil {
			return nil, fmt.Errorf("transcript: unmarshaling contribution %d: %w", id, err)
		}
		contributions[id] = sp
	}
	return &PVSSAggregatedShare{
		NumParticipants: int(n),
		Degree:          int(degree),
		Core:            core,
		Contributions:   contributions,
	}, nil
}

// Hash provides a compact hash of the transcript under the scheme's
// identity hash.
func (a *PVSSAggregatedShare) Hash(sch *crypto.Scheme) []byte {
	h := sch.IdentityHash()
	_ = a.MarshalTo(h)
	return h.Sum(nil)
}

// AggregatedTOML is the TOML representation of a transcript: the canonical
// binary encoding in hex, next to the scheme it was produced under.
type AggregatedTOML struct {
	SchemeName string
	Transcript string
}

// TOML returns a TOML-encodable version of the transcript.
func (a *PVSSAggregatedShare) TOML() interface{} {
	buff, _ := a.MarshalBinary()
	name := a.SchemeName
	if name == "" {
		name = crypto.DefaultSchemeID
	}
	return &AggregatedTOML{
		SchemeName: name,
		Transcript: hex.EncodeToString(buff),
	}
}

// FromTOML decodes the transcript from the toml struct.
func (a *PVSSAggregatedShare) FromTOML(i interface{}) error {
	t, ok := i.(*AggregatedTOML)
	if !ok {
		return errors.New("transcript can't decode from non AggregatedTOML struct")
	}
	sch, err := crypto.GetSchemeByIDWithDefault(t.SchemeName)
	if err != nil {
		return err
	}
	buff, err := hex.DecodeString(t.Transcript)
	if err != nil {
		return err
	}
	decoded, err := UnmarshalAggregatedFrom(sch, bytes.NewReader(buff))
	if err != nil {
		return err
	}
	decoded.SchemeName = sch.Name
	*a = *decoded
	return nil
}

// TOMLValue returns an empty TOML-compatible value of the transcript.
func (a *PVSSAggregatedShare) TOMLValue() interface{} {
	return &AggregatedTOML{}
}
