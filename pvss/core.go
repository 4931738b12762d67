package pvss

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	kyber "github.com/drand/kyber"

	"github.com/optrand/pvss/crypto"
)

// PVSSCore is the homomorphic accumulator of the protocol: two equal-length
// vectors of group elements, one encryption and one commitment per
// participant slot. A core is an immutable value; Aggregate allocates a
// fresh result and never mutates its operands.
type PVSSCore struct {
	// Encs[i] is the encryption of the evaluation addressed to slot i,
	// expressed in the encryption group.
	Encs []kyber.Point
	// Comms[i] is the commitment to the evaluation of slot i, expressed in
	// the commitment group.
	Comms []kyber.Point
}

// EmptyCore returns a core with n identity elements in each vector. It is
// the neutral element of Aggregate.
func EmptyCore(sch *crypto.Scheme, n int) *PVSSCore {
	encs := make([]kyber.Point, n)
	comms := make([]kyber.Point, n)
	for i := 0; i < n; i++ {
		encs[i] = sch.EncGroup.Point().Null()
		comms[i] = sch.CommGroup.Point().Null()
	}
	return &PVSSCore{Encs: encs, Comms: comms}
}

// Len returns the number of participant slots of the core.
func (c *PVSSCore) Len() int {
	return len(c.Comms)
}

// Aggregate returns the pointwise group addition of both cores. Since group
// addition is commutative and associative, so is Aggregate, with the
// all-identity core as neutral element.
func (c *PVSSCore) Aggregate(other *PVSSCore) (*PVSSCore, error) {
	if len(c.Comms) == 0 {
		return nil, ErrEmptyVector
	}
	if len(c.Comms) != len(other.Comms) {
		return nil, &CommitmentsLengthError{Ours: len(c.Comms), Theirs: len(other.Comms)}
	}
	if len(c.Encs) != len(other.Encs) {
		return nil, &EncryptionsLengthError{Ours: len(c.Encs), Theirs: len(other.Encs)}
	}
	if len(c.Comms) != len(c.Encs) {
		return nil, &CoreLengthError{Comms: len(c.Comms), Encs: len(c.Encs)}
	}
	if len(other.Comms) != len(other.Encs) {
		return nil, &CoreLengthError{Comms: len(other.Comms), Encs: len(other.Encs)}
	}

	n := len(c.Comms)
	out := &PVSSCore{
		Encs:  make([]kyber.Point, n),
		Comms: make([]kyber.Point, n),
	}
	for i := 0; i < n; i++ {
		e := c.Encs[i].Clone()
		out.Encs[i] = e.Add(e, other.Encs[i])
		v := c.Comms[i].Clone()
		out.Comms[i] = v.Add(v, other.Comms[i])
	}
	return out, nil
}

// Neg returns the pointwise negation of the core. Aggregating a core with
// its negation yields the all-identity core.
func (c *PVSSCore) Neg() *PVSSCore {
	out := &PVSSCore{
		Encs:  make([]kyber.Point, len(c.Encs)),
		Comms: make([]kyber.Point, len(c.Comms)),
	}
	for i, e := range c.Encs {
		out.Encs[i] = e.Clone().Neg(e)
	}
	for i, v := range c.Comms {
		out.Comms[i] = v.Clone().Neg(v)
	}
	return out
}

// Clone returns a deep copy of the core.
func (c *PVSSCore) Clone() *PVSSCore {
	out := &PVSSCore{
		Encs:  make([]kyber.Point, len(c.Encs)),
		Comms: make([]kyber.Point, len(c.Comms)),
	}
	for i, e := range c.Encs {
		out.Encs[i] = e.Clone()
	}
	for i, v := range c.Comms {
		out.Comms[i] = v.Clone()
	}
	return out
}

// Equal returns true if both cores hold the same elements in the same
// order.
func (c *PVSSCore) Equal(other *PVSSCore) bool {
	if len(c.Encs) != len(other.Encs) || len(c.Comms) != len(other.Comms) {
		return false
	}
	for i, e := range c.Encs {
		if !e.Equal(other.Encs[i]) {
			return false
		}
	}
	for i, v := range c.Comms {
		if !v.Equal(other.Comms[i]) {
			return false
		}
	}
	return true
}

// MarshalTo writes the canonical encoding of the core: the slot count
// followed by all encryptions then all commitments.
func (c *PVSSCore) MarshalTo(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(c.Encs))); err != nil {
		return err
	}
	for i, e := range c.Encs {
		if _, err := e.MarshalTo(w); err != nil {
			return fmt.Errorf("core: marshaling encryption %d: %w", i, err)
		}
	}
	for i, v := range c.Comms {
		if _, err := v.MarshalTo(w); err != nil {
			return fmt.Errorf("core: marshaling commitment %d: %w", i, err)
		}
	}
	return nil
}

// MarshalBinary returns the canonical byte encoding of the core.
func (c *PVSSCore) MarshalBinary() ([]byte, error) {
	var b bytes.Buffer
	if err := c.MarshalTo(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// UnmarshalCoreFrom reads a core in its canonical encoding from r, using the
// scheme to allocate the group elements.
func UnmarshalCoreFrom(sch *crypto.Scheme, r io.Reader) (*PVSSCore, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	out := &PVSSCore{
		Encs:  make([]kyber.Point, n),
		Comms: make([]kyber.Point, n),
	}
	for i := range out.Encs {
		out.Encs[i] = sch.EncGroup.Point()
		if _, err := out.Encs[i].UnmarshalFrom(r); err != nil {
			return nil, fmt.Errorf("core: unmarshaling encryption %d: %w", i, err)
		}
	}
	for i := range out.Comms {
		out.Comms[i] = sch.CommGroup.Point()
		if _, err := out.Comms[i].UnmarshalFrom(r); err != nil {
			return nil, fmt.Errorf("core: unmarshaling commitment %d: %w", i, err)
		}
	}
	return out, nil
}

// Hash provides a compact hash of the core under the scheme's identity
// hash.
func (c *PVSSCore) Hash(sch *crypto.Scheme) []byte {
	h := sch.IdentityHash()
	_ = c.MarshalTo(h)
	return h.Sum(nil)
}
