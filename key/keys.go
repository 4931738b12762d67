// Package key holds the longterm keypairs of PVSS participants and the
// file-based storage of the protocol material.
package key

import (
	"bytes"
	"errors"
	"fmt"

	kyber "github.com/drand/kyber"
	"github.com/drand/kyber/util/random"

	"github.com/optrand/pvss/crypto"
)

// Pair is a wrapper around a random scalar and the corresponding public key
// in the encryption group of the scheme.
type Pair struct {
	Key    kyber.Scalar
	Public *Identity
}

// Identity holds the public key of a Pair together with the scheme it was
// generated under. The key lives in the encryption group: it is used both to
// encrypt shares addressed to this participant and to verify the signatures
// this participant puts on its decomposition proofs.
type Identity struct {
	Key    kyber.Point
	Scheme *crypto.Scheme
}

// Equal returns true if the cryptographic public key of i equals i2's
func (i *Identity) Equal(i2 *Identity) bool {
	return i.Key.Equal(i2.Key)
}

// Hash returns the hash of the public key under the scheme's identity hash.
func (i *Identity) Hash() []byte {
	h := i.Scheme.IdentityHash()
	buff, _ := i.Key.MarshalBinary()
	_, _ = h.Write(buff)
	return h.Sum(nil)
}

// NewKeyPair returns a freshly created private / public key pair under the
// given scheme.
func NewKeyPair(sch *crypto.Scheme) *Pair {
	key := sch.EncGroup.Scalar().Pick(random.New())
	pubKey := sch.EncGroup.Point().Mul(key, nil)
	pub := &Identity{
		Key:    pubKey,
		Scheme: sch,
	}
	return &Pair{
		Key:    key,
		Public: pub,
	}
}

// PairTOML is the TOML-able version of a private key
type PairTOML struct {
	Key        string
	SchemeName string
}

// PublicTOML is the TOML-able version of a public key
type PublicTOML struct {
	Key        string
	SchemeName string
}

// TOML returns a struct that can be marshaled using a TOML-encoding library
func (p *Pair) TOML() interface{} {
	return &PairTOML{
		Key:        ScalarToString(p.Key),
		SchemeName: p.Public.Scheme.Name,
	}
}

// FromTOML constructs the private key from an unmarshaled structure from TOML
func (p *Pair) FromTOML(i interface{}) error {
	ptoml, ok := i.(*PairTOML)
	if !ok {
		return errors.New("private can't decode toml from non PairTOML struct")
	}

	sch, err := crypto.GetSchemeByIDWithDefault(ptoml.SchemeName)
	if err != nil {
		return err
	}
	p.Key, err = StringToScalar(sch.EncGroup, ptoml.Key)
	if err != nil {
		return err
	}
	p.Public = &Identity{
		Key:    sch.EncGroup.Point().Mul(p.Key, nil),
		Scheme: sch,
	}
	return nil
}

// TOMLValue returns an empty TOML-compatible interface value
func (p *Pair) TOMLValue() interface{} {
	return &PairTOML{}
}

// TOML returns a TOML-compatible version of the public key
func (i *Identity) TOML() interface{} {
	return &PublicTOML{
		Key:        PointToString(i.Key),
		SchemeName: i.Scheme.Name,
	}
}

// FromTOML loads the identity from its TOML description
func (i *Identity) FromTOML(t interface{}) error {
	ptoml, ok := t.(*PublicTOML)
	if !ok {
		return errors.New("public can't decode from non PublicTOML struct")
	}
	sch, err := crypto.GetSchemeByIDWithDefault(ptoml.SchemeName)
	if err != nil {
		return err
	}
	i.Scheme = sch
	i.Key, err = StringToPoint(sch.EncGroup, ptoml.Key)
	if err != nil {
		return fmt.Errorf("identity: decoding public key: %w", err)
	}
	return nil
}

// TOMLValue returns a TOML-compatible interface value
func (i *Identity) TOMLValue() interface{} {
	return &PublicTOML{}
}

// ByKey sorts identities by the lexicographic order of their marshaled
// public keys.
type ByKey []*Identity

func (b ByKey) Len() int {
	return len(b)
}

func (b ByKey) Swap(i, j int) {
	(b)[i], (b)[j] = (b)[j], (b)[i]
}

func (b ByKey) Less(i, j int) bool {
	is, _ := (b)[i].Key.MarshalBinary()
	js, _ := (b)[j].Key.MarshalBinary()
	return bytes.Compare(is, js) < 0
}
