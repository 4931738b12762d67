// Package crypto bundles the pairing suites supported by the pvss module.
package crypto

import (
	"crypto/cipher"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/drand/kyber"
	bls "github.com/drand/kyber-bls12381"
	"github.com/drand/kyber/sign"
	"github.com/drand/kyber/sign/schnorr"
	"github.com/drand/kyber/util/random"
)

// Scheme represents the cryptographic schemes supported by the pvss module. It
// currently assumes the usage of pairings and it is important that EncGroup and
// CommGroup are two distinct source groups of the same pairing: encrypted
// shares and participant public keys live in EncGroup while polynomial
// commitments live in CommGroup.
//
// Note: Scheme is not meant to be marshaled directly. Instead use SchemeFromName.
type Scheme struct {
	// The name of the scheme
	Name string
	// EncGroup is the group in which encrypted shares and participant
	// public keys are expressed.
	EncGroup kyber.Group
	// CommGroup is the group in which polynomial commitments are expressed;
	// it must always be different from EncGroup.
	CommGroup kyber.Group
	// AuthScheme is the signature scheme participants use to sign the
	// digest of their decomposition proofs.
	AuthScheme sign.Scheme
	// the hash function used to fingerprint identities and transcripts
	IdentityHash func() hash.Hash `toml:"-"`
}

func (s *Scheme) String() string {
	if s != nil {
		return s.Name
	}
	return ""
}

type schnorrSuite struct {
	kyber.Group
}

func (s *schnorrSuite) RandomStream() cipher.Stream {
	return random.New()
}

// DefaultSchemeID is the default scheme ID.
const DefaultSchemeID = "pvss-bls12381-g1-enc"

// NewPVSSOnG1 instantiates a scheme of type "pvss-bls12381-g1-enc" where
// encrypted shares (and participant keys) are on G1, so 48 bytes each, and
// commitments are on G2, so 96 bytes each. Decomposition proofs are
// authenticated with a schnorr signature over the encryption group.
func NewPVSSOnG1() (cs *Scheme) {
	var Pairing = bls.NewBLS12381Suite()

	var EncGroup = Pairing.G1()
	var CommGroup = Pairing.G2()
	var AuthScheme = schnorr.NewScheme(&schnorrSuite{EncGroup})
	var IdentityHashFunc = func() hash.Hash { h, _ := blake2b.New256(nil); return h }

	return &Scheme{
		Name:         DefaultSchemeID,
		EncGroup:     EncGroup,
		CommGroup:    CommGroup,
		AuthScheme:   AuthScheme,
		IdentityHash: IdentityHashFunc,
	}
}

// SwappedSchemeID is the scheme id used to swap the two source groups.
const SwappedSchemeID = "pvss-bls12381-g2-enc"

// NewPVSSOnG2 instantiates a scheme of type "pvss-bls12381-g2-enc" with the
// two source groups swapped: encrypted shares on G2 and commitments on G1.
// Transcripts produced under this scheme have commitments half the size of the
// default scheme, at the price of larger encrypted shares.
func NewPVSSOnG2() (cs *Scheme) {
	var Pairing = bls.NewBLS12381Suite()

	var EncGroup = Pairing.G2()
	var CommGroup = Pairing.G1()
	var AuthScheme = schnorr.NewScheme(&schnorrSuite{EncGroup})
	var IdentityHashFunc = func() hash.Hash { h, _ := blake2b.New256(nil); return h }

	return &Scheme{
		Name:         SwappedSchemeID,
		EncGroup:     EncGroup,
		CommGroup:    CommGroup,
		AuthScheme:   AuthScheme,
		IdentityHash: IdentityHashFunc,
	}
}

// SchemeFromName returns the scheme associated with the given name, or an
// error if the name is unknown.
func SchemeFromName(schemeName string) (*Scheme, error) {
	switch schemeName {
	case DefaultSchemeID:
		return NewPVSSOnG1(), nil
	case SwappedSchemeID:
		return NewPVSSOnG2(), nil
	default:
		return nil, fmt.Errorf("invalid scheme name '%s'", schemeName)
	}
}

var schemeIDs = []string{DefaultSchemeID, SwappedSchemeID}

// ListSchemes will return a slice of valid scheme ids
func ListSchemes() []string {
	return schemeIDs
}

// GetSchemeByIDWithDefault allows the user to retrieve the scheme
// configuration looking by its ID. If the received ID is an empty string, it
// will return the default defined scheme.
func GetSchemeByIDWithDefault(id string) (*Scheme, error) {
	if id == "" {
		id = DefaultSchemeID
	}

	return SchemeFromName(id)
}
