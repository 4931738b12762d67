// Package pvss implements the share and transcript data model of a publicly
// verifiable secret sharing protocol together with its aggregation
// algorithm. Aggregation is pointwise group addition over the two source
// groups of a pairing, so folding shares is commutative and associative and
// partial transcripts collected by independent relays can be merged in any
// order.
package pvss

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	kyber "github.com/drand/kyber"

	"github.com/optrand/pvss/crypto"
)

// Index is the dense identifier of a participant in [0, n). It matches
// key.Index: identifiers are positions inside the sorted roster.
type Index = uint32

// SRS is the structured reference string of a PVSS run: one independently
// sampled generator per source group. G1 generates the encryption group and
// G2 the commitment group.
type SRS struct {
	G1 kyber.Point
	G2 kyber.Point
}

// NewSRS samples a fresh pair of generators from the given randomness
// stream.
func NewSRS(sch *crypto.Scheme, stream cipher.Stream) *SRS {
	return &SRS{
		G1: sch.EncGroup.Point().Pick(stream),
		G2: sch.CommGroup.Point().Pick(stream),
	}
}

// Config carries the shared parameters every dealer and aggregator of a run
// must agree on. It is treated as already validated by the setup phase.
type Config struct {
	Scheme *crypto.Scheme
	SRS    *SRS
	// Degree of the secret polynomials (t).
	Degree int
	// NumParticipants is the number of participant slots (n).
	NumParticipants int
}

// NewConfig validates the threshold parameters and returns a config.
func NewConfig(sch *crypto.Scheme, srs *SRS, degree, numParticipants int) (*Config, error) {
	if degree < 1 || degree >= numParticipants {
		return nil, fmt.Errorf("degree %d out of range for %d participants", degree, numParticipants)
	}
	return &Config{
		Scheme:          sch,
		SRS:             srs,
		Degree:          degree,
		NumParticipants: numParticipants,
	}, nil
}

// Hash provides a compact hash of the configuration, binding the scheme
// name, both generators and the threshold parameters.
func (c *Config) Hash() []byte {
	h := c.Scheme.IdentityHash()
	_, _ = h.Write([]byte(c.Scheme.Name))
	buff, _ := c.SRS.G1.MarshalBinary()
	_, _ = h.Write(buff)
	buff, _ = c.SRS.G2.MarshalBinary()
	_, _ = h.Write(buff)
	_ = binary.Write(h, binary.LittleEndian, uint32(c.Degree))
	_ = binary.Write(h, binary.LittleEndian, uint32(c.NumParticipants))
	return h.Sum(nil)
}
