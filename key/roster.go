package key

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	kyber "github.com/drand/kyber"

	"github.com/optrand/pvss/crypto"
)

// Index is the dense identifier of a participant inside a roster. Identifiers
// are assigned by position once the roster is sorted by public key.
type Index = uint32

// Node is an identity bundled with its index inside the roster.
type Node struct {
	*Identity
	Index Index
}

// Hash returns the hash of the index and public key of this node.
func (n *Node) Hash() []byte {
	h := n.Scheme.IdentityHash()
	_ = binary.Write(h, binary.LittleEndian, n.Index)
	buff, _ := n.Key.MarshalBinary()
	_, _ = h.Write(buff)
	return h.Sum(nil)
}

// Equal returns true if both nodes have the same index and public key.
func (n *Node) Equal(n2 *Node) bool {
	return n.Index == n2.Index && n.Identity.Equal(n2.Identity)
}

// Roster holds all information about the set of participants of a PVSS run:
// their public keys, their indices and the reconstruction degree.
type Roster struct {
	// Degree of the secret polynomials; degree+1 valid decrypted shares are
	// needed to reconstruct a secret shared under this roster.
	Degree int
	// List of nodes forming this roster, sorted by public key.
	Nodes []*Node
}

// NewRoster maps every identity to a Node whose index is its position in the
// list once sorted by public key.
func NewRoster(list []*Identity, degree int) *Roster {
	return &Roster{
		Nodes:  copyAndSort(list),
		Degree: degree,
	}
}

func copyAndSort(list []*Identity) []*Node {
	nl := make([]*Identity, len(list))
	copy(nl, list)
	sort.Sort(ByKey(nl))
	nodes := make([]*Node, len(list))
	for i := 0; i < len(list); i++ {
		nodes[i] = &Node{
			Identity: nl[i],
			Index:    Index(i),
		}
	}
	return nodes
}

// Find returns the node that carries the given identity (without the index).
// If the node is not found, Find returns nil.
func (r *Roster) Find(pub *Identity) *Node {
	for _, n := range r.Nodes {
		if n.Identity.Equal(pub) {
			return n
		}
	}
	return nil
}

// Node returns the node at the given index if it exists in the roster. If it
// does not, Node() returns nil.
func (r *Roster) Node(i Index) *Node {
	for _, n := range r.Nodes {
		if n.Index == i {
			return n
		}
	}
	return nil
}

// Points returns the roster under the form of a list of kyber.Point indexed
// by participant id. This is the shape consumed by the dealer and the
// aggregator.
func (r *Roster) Points() []kyber.Point {
	pts := make([]kyber.Point, r.Len())
	for i, n := range r.Nodes {
		pts[i] = n.Key
	}
	return pts
}

// Len returns the number of participants in the roster
func (r *Roster) Len() int {
	return len(r.Nodes)
}

// Scheme returns the scheme all roster identities were generated under.
func (r *Roster) Scheme() *crypto.Scheme {
	if r.Len() == 0 {
		return nil
	}
	return r.Nodes[0].Scheme
}

// Hash provides a compact hash of a roster
func (r *Roster) Hash() []byte {
	h := r.Scheme().IdentityHash()
	sort.Slice(r.Nodes, func(i, j int) bool {
		return r.Nodes[i].Index < r.Nodes[j].Index
	})
	for _, n := range r.Nodes {
		_, _ = h.Write(n.Hash())
	}
	_ = binary.Write(h, binary.LittleEndian, uint32(r.Degree))
	return h.Sum(nil)
}

// Equal indicates if two rosters are equal
func (r *Roster) Equal(r2 *Roster) bool {
	if r.Degree != r2.Degree {
		return false
	}
	if r.Len() != r2.Len() {
		return false
	}
	for i := 0; i < r.Len(); i++ {
		if !r.Nodes[i].Equal(r2.Nodes[i]) {
			return false
		}
	}
	return true
}

func (r *Roster) String() string {
	var b bytes.Buffer
	_ = toml.NewEncoder(&b).Encode(r.TOML())
	return b.String()
}

// NodeTOML is the TOML representation of a node
type NodeTOML struct {
	Public *PublicTOML
	Index  Index
}

// RosterTOML is the TOML representation of a roster
type RosterTOML struct {
	Degree int
	Nodes  []*NodeTOML
}

// TOML returns a TOML-encodable version of the node
func (n *Node) TOML() interface{} {
	return &NodeTOML{
		Public: n.Identity.TOML().(*PublicTOML),
		Index:  n.Index,
	}
}

// FromTOML decodes the node from the toml struct
func (n *Node) FromTOML(i interface{}) error {
	nt, ok := i.(*NodeTOML)
	if !ok {
		return errors.New("node can't decode from non NodeTOML struct")
	}
	n.Index = nt.Index
	n.Identity = new(Identity)
	return n.Identity.FromTOML(nt.Public)
}

// TOMLValue returns an empty TOML-compatible value of the node
func (n *Node) TOMLValue() interface{} {
	return &NodeTOML{}
}

// TOML returns a TOML-encodable version of the roster
func (r *Roster) TOML() interface{} {
	rt := &RosterTOML{
		Degree: r.Degree,
	}
	rt.Nodes = make([]*NodeTOML, r.Len())
	for i, n := range r.Nodes {
		rt.Nodes[i] = n.TOML().(*NodeTOML)
	}
	return rt
}

// FromTOML decodes the roster from the toml struct
func (r *Roster) FromTOML(i interface{}) (err error) {
	rt, ok := i.(*RosterTOML)
	if !ok {
		return errors.New("roster can't decode from non RosterTOML struct")
	}
	r.Degree = rt.Degree
	r.Nodes = make([]*Node, len(rt.Nodes))
	for i, nt := range rt.Nodes {
		r.Nodes[i] = new(Node)
		if err := r.Nodes[i].FromTOML(nt); err != nil {
			return fmt.Errorf("roster: unwrapping node[%d]: %w", i, err)
		}
	}
	if r.Degree < 1 || r.Degree >= r.Len() {
		return fmt.Errorf("roster file has degree %d out of range for %d nodes", r.Degree, r.Len())
	}
	return nil
}

// TOMLValue returns an empty TOML-compatible value of the roster
func (r *Roster) TOMLValue() interface{} {
	return &RosterTOML{}
}

// MinimumT calculates the smallest threshold of decrypted shares that is
// sufficient to reconstruct a secret among n participants.
func MinimumT(n int) int {
	return (n >> 1) + 1
}
