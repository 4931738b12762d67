package key

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optrand/pvss/crypto"
)

func TestKeyPairTOML(t *testing.T) {
	sch := crypto.NewPVSSOnG1()
	p := NewKeyPair(sch)

	loaded := new(Pair)
	require.NoError(t, loaded.FromTOML(p.TOML()))

	require.True(t, loaded.Key.Equal(p.Key))
	require.True(t, loaded.Public.Equal(p.Public))
	require.Equal(t, sch.Name, loaded.Public.Scheme.Name)
}

func TestIdentityTOML(t *testing.T) {
	sch := crypto.NewPVSSOnG1()
	p := NewKeyPair(sch)

	loaded := new(Identity)
	require.NoError(t, loaded.FromTOML(p.Public.TOML()))
	require.True(t, loaded.Equal(p.Public))
}

func TestIdentityTOMLBogus(t *testing.T) {
	loaded := new(Identity)
	require.Error(t, loaded.FromTOML(&PublicTOML{Key: "deadbeef", SchemeName: "no-such-scheme"}))
	require.Error(t, loaded.FromTOML(&PublicTOML{Key: "not hex", SchemeName: crypto.DefaultSchemeID}))
}

func TestIdentityHashDistinct(t *testing.T) {
	sch := crypto.NewPVSSOnG1()
	i1 := NewKeyPair(sch).Public
	i2 := NewKeyPair(sch).Public

	require.NotEqual(t, i1.Hash(), i2.Hash())
	require.Equal(t, i1.Hash(), i1.Hash())
}
