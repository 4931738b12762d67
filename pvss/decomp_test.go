package pvss

import (
	"bytes"
	"testing"

	"github.com/drand/kyber/util/random"
	"github.com/stretchr/testify/require"

	"github.com/optrand/pvss/crypto"
)

func testConfig(t *testing.T, sch *crypto.Scheme, degree, n int) *Config {
	t.Helper()
	cfg, err := NewConfig(sch, NewSRS(sch, random.New()), degree, n)
	require.NoError(t, err)
	return cfg
}

func TestDecompProofRoundTrip(t *testing.T) {
	sch := crypto.NewPVSSOnG1()
	cfg := testConfig(t, sch, 3, 10)
	stream := random.New()

	secret := sch.CommGroup.Scalar().Pick(stream)
	proof, err := GenerateDecompProof(stream, cfg, secret)
	require.NoError(t, err)
	require.NoError(t, proof.Verify(cfg))

	// the commitment matches the claimed secret
	require.True(t, proof.GS.Equal(sch.CommGroup.Point().Mul(secret, cfg.SRS.G2)))
}

func TestDecompProofTampered(t *testing.T) {
	sch := crypto.NewPVSSOnG1()
	cfg := testConfig(t, sch, 3, 10)
	stream := random.New()

	proof, err := GenerateDecompProof(stream, cfg, sch.CommGroup.Scalar().Pick(stream))
	require.NoError(t, err)

	tampered := proof.Clone()
	tampered.GS = sch.CommGroup.Point().Pick(stream)
	require.ErrorIs(t, tampered.Verify(cfg), ErrProofInvalid)

	tampered = proof.Clone()
	tampered.Response = sch.CommGroup.Scalar().Pick(stream)
	require.ErrorIs(t, tampered.Verify(cfg), ErrProofInvalid)

	// a proof generated under one configuration does not verify under another
	otherCfg := testConfig(t, sch, 3, 11)
	require.ErrorIs(t, proof.Verify(otherCfg), ErrProofInvalid)
}

func TestDecompProofMissing(t *testing.T) {
	sch := crypto.NewPVSSOnG1()
	cfg := testConfig(t, sch, 3, 10)

	var nilProof *DecompProof
	require.ErrorIs(t, nilProof.Verify(cfg), ErrMissingProof)

	incomplete := &DecompProof{GS: sch.CommGroup.Point().Null()}
	require.ErrorIs(t, incomplete.Verify(cfg), ErrMissingProof)

	_, err := MessageFromProof(incomplete)
	require.ErrorIs(t, err, ErrMissingProof)
}

func TestMessageFromProofDeterministic(t *testing.T) {
	sch := crypto.NewPVSSOnG1()
	cfg := testConfig(t, sch, 3, 10)
	stream := random.New()

	proof, err := GenerateDecompProof(stream, cfg, sch.CommGroup.Scalar().Pick(stream))
	require.NoError(t, err)

	msg1, err := MessageFromProof(proof)
	require.NoError(t, err)
	msg2, err := MessageFromProof(proof.Clone())
	require.NoError(t, err)
	require.Equal(t, msg1, msg2)

	decoded, err := UnmarshalDecompProofFrom(sch, bytes.NewReader(msg1))
	require.NoError(t, err)
	require.True(t, proof.Equal(decoded))

	// the canonical bytes survive the round trip
	msg3, err := MessageFromProof(decoded)
	require.NoError(t, err)
	require.Equal(t, msg1, msg3)
}
