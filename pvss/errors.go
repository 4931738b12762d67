package pvss

import (
	"errors"
	"fmt"
)

// Sentinel errors of the aggregation layer. Parameterised failures are
// reported through dedicated error types below that unwrap to one of these,
// so callers can match with errors.Is regardless of the carried detail.
var (
	// ErrEmptyVector is returned when aggregation is attempted on a core or
	// aggregate whose share vectors have zero length.
	ErrEmptyVector = errors.New("aggregation attempted on empty share vectors")
	// ErrLengthMismatch is the kind shared by all vector length mismatches.
	ErrLengthMismatch = errors.New("share vectors length mismatch")
	// ErrInsufficientIdentifiers is returned when fewer participant
	// identifiers are supplied than shares to aggregate.
	ErrInsufficientIdentifiers = errors.New("fewer participant identifiers than shares to aggregate")
	// ErrConfigMismatch is the kind carried by ConfigMismatchError.
	ErrConfigMismatch = errors.New("aggregates scoped to different configurations")
	// ErrDifferentCommitments is returned when two contributions for the
	// same participant id disagree on their decomposition commitment.
	ErrDifferentCommitments = errors.New("conflicting decomposition commitments for the same participant")
	// ErrProofInvalid is returned when a decomposition proof fails its own
	// verification.
	ErrProofInvalid = errors.New("decomposition proof does not verify")
	// ErrSignatureInvalid is returned when the signature over a proof
	// digest fails verification.
	ErrSignatureInvalid = errors.New("signature on decomposition proof does not verify")
	// ErrMissingProof is returned when a contribution carries no
	// decomposition proof where one is required.
	ErrMissingProof = errors.New("contribution is missing its decomposition proof")
)

// CommitmentsLengthError reports two operands whose commitment vectors
// differ in length.
type CommitmentsLengthError struct {
	Ours, Theirs int
}

func (e *CommitmentsLengthError) Error() string {
	return fmt.Sprintf("mismatched commitment vectors: %d vs %d", e.Ours, e.Theirs)
}

func (e *CommitmentsLengthError) Unwrap() error { return ErrLengthMismatch }

// EncryptionsLengthError reports two operands whose encryption vectors
// differ in length.
type EncryptionsLengthError struct {
	Ours, Theirs int
}

func (e *EncryptionsLengthError) Error() string {
	return fmt.Sprintf("mismatched encryption vectors: %d vs %d", e.Ours, e.Theirs)
}

func (e *EncryptionsLengthError) Unwrap() error { return ErrLengthMismatch }

// CoreLengthError reports a single operand whose commitment and encryption
// vectors differ in length.
type CoreLengthError struct {
	Comms, Encs int
}

func (e *CoreLengthError) Error() string {
	return fmt.Sprintf("mismatched commitments vs encryptions within one core: %d vs %d", e.Comms, e.Encs)
}

func (e *CoreLengthError) Unwrap() error { return ErrLengthMismatch }

// ConfigMismatchError reports an attempt to merge two aggregates scoped to
// different protocol configurations. It carries both configurations.
type ConfigMismatchError struct {
	Degree1, Degree2             int
	Participants1, Participants2 int
}

func (e *ConfigMismatchError) Error() string {
	return fmt.Sprintf("different configurations: degree %d vs %d, participants %d vs %d",
		e.Degree1, e.Degree2, e.Participants1, e.Participants2)
}

func (e *ConfigMismatchError) Unwrap() error { return ErrConfigMismatch }
