package gate

import (
	"errors"
	"fmt"
)

// ErrInvalidLicense is matched by every refused verification.
var ErrInvalidLicense = errors.New("invalid license")

// Reason explains why a verification was refused.
type Reason string

const (
	// ReasonMalformed means the machine identifier did not parse, so the
	// derived code was the ERROR sentinel.
	ReasonMalformed Reason = "MALFORMED_MACHINE_ID"

	// ReasonMismatch means the supplied code differs from the derived one.
	ReasonMismatch Reason = "CODE_MISMATCH"
)

// VerifyError describes a refused verification.
type VerifyError struct {
	MachineID string
	Reason    Reason
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s: %s (machine_id=%q)", ErrInvalidLicense, e.Reason, e.MachineID)
}

// Is makes errors.Is(err, ErrInvalidLicense) hold.
func (e *VerifyError) Is(target error) bool {
	return target == ErrInvalidLicense
}

// IsMalformed reports whether err is a refusal caused by a malformed identifier.
func IsMalformed(err error) bool {
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Reason == ReasonMalformed
	}
	return false
}
