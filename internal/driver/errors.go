package driver

import "errors"

// Sentinel errors, wrapped by ParseAttack, Validate and Run, for errors.Is
// checks by callers.
var (
	ErrInvalidAttack   = errors.New("driver: invalid attack kind")
	ErrFlagConflict    = errors.New("driver: mutually exclusive or incomplete flag combination")
	ErrParameterRange  = errors.New("driver: parameter out of range")
	ErrMinimizerFailed = errors.New("driver: external logic minimizer failed")
)
