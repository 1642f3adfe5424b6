package env

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAction means Step received an action outside the action space
	ErrInvalidAction = errors.New("action not in action space")
	// ErrInvalidRenderMode means the env was built with an unsupported render mode
	ErrInvalidRenderMode = errors.New("invalid render mode")
	// ErrResetNeeded means Step or Render was called before the first Reset
	ErrResetNeeded = errors.New("reset must be called before step or render")
	// ErrClosed means the env was used after Close
	ErrClosed = errors.New("environment is closed")
	// ErrIncompatibleSpace means a wrapper cannot handle the inner env's space
	ErrIncompatibleSpace = errors.New("incompatible space")
	// ErrInvalidOption means a reset option has the wrong type or value
	ErrInvalidOption = errors.New("invalid reset option")
)

// ContractViolation is the panic value for misuse of the env contract.
type ContractViolation struct {
	Op     string
	Err    error
	Detail string
}

func (v *ContractViolation) Error() string {
	if v.Detail == "" {
		return fmt.Sprintf("env %s: %v", v.Op, v.Err)
	}
	return fmt.Sprintf("env %s: %v: %s", v.Op, v.Err, v.Detail)
}

func (v *ContractViolation) Unwrap() error {
	return v.Err
}

// Violate panics with a ContractViolation.
func Violate(op string, err error, format string, args ...any) {
	panic(&ContractViolation{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)})
}

// Recover converts a ContractViolation panic into an error stored in
// *errp. Any other panic continues unwinding. Use it directly in a
// defer statement:
//
//	defer env.Recover(&err)
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if v, ok := r.(*ContractViolation); ok {
		*errp = v
		return
	}
	panic(r)
}

// Catch runs fn and returns the contract violation it raised, if any.
func Catch(fn func()) (err error) {
	defer Recover(&err)
	fn()
	return nil
}
