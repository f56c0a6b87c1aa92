package sandbox

import "errors"

// The four failure modes a sandbox evaluation can end in. Callers map
// these onto tutorerr.Kind at the package boundary (see Eval/Run in
// sandbox.go) rather than this package depending on tutorerr directly.
var (
	errSyntaxRejected = errors.New("sandbox: syntax rejected")
	errNameUnbound    = errors.New("sandbox: name unbound")
	errDomainError    = errors.New("sandbox: domain error")
	errTimeout        = errors.New("sandbox: timeout")
)
