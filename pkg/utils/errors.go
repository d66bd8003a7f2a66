package utils

import (
	"errors"
	"fmt"
)

// Error categories of the diff pipeline. All of them abort the run; per-symbol
// decode anomalies are silent skips, not errors.
var (
	// Opening or reading an input binary failed
	ErrIO = errors.New("io error")
	// The input file does not parse as a recognized object format
	ErrFormat = errors.New("unrecognized object format")
	// The object parsed but describes an architecture the pipeline declines
	ErrUnsupported = errors.New("unsupported architecture")
	// Writing a JSON or HTML report failed
	ErrReport = errors.New("report error")
)

func MakeError(err error, detailsBody string, args ...any) error {
	return fmt.Errorf("%w: "+detailsBody, append([]any{err}, args...)...)
}
