// Package varcallerrors implements the Section 7 error taxonomy: a small
// set of typed, wrapped errors distinguishing fatal startup misconfiguration
// from per-region and per-read failures the pipeline can isolate and
// continue past. Modeled on the narrow, file-scoped error helpers
// encoding/fasta and encoding/pam build on top of github.com/pkg/errors,
// rather than a generic grab-bag error package.
package varcallerrors

import "github.com/pkg/errors"

// Kind classifies an error by its place in the Section 7 taxonomy.
type Kind int

const (
	// ConfigError: contradictory or missing options. Fatal at startup.
	ConfigError Kind = iota
	// InputError: unreadable or malformed reference/alignment/region file.
	InputError
	// RegionError: unparseable region string or out-of-bounds region.
	RegionError
	// DataError: per-read malformation (bad CIGAR, negative position).
	DataError
	// NumericError: underflow in log-sum-exp or a non-finite likelihood.
	NumericError
	// OverflowError: haplotype count exceeded max_haplotypes even after
	// holdout retries.
	OverflowError
	// TransientError: an I/O timeout eligible for retry.
	TransientError
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "config"
	case InputError:
		return "input"
	case RegionError:
		return "region"
	case DataError:
		return "data"
	case NumericError:
		return "numeric"
	case OverflowError:
		return "overflow"
	case TransientError:
		return "transient"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind, letting callers upstream
// switch on classification via As/Kind without string matching.
type Error struct {
	Kind    Kind
	cause   error
	Region  string // optional, e.g. for RegionError/OverflowError annotations
}

func (e *Error) Error() string {
	if e.Region != "" {
		return e.Kind.String() + " error at " + e.Region + ": " + e.cause.Error()
	}
	return e.Kind.String() + " error: " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given Kind from a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}

// Wrap annotates err with a Kind, preserving it as the error's cause chain.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, cause: errors.Wrap(err, message)}
}

// WithRegion attaches a region string (e.g. "chr1:100-200") to the error,
// for OverflowError/RegionError annotations surfaced on output records.
func (e *Error) WithRegion(region string) *Error {
	e.Region = region
	return e
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Fatal reports whether errors of this Kind should abort the whole pipeline
// (ConfigError, InputError) as opposed to being isolated to one region or
// read (RegionError, DataError, NumericError, OverflowError, TransientError).
func (k Kind) Fatal() bool {
	return k == ConfigError || k == InputError
}
