// Package gsfcompare implements the grain and sequence comparator: a
// diff tree over a grain's full attribute set, with options to
// include/exclude attributes, assert an expected numeric/timestamp
// difference, or substitute a PSNR threshold check for a raw data
// comparison.
//
// The reference comparator builds its options by overloading Python's
// comparison operators on sentinel objects (ExpectedDifference.foo ==
// 4). Go has no operator overloading, so this package exposes the
// same four option kinds as ordinary constructor functions instead:
// Include, Exclude, ExpectedDifference(path, op, value) and
// PSNR(path, op, thresholds). Equivalent expressiveness, no operator
// gymnastics.
package gsfcompare

import "fmt"

// Op is a comparison operator applied to a computed difference or PSNR value.
type Op int

const (
	OpEQ Op = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

func (op Op) String() string {
	switch op {
	case OpEQ:
		return "=="
	case OpNE:
		return "!="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

func (op Op) evalInt64(diff, value int64) bool {
	switch op {
	case OpEQ:
		return diff == value
	case OpNE:
		return diff != value
	case OpLT:
		return diff < value
	case OpLE:
		return diff <= value
	case OpGT:
		return diff > value
	case OpGE:
		return diff >= value
	default:
		return false
	}
}

func (op Op) evalFloat64(got, threshold float64) bool {
	switch op {
	case OpEQ:
		return got == threshold
	case OpNE:
		return got != threshold
	case OpLT:
		return got < threshold
	case OpLE:
		return got <= threshold
	case OpGT:
		return got > threshold
	case OpGE:
		return got >= threshold
	default:
		return false
	}
}

type expectedDifference struct {
	op    Op
	value int64
}

type psnrRule struct {
	op         Op
	thresholds []float64
}

// Options is the resolved set of options applying to one comparison.
// Built by applying Option functions over a zero value; never
// constructed directly by callers. Include and Exclude write to
// separate sets, rather than one overwriting the other, so that
// Exclude wins regardless of the order the options were passed in.
type Options struct {
	included map[string]bool
	excluded map[string]bool
	expect   map[string]expectedDifference
	psnr     map[string]psnrRule
}

func newOptions(opts ...Option) *Options {
	o := &Options{
		included: map[string]bool{},
		excluded: map[string]bool{},
		expect:   map[string]expectedDifference{},
		psnr:     map[string]psnrRule{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Option configures a CompareGrain or CompareSequences call.
type Option func(*Options)

// Include marks path as included in the verdict, overriding the
// default exclusion of creation_timestamp. Has no effect on any other
// path, which is included by default.
func Include(path string) Option {
	return func(o *Options) { o.included[path] = true }
}

// Exclude marks path as excluded from the verdict; it is still
// rendered in the diff tree as an informational node. If both Include
// and Exclude are given for the same path, Exclude wins, regardless of
// which option was passed first.
func Exclude(path string) Option {
	return func(o *Options) { o.excluded[path] = true }
}

// CompareOnlyMetadata is sugar for Exclude("data").
func CompareOnlyMetadata() Option {
	return Exclude("data")
}

// ExpectedDifference asserts that a.path - b.path, as a signed
// nanosecond offset, satisfies op against value. Only timestamp paths
// (origin_timestamp, sync_timestamp, creation_timestamp) honour it; on
// any other path the option has no effect. Satisfaction counts as a
// match; failure renders the node Mismatch with the computed
// difference in the reason.
func ExpectedDifference(path string, op Op, value int64) Option {
	return func(o *Options) { o.expect[path] = expectedDifference{op: op, value: value} }
}

// PSNR substitutes a peak-signal-to-noise-ratio check for a raw byte
// comparison of path's data region. Applicable only to the data path
// of Video and Audio grains. op of OpLT means "fail if any
// component/channel's PSNR is not below the corresponding threshold".
// Grains with mismatched formats fail before the PSNR kernel runs.
func PSNR(path string, op Op, thresholds []float64) Option {
	return func(o *Options) { o.psnr[path] = psnrRule{op: op, thresholds: thresholds} }
}

// isExcluded reports whether path should be excluded from the verdict.
// Exclude always wins over Include for the same path, independent of
// the order the two options were supplied in, since they are recorded
// in separate sets rather than one overwriting the other.
func (o *Options) isExcluded(path string) bool {
	if o.excluded[path] {
		return true
	}
	if o.included[path] {
		return false
	}
	return path == "creation_timestamp"
}

func (o *Options) expectedDifference(path string) (expectedDifference, bool) {
	e, ok := o.expect[path]
	return e, ok
}

func (o *Options) psnrRule(path string) (psnrRule, bool) {
	p, ok := o.psnr[path]
	return p, ok
}
