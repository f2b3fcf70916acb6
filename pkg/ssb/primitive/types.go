package primitive

// Rational is an unsigned (numerator, denominator) pair. Either side
// being 0 is a null/invalid signal to consumers; the codec preserves
// whatever literal values are on the wire.
type Rational struct {
	Numerator   uint32
	Denominator uint32
}

// IsNull reports whether either side of the rational is zero.
func (r Rational) IsNull() bool {
	return r.Numerator == 0 || r.Denominator == 0
}

// Timestamp is a signed nanosecond timestamp: a sign bit (true means
// positive), 6 octets of unsigned seconds, and 4 octets of unsigned
// nanoseconds. A zero-magnitude timestamp is canonically positive.
type Timestamp struct {
	Positive    bool
	Seconds     uint64 // 48-bit range on the wire.
	Nanoseconds uint32
}

// Compare returns -1, 0 or 1 as ts is less than, equal to, or greater
// than other, treating the timestamp as a signed quantity.
func (ts Timestamp) Compare(other Timestamp) int {
	a, b := ts.signedNanos(), other.signedNanos()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// signedNanos renders the timestamp as signed total nanoseconds. This
// overflows for timestamps far from the epoch; Compare and Sub are
// exact for any difference that itself fits in an int64, which covers
// every difference the comparator's ExpectedDifference option needs.
func (ts Timestamp) signedNanos() int64 {
	mag := int64(ts.Seconds)*1e9 + int64(ts.Nanoseconds)
	if ts.Positive {
		return mag
	}
	return -mag
}

// Sub returns ts-other in nanoseconds.
func (ts Timestamp) Sub(other Timestamp) int64 {
	return ts.signedNanos() - other.signedNanos()
}

// Timecode is the 13-octet timecode half of a TimeLabel: a frame count
// since midnight, the frame rate it was counted at, and a drop-frame flag.
type Timecode struct {
	FramesSinceMidnight uint32
	FrameRate           Rational
	DropFrame           bool
}

// TimeLabel pairs a 16-octet tag with a Timecode.
type TimeLabel struct {
	Tag      string
	Timecode Timecode
}

// DateTime is the 7-octet wall-clock date-time used by GSF v8 file headers:
// a signed 2-octet year and five unsigned 1-octet fields.
type DateTime struct {
	Year   int16
	Month  uint8
	Day    uint8
	Hour   uint8
	Minute uint8
	Second uint8
}

// IPPTimestamp is the legacy 10-octet unsigned timestamp (6-octet
// seconds + 4-octet nanoseconds, no sign octet) used by GSF v7 file
// headers, recognized only when reading v7 files.
type IPPTimestamp struct {
	Seconds     uint64
	Nanoseconds uint32
}

// InvalidString preserves the raw octets of a string that failed UTF-8
// validation, rather than silently substituting U+FFFD or failing the
// decode outright (see the malformed-UTF-8 open question).
type InvalidString struct {
	raw   []byte
	valid bool
	str   string
}

// Valid reports whether the string decoded as valid UTF-8.
func (s InvalidString) Valid() bool {
	return s.valid
}

// String returns the decoded string when Valid, and the empty string otherwise.
func (s InvalidString) String() string {
	if s.valid {
		return s.str
	}
	return ""
}

// Bytes returns the raw octets as read from the wire.
func (s InvalidString) Bytes() []byte {
	return s.raw
}

// NewValidString builds an InvalidString from a Go string known to be
// valid UTF-8 — the common case when a caller constructs a tag or
// label value directly rather than decoding one off the wire.
func NewValidString(s string) InvalidString {
	return InvalidString{raw: []byte(s), valid: true, str: s}
}
