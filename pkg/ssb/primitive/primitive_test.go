package primitive

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUintRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		n    int
		v    uint64
		want []byte
	}{
		{"one octet", 1, 0xAB, []byte{0xAB}},
		{"two octets", 2, 0x1234, []byte{0x34, 0x12}},
		{"four octets", 4, 0xAABBCCDD, []byte{0xDD, 0xCC, 0xBB, 0xAA}},
		{"eight octets", 8, 0x0102030405060708, []byte{8, 7, 6, 5, 4, 3, 2, 1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			w := NewWriter(buf)
			w.TryWriteUint(c.n, c.v)
			require.NoError(t, w.Err())
			require.Equal(t, c.want, buf.Bytes())

			got, err := NewReader(bytes.NewReader(c.want)).ReadUint(c.n)
			require.NoError(t, err)
			require.Equal(t, c.v, got)
		})
	}
}

func TestSintNegative(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteSint(4, -1)
	require.NoError(t, w.Err())
	require.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, buf.Bytes())

	got, err := NewReader(bytes.NewReader(buf.Bytes())).ReadSint(4)
	require.NoError(t, err)
	require.Equal(t, int64(-1), got)
}

func TestBool(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteBool(true)
	w.TryWriteBool(false)
	require.NoError(t, w.Err())
	require.Equal(t, []byte{1, 0}, buf.Bytes())

	r := NewReader(bytes.NewReader(buf.Bytes()))
	v1, err := r.ReadBool()
	require.NoError(t, err)
	require.True(t, v1)
	v2, err := r.ReadBool()
	require.NoError(t, err)
	require.False(t, v2)
}

func TestUUIDRoundTrip(t *testing.T) {
	id := uuid.MustParse("00112233-4455-6677-8899-aabbccddeeff")

	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteUUID(id)
	require.NoError(t, w.Err())
	require.Equal(t, []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
		0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
	}, buf.Bytes())

	got, err := NewReader(bytes.NewReader(buf.Bytes())).ReadUUID()
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestRational(t *testing.T) {
	r := Rational{Numerator: 25, Denominator: 1}
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteRational(r)
	require.NoError(t, w.Err())
	require.Equal(t, []byte{25, 0, 0, 0, 1, 0, 0, 0}, buf.Bytes())

	got, err := NewReader(bytes.NewReader(buf.Bytes())).ReadRational()
	require.NoError(t, err)
	require.Equal(t, r, got)
	require.False(t, got.IsNull())
	require.True(t, Rational{}.IsNull())
}

func TestTimestampZeroIsCanonicallyPositive(t *testing.T) {
	ts := Timestamp{Positive: true, Seconds: 0, Nanoseconds: 0}
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteTimestamp(ts)
	require.NoError(t, w.Err())
	require.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, buf.Bytes())
}

func TestTimestampOutOfRangeNanoseconds(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteTimestamp(Timestamp{Positive: true, Seconds: 0, Nanoseconds: 1e9})
	require.Error(t, w.Err())

	raw := []byte{1, 0, 0, 0, 0, 0, 0, 0x00, 0xCA, 0x9A, 0x3B} // nanoseconds = 1_000_000_000 LE.
	_, err := NewReader(bytes.NewReader(raw)).ReadTimestamp()
	require.Error(t, err)
}

func TestTimestampSubAndCompare(t *testing.T) {
	a := Timestamp{Positive: true, Seconds: 10, Nanoseconds: 500_000_000}
	b := Timestamp{Positive: true, Seconds: 10, Nanoseconds: 460_000_000}
	require.Equal(t, int64(40_000_000), a.Sub(b))
	require.Equal(t, 1, a.Compare(b))
	require.Equal(t, -1, b.Compare(a))
	require.Equal(t, 0, a.Compare(a))
}

func TestTimeLabelRoundTrip(t *testing.T) {
	tl := TimeLabel{
		Tag: "LTC",
		Timecode: Timecode{
			FramesSinceMidnight: 1080000,
			FrameRate:           Rational{Numerator: 25, Denominator: 1},
			DropFrame:           false,
		},
	}
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteTimeLabel(tl)
	require.NoError(t, w.Err())
	require.Len(t, buf.Bytes(), 29)

	got, err := NewReader(bytes.NewReader(buf.Bytes())).ReadTimeLabel()
	require.NoError(t, err)
	require.Equal(t, tl, got)
}

func TestDateTimeRoundTrip(t *testing.T) {
	dt := DateTime{Year: 2018, Month: 5, Day: 15, Hour: 12, Minute: 0, Second: 1}
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteDateTime(dt)
	require.NoError(t, w.Err())
	require.Len(t, buf.Bytes(), 7)

	got, err := NewReader(bytes.NewReader(buf.Bytes())).ReadDateTime()
	require.NoError(t, err)
	require.Equal(t, dt, got)
}

func TestFixedStringPadsAndTrims(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteFixedString("hi", 5)
	require.NoError(t, w.Err())
	require.Equal(t, []byte{'h', 'i', 0, 0, 0}, buf.Bytes())

	got, err := NewReader(bytes.NewReader(buf.Bytes())).ReadFixedString(5)
	require.NoError(t, err)
	require.True(t, got.Valid())
	require.Equal(t, "hi", got.String())
}

func TestFixedStringTooLong(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteFixedString("too long", 3)
	require.Error(t, w.Err())
}

func TestVarStringRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteVarString("hello")
	require.NoError(t, w.Err())
	require.Equal(t, []byte{5, 0, 'h', 'e', 'l', 'l', 'o'}, buf.Bytes())

	got, err := NewReader(bytes.NewReader(buf.Bytes())).ReadVarString()
	require.NoError(t, err)
	require.Equal(t, "hello", got.String())
}

func TestVarStringTooLong(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteVarString(string(make([]byte, 65536)))
	require.Error(t, w.Err())
}

func TestInvalidUTF8Preserved(t *testing.T) {
	raw := []byte{2, 0, 0xFF, 0xFE}
	got, err := NewReader(bytes.NewReader(raw)).ReadVarString()
	require.NoError(t, err)
	require.False(t, got.Valid())
	require.Equal(t, []byte{0xFF, 0xFE}, got.Bytes())
	require.Equal(t, "", got.String())
}

func TestVarBytesRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteVarBytes([]byte{1, 2, 3})
	require.NoError(t, w.Err())
	require.Equal(t, []byte{3, 0, 0, 0, 1, 2, 3}, buf.Bytes())

	got, err := NewReader(bytes.NewReader(buf.Bytes())).ReadVarBytes()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)
}

func TestShortReadIsTruncatedInput(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{1, 2})).ReadUint(4)
	require.Error(t, err)
}

func TestStickyWriterErrorShortCircuits(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	w.TryWriteFixedString("too long for slot", 3)
	require.Error(t, w.Err())

	w.TryWriteUint(4, 123) // Must be a no-op: error already set.
	require.Empty(t, buf.Bytes())
}
