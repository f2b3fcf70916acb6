package grain

import "fmt"

// CogFrameFormat identifies a video grain's pixel format. The named
// constants below are the formats exercised by this codec's own tests
// and by the wrap_video_in_gsf tool; the wire format is simply a raw
// u32, so a reader/writer pair agrees regardless of which names a
// particular build knows about, and any value not in this set
// round-trips as its raw u32 rather than being rejected (String
// renders it as "UNKNOWN(n)").
type CogFrameFormat uint32

// Named CogFrameFormat values.
const (
	FrameFormatUnknown CogFrameFormat = 0
	FrameFormatU8_444  CogFrameFormat = 0x200
	FrameFormatU8_422  CogFrameFormat = 0x201
	FrameFormatU8_420  CogFrameFormat = 0x202
	FrameFormatS16_444 CogFrameFormat = 0x300
	FrameFormatS16_422 CogFrameFormat = 0x301
	FrameFormatS16_420 CogFrameFormat = 0x302
	FrameFormatYUYV    CogFrameFormat = 0x400
	FrameFormatUYVY    CogFrameFormat = 0x401
	FrameFormatRGB     CogFrameFormat = 0x500
	FrameFormatRGBA    CogFrameFormat = 0x501
	FrameFormatv210    CogFrameFormat = 0x600
	FrameFormatMJPEG   CogFrameFormat = 0x700
	FrameFormatH264    CogFrameFormat = 0x701
	FrameFormatVC2     CogFrameFormat = 0x702
)

var cogFrameFormatNames = map[CogFrameFormat]string{
	FrameFormatUnknown: "UNKNOWN",
	FrameFormatU8_444:  "U8_444",
	FrameFormatU8_422:  "U8_422",
	FrameFormatU8_420:  "U8_420",
	FrameFormatS16_444: "S16_444",
	FrameFormatS16_422: "S16_422",
	FrameFormatS16_420: "S16_420",
	FrameFormatYUYV:    "YUYV",
	FrameFormatUYVY:    "UYVY",
	FrameFormatRGB:     "RGB",
	FrameFormatRGBA:    "RGBA",
	FrameFormatv210:    "v210",
	FrameFormatMJPEG:   "MJPEG",
	FrameFormatH264:    "H264",
	FrameFormatVC2:     "VC2",
}

// String renders the named form when known, and "UNKNOWN(<n>)" otherwise.
func (f CogFrameFormat) String() string {
	if name, ok := cogFrameFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint32(f))
}

// IsCompressed reports whether the format stores coded (compressed) data.
func (f CogFrameFormat) IsCompressed() bool {
	switch f {
	case FrameFormatMJPEG, FrameFormatH264, FrameFormatVC2:
		return true
	default:
		return false
	}
}

// IsPacked reports whether the format interleaves components in a single plane.
func (f CogFrameFormat) IsPacked() bool {
	switch f {
	case FrameFormatYUYV, FrameFormatUYVY, FrameFormatv210, FrameFormatRGB, FrameFormatRGBA:
		return true
	default:
		return false
	}
}

// BytesPerValue returns the nominal sample width in bytes for planar
// integer formats, and 0 for packed or compressed formats where no
// single per-sample width applies.
func (f CogFrameFormat) BytesPerValue() int {
	switch f {
	case FrameFormatU8_444, FrameFormatU8_422, FrameFormatU8_420:
		return 1
	case FrameFormatS16_444, FrameFormatS16_422, FrameFormatS16_420:
		return 2
	default:
		return 0
	}
}

// ActiveBits returns the number of significant bits per sample for
// planar integer formats: 8 for the U8 formats, 16 for the S16
// formats named here, matching the reference codec's
// COG_FRAME_FORMAT_ACTIVE_BITS table for its full-range (non
// 10/12-bit) variants. Returns 0 for packed or compressed formats
// where no single per-sample width applies.
func (f CogFrameFormat) ActiveBits() int {
	switch f {
	case FrameFormatU8_444, FrameFormatU8_422, FrameFormatU8_420:
		return 8
	case FrameFormatS16_444, FrameFormatS16_422, FrameFormatS16_420:
		return 16
	default:
		return 0
	}
}

// CogFrameLayout identifies how fields are arranged within a video grain.
type CogFrameLayout uint32

// Named CogFrameLayout values.
const (
	FrameLayoutUnknown        CogFrameLayout = 0
	FrameLayoutFullFrame      CogFrameLayout = 1
	FrameLayoutSeparateFields CogFrameLayout = 2
	FrameLayoutSingleField    CogFrameLayout = 3
	FrameLayoutMixedFields    CogFrameLayout = 4
	FrameLayoutSegmentedFrame CogFrameLayout = 5
)

var cogFrameLayoutNames = map[CogFrameLayout]string{
	FrameLayoutUnknown:        "UNKNOWN",
	FrameLayoutFullFrame:      "FULL_FRAME",
	FrameLayoutSeparateFields: "SEPARATE_FIELDS",
	FrameLayoutSingleField:    "SINGLE_FIELD",
	FrameLayoutMixedFields:    "MIXED_FIELDS",
	FrameLayoutSegmentedFrame: "SEGMENTED_FRAME",
}

func (l CogFrameLayout) String() string {
	if name, ok := cogFrameLayoutNames[l]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint32(l))
}

// CogAudioFormat identifies an audio grain's sample format and channel arrangement.
type CogAudioFormat uint32

// Named CogAudioFormat values.
const (
	AudioFormatUnknown        CogAudioFormat = 0
	AudioFormatS16Planes      CogAudioFormat = 0x100
	AudioFormatS16Pairs       CogAudioFormat = 0x101
	AudioFormatS16Interleaved CogAudioFormat = 0x102
	AudioFormatS24Planes      CogAudioFormat = 0x200
	AudioFormatFloatPlanes    CogAudioFormat = 0x300
	AudioFormatDoublePlanes   CogAudioFormat = 0x301
	AudioFormatAAC            CogAudioFormat = 0x400
	AudioFormatMP1            CogAudioFormat = 0x401
)

var cogAudioFormatNames = map[CogAudioFormat]string{
	AudioFormatUnknown:        "UNKNOWN",
	AudioFormatS16Planes:      "S16_PLANES",
	AudioFormatS16Pairs:       "S16_PAIRS",
	AudioFormatS16Interleaved: "S16_INTERLEAVED",
	AudioFormatS24Planes:      "S24_PLANES",
	AudioFormatFloatPlanes:    "FLOAT_PLANES",
	AudioFormatDoublePlanes:   "DOUBLE_PLANES",
	AudioFormatAAC:            "AAC",
	AudioFormatMP1:            "MP1",
}

func (f CogAudioFormat) String() string {
	if name, ok := cogAudioFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint32(f))
}

// BytesPerSample returns the nominal per-channel sample width in bytes
// for uncompressed formats, and 0 for coded formats (AAC, MP1, …).
func (f CogAudioFormat) BytesPerSample() int {
	switch f {
	case AudioFormatS16Planes, AudioFormatS16Pairs, AudioFormatS16Interleaved:
		return 2
	case AudioFormatS24Planes:
		return 3
	case AudioFormatFloatPlanes:
		return 4
	case AudioFormatDoublePlanes:
		return 8
	default:
		return 0
	}
}
