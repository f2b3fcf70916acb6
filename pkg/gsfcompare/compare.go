package gsfcompare

import (
	"fmt"

	"github.com/bbc/gsf/pkg/grain"
	"github.com/bbc/gsf/pkg/ssb/primitive"
)

// CompareGrain walks the full attribute set of two grains and returns
// the resulting diff tree. creation_timestamp is excluded from the
// verdict by default; every other attribute, including the data
// region, is included by default.
//
// Option paths (Include, Exclude, ExpectedDifference, PSNR) name bare
// attributes — "origin_timestamp", "data", "width" — not a dotted
// trail rooted at "grain"; the same option applies regardless of
// where in a sequence comparison the grain sits. The rendered tree's
// node paths are dotted for readability, but rule lookup always keys
// on the bare attribute.
func CompareGrain(a, b *grain.Grain, opts ...Option) (*Node, error) {
	o := newOptions(opts...)
	return compareGrainAt("grain", a, b, o)
}

func compareGrainAt(prefix string, a, b *grain.Grain, o *Options) (*Node, error) {
	disp := func(key string) string { return join(prefix, key) }

	var children []*Node
	children = append(children,
		equalNode(o, "grain_type", disp("grain_type"), a.GrainType.String(), b.GrainType.String(), a.GrainType == b.GrainType),
		equalNode(o, "src_id", disp("src_id"), a.Header.SourceID.String(), b.Header.SourceID.String(), a.Header.SourceID == b.Header.SourceID),
		equalNode(o, "flow_id", disp("flow_id"), a.Header.FlowID.String(), b.Header.FlowID.String(), a.Header.FlowID == b.Header.FlowID),
		rationalNode(o, "rate", disp("rate"), a.Header.Rate, b.Header.Rate),
		rationalNode(o, "duration", disp("duration"), a.Header.Duration, b.Header.Duration),
		timestampNode(o, "origin_timestamp", disp("origin_timestamp"), a.Header.OriginTimestamp, b.Header.OriginTimestamp),
		timestampNode(o, "sync_timestamp", disp("sync_timestamp"), a.Header.SyncTimestamp, b.Header.SyncTimestamp),
		timestampNode(o, "creation_timestamp", disp("creation_timestamp"), a.Header.CreationTimestamp, b.Header.CreationTimestamp),
		timeLabelsNode(o, "timelabels", disp("timelabels"), a.Header.TimeLabels, b.Header.TimeLabels),
	)

	var dataNode *Node
	var err error
	switch {
	case a.GrainType != b.GrainType:
		dataNode = excludedLeaf(disp("data"), "cannot compare data: grain types do not match")
	case a.GrainType == grain.Video:
		dataNode, err = compareVideoGrains(disp, a, b, o, &children)
	case a.GrainType == grain.CodedVideo:
		dataNode, err = compareCodedVideoGrains(disp, a, b, o, &children)
	case a.GrainType == grain.Audio:
		dataNode, err = compareAudioGrains(disp, a, b, o, &children)
	case a.GrainType == grain.CodedAudio:
		dataNode, err = compareCodedAudioGrains(disp, a, b, o, &children)
	case a.GrainType == grain.Event:
		dataNode, err = compareEventGrains(disp, a, b, o, &children)
	default:
		dataNode, err = compareData(disp("data"), a, b, o)
	}
	if err != nil {
		return nil, err
	}
	children = append(children, dataNode)

	return group(prefix, children...), nil
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func compareVideoGrains(disp func(string) string, a, b *grain.Grain, o *Options, children *[]*Node) (*Node, error) {
	av, bv := a.Video, b.Video
	*children = append(*children,
		equalNode(o, "cog_frame_format", disp("cog_frame_format"), av.Format.String(), bv.Format.String(), av.Format == bv.Format),
		equalNode(o, "cog_frame_layout", disp("cog_frame_layout"), av.Layout.String(), bv.Layout.String(), av.Layout == bv.Layout),
		equalNode(o, "width", disp("width"), fmt.Sprint(av.Width), fmt.Sprint(bv.Width), av.Width == bv.Width),
		equalNode(o, "height", disp("height"), fmt.Sprint(av.Height), fmt.Sprint(bv.Height), av.Height == bv.Height),
	)
	dataPath := disp("data")
	if av.Format != bv.Format {
		return formatMismatchNode(dataPath), nil
	}
	return comparePSNROrData(dataPath, a, b, o, func() ([]float64, error) {
		ad, err := a.Data.Bytes()
		if err != nil {
			return nil, err
		}
		bd, err := b.Data.Bytes()
		if err != nil {
			return nil, err
		}
		return DefaultPSNRKernel.VideoPSNR(ad, bd, *av)
	})
}

func compareCodedVideoGrains(disp func(string) string, a, b *grain.Grain, o *Options, children *[]*Node) (*Node, error) {
	av, bv := a.CodedVideo, b.CodedVideo
	*children = append(*children,
		equalNode(o, "cog_frame_format", disp("cog_frame_format"), av.Format.String(), bv.Format.String(), av.Format == bv.Format),
		equalNode(o, "cog_frame_layout", disp("cog_frame_layout"), av.Layout.String(), bv.Layout.String(), av.Layout == bv.Layout),
		equalNode(o, "coded_width", disp("coded_width"), fmt.Sprint(av.CodedWidth), fmt.Sprint(bv.CodedWidth), av.CodedWidth == bv.CodedWidth),
		equalNode(o, "coded_height", disp("coded_height"), fmt.Sprint(av.CodedHeight), fmt.Sprint(bv.CodedHeight), av.CodedHeight == bv.CodedHeight),
		equalNode(o, "origin_width", disp("origin_width"), fmt.Sprint(av.OriginWidth), fmt.Sprint(bv.OriginWidth), av.OriginWidth == bv.OriginWidth),
		equalNode(o, "origin_height", disp("origin_height"), fmt.Sprint(av.OriginHeight), fmt.Sprint(bv.OriginHeight), av.OriginHeight == bv.OriginHeight),
		equalNode(o, "key_frame", disp("key_frame"), fmt.Sprint(av.KeyFrame), fmt.Sprint(bv.KeyFrame), av.KeyFrame == bv.KeyFrame),
		equalNode(o, "temporal_offset", disp("temporal_offset"), fmt.Sprint(av.TemporalOffset), fmt.Sprint(bv.TemporalOffset), av.TemporalOffset == bv.TemporalOffset),
		unitOffsetsNode(o, "unit_offsets", disp("unit_offsets"), av.UnitOffsets, bv.UnitOffsets),
	)
	dataPath := disp("data")
	if av.Format != bv.Format {
		return formatMismatchNode(dataPath), nil
	}
	return compareData(dataPath, a, b, o)
}

func compareAudioGrains(disp func(string) string, a, b *grain.Grain, o *Options, children *[]*Node) (*Node, error) {
	av, bv := a.Audio, b.Audio
	*children = append(*children,
		equalNode(o, "cog_audio_format", disp("cog_audio_format"), av.Format.String(), bv.Format.String(), av.Format == bv.Format),
		equalNode(o, "samples", disp("samples"), fmt.Sprint(av.Samples), fmt.Sprint(bv.Samples), av.Samples == bv.Samples),
		equalNode(o, "channels", disp("channels"), fmt.Sprint(av.Channels), fmt.Sprint(bv.Channels), av.Channels == bv.Channels),
		equalNode(o, "sample_rate", disp("sample_rate"), fmt.Sprint(av.SampleRate), fmt.Sprint(bv.SampleRate), av.SampleRate == bv.SampleRate),
	)
	dataPath := disp("data")
	if av.Format != bv.Format {
		return formatMismatchNode(dataPath), nil
	}
	return comparePSNROrData(dataPath, a, b, o, func() ([]float64, error) {
		ad, err := a.Data.Bytes()
		if err != nil {
			return nil, err
		}
		bd, err := b.Data.Bytes()
		if err != nil {
			return nil, err
		}
		return DefaultPSNRKernel.AudioPSNR(ad, bd, *av)
	})
}

func compareCodedAudioGrains(disp func(string) string, a, b *grain.Grain, o *Options, children *[]*Node) (*Node, error) {
	av, bv := a.CodedAudio, b.CodedAudio
	*children = append(*children,
		equalNode(o, "cog_audio_format", disp("cog_audio_format"), av.Format.String(), bv.Format.String(), av.Format == bv.Format),
		equalNode(o, "samples", disp("samples"), fmt.Sprint(av.Samples), fmt.Sprint(bv.Samples), av.Samples == bv.Samples),
		equalNode(o, "channels", disp("channels"), fmt.Sprint(av.Channels), fmt.Sprint(bv.Channels), av.Channels == bv.Channels),
		equalNode(o, "sample_rate", disp("sample_rate"), fmt.Sprint(av.SampleRate), fmt.Sprint(bv.SampleRate), av.SampleRate == bv.SampleRate),
		equalNode(o, "priming", disp("priming"), fmt.Sprint(av.Priming), fmt.Sprint(bv.Priming), av.Priming == bv.Priming),
		equalNode(o, "remainder", disp("remainder"), fmt.Sprint(av.Remainder), fmt.Sprint(bv.Remainder), av.Remainder == bv.Remainder),
	)
	dataPath := disp("data")
	if av.Format != bv.Format {
		return formatMismatchNode(dataPath), nil
	}
	return compareData(dataPath, a, b, o)
}

func compareEventGrains(disp func(string) string, a, b *grain.Grain, o *Options, children *[]*Node) (*Node, error) {
	av, bv := a.Event, b.Event
	*children = append(*children,
		equalNode(o, "event_type", disp("event_type"), fmt.Sprint(av.EventType), fmt.Sprint(bv.EventType), av.EventType == bv.EventType),
	)
	return compareData(disp("data"), a, b, o)
}

// comparePSNROrData dispatches to the PSNR kernel when the caller
// configured a PSNR rule for "data", otherwise to a raw byte
// comparison. When "data" is excluded, the lazy data handle is never
// read at all — the data comparison shortcut. A PSNR comparison must
// read both buffers to feed the kernel; that is the cost of asking
// for a quality score rather than a bypass, and is not the shortcut
// the exclusion rule describes.
func comparePSNROrData(dataPath string, a, b *grain.Grain, o *Options, computePSNR func() ([]float64, error)) (*Node, error) {
	if o.isExcluded("data") {
		return excludedLeaf(dataPath, "data excluded from comparison, not read"), nil
	}
	rule, ok := o.psnrRule("data")
	if !ok {
		return compareData(dataPath, a, b, o)
	}

	values, err := computePSNR()
	if err != nil {
		return nil, err
	}
	passed := true
	for i, v := range values {
		if i >= len(rule.thresholds) {
			break
		}
		if !rule.op.evalFloat64(v, rule.thresholds[i]) {
			passed = false
			break
		}
	}
	verdict := Match
	if !passed {
		verdict = Mismatch
	}
	return leaf(dataPath, verdict, fmt.Sprintf("%v", values), fmt.Sprintf("%s %v", rule.op, rule.thresholds),
		fmt.Sprintf("PSNR %v %s %v", values, rule.op, rule.thresholds)), nil
}

// compareData performs a raw byte-equality comparison of the two
// grains' data regions, unless "data" is excluded, in which case the
// lazy data handles (if any) are never read.
func compareData(dataPath string, a, b *grain.Grain, o *Options) (*Node, error) {
	if o.isExcluded("data") {
		return excludedLeaf(dataPath, "data excluded from comparison, not read"), nil
	}
	ad, err := a.Data.Bytes()
	if err != nil {
		return nil, fmt.Errorf("gsfcompare: read a's data: %w", err)
	}
	bd, err := b.Data.Bytes()
	if err != nil {
		return nil, fmt.Errorf("gsfcompare: read b's data: %w", err)
	}
	if len(ad) != len(bd) {
		return leaf(dataPath, Mismatch, fmt.Sprintf("%d octets", len(ad)), fmt.Sprintf("%d octets", len(bd)), "data lengths differ"), nil
	}
	for i := range ad {
		if ad[i] != bd[i] {
			return leaf(dataPath, Mismatch, fmt.Sprintf("%d octets", len(ad)), fmt.Sprintf("%d octets", len(bd)),
				fmt.Sprintf("data differs at octet %d", i)), nil
		}
	}
	return leaf(dataPath, Match, fmt.Sprintf("%d octets", len(ad)), "", ""), nil
}

func formatMismatchNode(path string) *Node {
	return leaf(path, Mismatch, "", "", "payload formats do not match")
}

func excludedLeaf(path, reason string) *Node {
	return leaf(path, Excluded, "", "", reason)
}

// equalNode renders a plain equality comparison. key is the bare
// attribute name used for Include/Exclude lookup; disp is the
// rendered (possibly prefixed) path.
func equalNode(o *Options, key, disp, ra, rb string, equal bool) *Node {
	if o.isExcluded(key) {
		return leaf(disp, Excluded, ra, rb, "")
	}
	if equal {
		return leaf(disp, Match, ra, "", "")
	}
	return leaf(disp, Mismatch, ra, rb, "")
}

func rationalNode(o *Options, key, disp string, a, b primitive.Rational) *Node {
	ra := fmt.Sprintf("%d/%d", a.Numerator, a.Denominator)
	rb := fmt.Sprintf("%d/%d", b.Numerator, b.Denominator)
	return equalNode(o, key, disp, ra, rb, a == b)
}

// timestampNode renders a Timestamp comparison, honoring
// ExpectedDifference(key, op, nanoseconds) when configured: the
// comparator computes a-b in nanoseconds and evaluates op against the
// expected value, rather than requiring strict equality.
func timestampNode(o *Options, key, disp string, a, b primitive.Timestamp) *Node {
	ra := renderTimestamp(a)
	rb := renderTimestamp(b)

	if expect, ok := o.expectedDifference(key); ok {
		if o.isExcluded(key) {
			return leaf(disp, Excluded, ra, rb, "")
		}
		diff := a.Sub(b)
		if expect.op.evalInt64(diff, expect.value) {
			return leaf(disp, Match, ra, rb, fmt.Sprintf("a-b = %dns (expected %s %d)", diff, expect.op, expect.value))
		}
		return leaf(disp, Mismatch, ra, rb, fmt.Sprintf("a-b = %dns, expected %s %d", diff, expect.op, expect.value))
	}

	return equalNode(o, key, disp, ra, rb, a.Compare(b) == 0)
}

func renderTimestamp(ts primitive.Timestamp) string {
	sign := "+"
	if !ts.Positive {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%09ds", sign, ts.Seconds, ts.Nanoseconds)
}

func timeLabelsNode(o *Options, key, disp string, a, b []primitive.TimeLabel) *Node {
	if len(a) != len(b) {
		return equalNode(o, key, disp, fmt.Sprintf("%d labels", len(a)), fmt.Sprintf("%d labels", len(b)), false)
	}
	if o.isExcluded(key) {
		return leaf(disp, Excluded, fmt.Sprintf("%d labels", len(a)), fmt.Sprintf("%d labels", len(b)), "")
	}
	var children []*Node
	for i := range a {
		cp := fmt.Sprintf("%s[%d]", disp, i)
		equal := a[i].Tag == b[i].Tag && a[i].Timecode == b[i].Timecode
		children = append(children, leafEqual(cp,
			fmt.Sprintf("%s@%d", a[i].Tag, a[i].Timecode.FramesSinceMidnight),
			fmt.Sprintf("%s@%d", b[i].Tag, b[i].Timecode.FramesSinceMidnight), equal))
	}
	if len(children) == 0 {
		return leaf(disp, Match, "0 labels", "", "")
	}
	return group(disp, children...)
}

func leafEqual(path, ra, rb string, equal bool) *Node {
	if equal {
		return leaf(path, Match, ra, "", "")
	}
	return leaf(path, Mismatch, ra, rb, "")
}

func unitOffsetsNode(o *Options, key, disp string, a, b []uint32) *Node {
	if len(a) != len(b) {
		return equalNode(o, key, disp, fmt.Sprintf("%d offsets", len(a)), fmt.Sprintf("%d offsets", len(b)), false)
	}
	equal := true
	for i := range a {
		if a[i] != b[i] {
			equal = false
			break
		}
	}
	return equalNode(o, key, disp, fmt.Sprintf("%v", a), fmt.Sprintf("%v", b), equal)
}
