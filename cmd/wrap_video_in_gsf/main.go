// Command wrap_video_in_gsf frames a raw video essence file into a
// GSF file: one grain per frame, sized by the declared geometry, with
// origin_timestamp incrementing at the declared rate.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/bbc/gsf/internal/cliutil"
	"github.com/bbc/gsf/pkg/grain"
	"github.com/bbc/gsf/pkg/gsf"
	"github.com/bbc/gsf/pkg/ssb/primitive"
)

var formatNames = map[string]grain.CogFrameFormat{
	"U8_444":  grain.FrameFormatU8_444,
	"U8_422":  grain.FrameFormatU8_422,
	"U8_420":  grain.FrameFormatU8_420,
	"S16_444": grain.FrameFormatS16_444,
	"S16_422": grain.FrameFormatS16_422,
	"S16_420": grain.FrameFormatS16_420,
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := cliutil.NewLogger("wrap_video_in_gsf")
	defer func() { _ = logger.Sync() }()

	fs := flag.NewFlagSet("wrap_video_in_gsf", flag.ContinueOnError)
	var size cliutil.Dimensions
	var rate cliutil.Rational
	fs.Var(&size, "size", "frame dimensions, WIDTHxHEIGHT")
	fs.Var(&rate, "rate", "frame rate, NUMERATOR/DENOMINATOR")
	format := fs.String("format", "U8_422", "pixel format: "+formatNamesList())
	segment := fs.Uint("segment", 1, "local_id to declare for the wrapped segment")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: wrap_video_in_gsf -size WxH -format FMT -rate N/D <in.raw> <out.gsf>")
		return 1
	}
	cogFormat, ok := formatNames[*format]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown format %q, want one of %s\n", *format, formatNamesList())
		return 1
	}
	if size.Width == 0 || size.Height == 0 || rate.Denominator == 0 {
		fmt.Fprintln(os.Stderr, "-size and -rate are required")
		return 1
	}

	if err := wrap(fs.Arg(0), fs.Arg(1), uint16(*segment), size, cogFormat, rate); err != nil {
		logger.Errorw("wrap failed", "error", err)
		return 1
	}
	return 0
}

func formatNamesList() string {
	s := ""
	for name := range formatNames {
		if s != "" {
			s += ","
		}
		s += name
	}
	return s
}

func wrap(inPath, outPath string, localID uint16, size cliutil.Dimensions, format grain.CogFrameFormat, rate cliutil.Rational) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", inPath, err)
	}
	defer in.Close()

	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	components := planarComponents(format, size.Width, size.Height)
	frameLen := int(components.TotalLength())
	if frameLen == 0 {
		return fmt.Errorf("format %s not supported by this tool's planar layout assumption", format)
	}

	flowID := uuid.New()
	enc := gsf.New(out, uuid.New(), primitive.DateTime{})
	seg, err := enc.AddSegment(localID, flowID)
	if err != nil {
		return fmt.Errorf("add segment: %w", err)
	}
	if err := enc.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	sourceID := uuid.New()
	frameDuration := primitive.Rational{Numerator: rate.Denominator, Denominator: rate.Numerator}
	var frameIndex uint64

	buf := make([]byte, frameLen)
	for {
		_, err := io.ReadFull(in, buf)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			return fmt.Errorf("input length is not a multiple of the frame size %d", frameLen)
		}
		if err != nil {
			return fmt.Errorf("read frame %d: %w", frameIndex, err)
		}

		ts := originTimestamp(frameIndex, rate)
		g := grain.NewVideo(grain.Header{
			SourceID:        sourceID,
			FlowID:          flowID,
			OriginTimestamp: ts,
			SyncTimestamp:   ts,
			Rate:            primitive.Rational{Numerator: rate.Numerator, Denominator: rate.Denominator},
			Duration:        frameDuration,
		}, grain.VideoPayload{
			Format:     format,
			Layout:     grain.FrameLayoutFullFrame,
			Width:      size.Width,
			Height:     size.Height,
			Components: components,
		}, append([]byte(nil), buf...))

		if err := seg.AddGrain(g); err != nil {
			return fmt.Errorf("add grain %d: %w", frameIndex, err)
		}
		frameIndex++
	}

	if err := enc.End(); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	return nil
}

// planarComponents lays out one component per declared colour plane,
// subsampled 4:2:2 or 4:2:0 as the format name indicates; 4:4:4
// formats get one full-resolution component per channel of
// luma/chroma. Any other format gets no components (nil). This tool
// only supports the three named planar families in formatNames, all
// of which follow this shape.
func planarComponents(format grain.CogFrameFormat, width, height uint32) grain.Components {
	bpv := uint32(format.BytesPerValue())
	if bpv == 0 {
		return nil
	}
	luma := grain.Component{Width: width, Height: height, Stride: width * bpv, Length: width * height * bpv}
	switch format {
	case grain.FrameFormatU8_444, grain.FrameFormatS16_444:
		chroma := grain.Component{Width: width, Height: height, Stride: width * bpv, Length: width * height * bpv}
		return grain.Components{luma, chroma, chroma}
	case grain.FrameFormatU8_422, grain.FrameFormatS16_422:
		cw := width / 2
		chroma := grain.Component{Width: cw, Height: height, Stride: cw * bpv, Length: cw * height * bpv}
		return grain.Components{luma, chroma, chroma}
	case grain.FrameFormatU8_420, grain.FrameFormatS16_420:
		cw, ch := width/2, height/2
		chroma := grain.Component{Width: cw, Height: ch, Stride: cw * bpv, Length: cw * ch * bpv}
		return grain.Components{luma, chroma, chroma}
	default:
		return nil
	}
}

func originTimestamp(frameIndex uint64, rate cliutil.Rational) primitive.Timestamp {
	totalNanos := frameIndex * 1_000_000_000 * uint64(rate.Denominator) / uint64(rate.Numerator)
	return primitive.Timestamp{
		Positive:    true,
		Seconds:     totalNanos / 1_000_000_000,
		Nanoseconds: uint32(totalNanos % 1_000_000_000),
	}
}
