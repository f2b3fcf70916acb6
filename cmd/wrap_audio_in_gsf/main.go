// Command wrap_audio_in_gsf frames a raw interleaved-or-planar audio
// essence file into a GSF file: one grain per fixed-size block of
// samples, with origin_timestamp incrementing at the sample rate.
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

var audioFormatNames = map[string]grain.CogAudioFormat{
	"S16_PLANES":      grain.AudioFormatS16Planes,
	"S16_PAIRS":       grain.AudioFormatS16Pairs,
	"S16_INTERLEAVED": grain.AudioFormatS16Interleaved,
	"S24_PLANES":      grain.AudioFormatS24Planes,
	"FLOAT_PLANES":    grain.AudioFormatFloatPlanes,
	"DOUBLE_PLANES":   grain.AudioFormatDoublePlanes,
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := cliutil.NewLogger("wrap_audio_in_gsf")
	defer func() { _ = logger.Sync() }()

	fs := flag.NewFlagSet("wrap_audio_in_gsf", flag.ContinueOnError)
	sampleRate := fs.Uint("sample-rate", 48000, "sample rate in Hz")
	samplesPerGrain := fs.Uint("samples_per_grain", 1920, "samples per grain")
	channels := fs.Uint("channels", 2, "channel count")
	format := fs.String("format", "S16_PLANES", "audio format: "+audioFormatNamesList())
	segment := fs.Uint("segment", 1, "local_id to declare for the wrapped segment")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: wrap_audio_in_gsf -sample-rate R [-samples_per_grain N] <in.raw> <out.gsf>")
		return 1
	}
	cogFormat, ok := audioFormatNames[*format]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown format %q, want one of %s\n", *format, audioFormatNamesList())
		return 1
	}
	if *sampleRate == 0 || *samplesPerGrain == 0 || *channels == 0 {
		fmt.Fprintln(os.Stderr, "-sample-rate, -samples_per_grain and -channels must be positive")
		return 1
	}

	err := wrap(fs.Arg(0), fs.Arg(1), uint16(*segment), cogFormat, uint32(*channels), uint32(*samplesPerGrain), uint32(*sampleRate))
	if err != nil {
		logger.Errorw("wrap failed", "error", err)
		return 1
	}
	return 0
}

func audioFormatNamesList() string {
	s := ""
	for name := range audioFormatNames {
		if s != "" {
			s += ","
		}
		s += name
	}
	return s
}

func wrap(inPath, outPath string, localID uint16, format grain.CogAudioFormat, channels, samplesPerGrain, sampleRate uint32) error {
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

	bytesPerSample := format.BytesPerSample()
	if bytesPerSample == 0 {
		return fmt.Errorf("format %s is a coded format; this tool only wraps uncompressed audio", format)
	}
	grainLen := int(channels) * int(samplesPerGrain) * bytesPerSample

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
	rate := primitive.Rational{Numerator: sampleRate, Denominator: 1}
	grainDuration := primitive.Rational{Numerator: samplesPerGrain, Denominator: sampleRate}
	var grainIndex uint64

	buf := make([]byte, grainLen)
	for {
		_, err := io.ReadFull(in, buf)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			return fmt.Errorf("input length is not a multiple of the grain size %d", grainLen)
		}
		if err != nil {
			return fmt.Errorf("read grain %d: %w", grainIndex, err)
		}

		ts := originTimestamp(grainIndex, samplesPerGrain, sampleRate)
		g := grain.NewAudio(grain.Header{
			SourceID:        sourceID,
			FlowID:          flowID,
			OriginTimestamp: ts,
			SyncTimestamp:   ts,
			Rate:            rate,
			Duration:        grainDuration,
		}, grain.AudioPayload{
			Format:     format,
			Channels:   uint16(channels),
			Samples:    samplesPerGrain,
			SampleRate: sampleRate,
		}, append([]byte(nil), buf...))

		if err := seg.AddGrain(g); err != nil {
			return fmt.Errorf("add grain %d: %w", grainIndex, err)
		}
		grainIndex++
	}

	if err := enc.End(); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	return nil
}

func originTimestamp(grainIndex uint64, samplesPerGrain, sampleRate uint32) primitive.Timestamp {
	totalSamples := grainIndex * uint64(samplesPerGrain)
	totalNanos := totalSamples * 1_000_000_000 / uint64(sampleRate)
	return primitive.Timestamp{
		Positive:    true,
		Seconds:     totalNanos / 1_000_000_000,
		Nanoseconds: uint32(totalNanos % 1_000_000_000),
	}
}
