package gsfcompare

import (
	"fmt"
	"math"

	"github.com/bbc/gsf/pkg/grain"
)

// PSNRKernel computes a peak-signal-to-noise-ratio value per
// component (video) or channel (audio) between two equally-shaped
// data buffers. Comparator callers never invoke a kernel directly;
// the PSNR option routes through one when a grain's data region is
// compared.
type PSNRKernel interface {
	VideoPSNR(a, b []byte, payload grain.VideoPayload) ([]float64, error)
	AudioPSNR(a, b []byte, payload grain.AudioPayload) ([]float64, error)
}

// defaultPSNRKernel computes PSNR the way the reference implementation
// does: mean squared error per plane/channel against the format's
// peak representable value, with identical buffers yielding +Inf
// rather than a division by zero.
type defaultPSNRKernel struct{}

// DefaultPSNRKernel is the PSNRKernel used by every CompareGrain and
// CompareSequences call; there is currently no option to override it.
var DefaultPSNRKernel PSNRKernel = defaultPSNRKernel{}

func (defaultPSNRKernel) VideoPSNR(a, b []byte, payload grain.VideoPayload) ([]float64, error) {
	if payload.Format.IsCompressed() {
		return nil, fmt.Errorf("gsfcompare: PSNR of compressed video is not supported")
	}
	bytesPerValue := payload.Format.BytesPerValue()
	if bytesPerValue == 0 {
		return nil, fmt.Errorf("gsfcompare: PSNR of packed format %s is not supported", payload.Format)
	}
	activeBits := payload.Format.ActiveBits()
	maxVal := float64((uint64(1) << uint(activeBits)) - 1)

	offsets := payload.Components.Offsets()
	out := make([]float64, len(payload.Components))
	for i, c := range payload.Components {
		start := int(offsets[i])
		end := start + int(c.Length)
		if end > len(a) || end > len(b) {
			return nil, fmt.Errorf("gsfcompare: component %d extends past data length", i)
		}
		out[i] = psnrFromBytes(a[start:end], b[start:end], maxVal, bytesPerValue)
	}
	return out, nil
}

func (defaultPSNRKernel) AudioPSNR(a, b []byte, payload grain.AudioPayload) ([]float64, error) {
	bytesPerSample := payload.Format.BytesPerSample()
	if bytesPerSample == 0 {
		return nil, fmt.Errorf("gsfcompare: PSNR of coded audio format %s is not supported", payload.Format)
	}
	if payload.Channels == 0 {
		return nil, fmt.Errorf("gsfcompare: audio grain declares 0 channels")
	}
	channelLen := int(payload.Samples) * bytesPerSample
	maxVal := audioMaxVal(bytesPerSample)

	out := make([]float64, payload.Channels)
	for ch := 0; ch < int(payload.Channels); ch++ {
		start := ch * channelLen
		end := start + channelLen
		if end > len(a) || end > len(b) {
			return nil, fmt.Errorf("gsfcompare: channel %d extends past data length (only planar layouts are supported)", ch)
		}
		out[ch] = psnrFromBytes(a[start:end], b[start:end], maxVal, bytesPerSample)
	}
	return out, nil
}

func audioMaxVal(bytesPerSample int) float64 {
	switch bytesPerSample {
	case 4, 8:
		// Float/double samples are nominally in [-1, 1].
		return 1.0
	default:
		return float64((uint64(1) << uint(8*bytesPerSample-1)) - 1)
	}
}

func psnrFromBytes(a, b []byte, maxVal float64, bytesPerValue int) float64 {
	mse := meanSquaredError(a, b, bytesPerValue)
	if mse == 0 {
		return math.Inf(1)
	}
	return 10.0 * math.Log10((maxVal*maxVal)/mse)
}

// meanSquaredError computes MSE over samples of bytesPerValue octets
// each, decoded little-endian, rather than over raw octets — a 2-byte
// format's high and low octets are not independent 0-255 samples.
func meanSquaredError(a, b []byte, bytesPerValue int) float64 {
	n := len(a) / bytesPerValue
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		off := i * bytesPerValue
		d := sampleAt(a, off, bytesPerValue) - sampleAt(b, off, bytesPerValue)
		sum += d * d
	}
	return sum / float64(n)
}

func sampleAt(buf []byte, offset, bytesPerValue int) float64 {
	var v uint64
	for j := 0; j < bytesPerValue; j++ {
		v |= uint64(buf[offset+j]) << (8 * j)
	}
	return float64(v)
}
