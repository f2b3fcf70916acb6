package block

import (
	"github.com/bbc/gsf/pkg/ssb/primitive"
)

// WriteBlock writes a block header followed by its payload. payloadLen
// must be the exact number of octets writePayload will write; callers
// compute it up front (package gsf has a payload-length function for
// each block it writes, such as gbhdPayloadLen), so no back-patching of the size field
// is ever required — unlike the count field in a segm block, which is
// a value the encoder learns only after writing every grain and must
// genuinely rewrite in place on a seekable sink (see gsf.Encoder).
func WriteBlock(w *primitive.Writer, tag Tag, payloadLen int, writePayload func(*primitive.Writer)) {
	WriteHeader(w, Header{Tag: tag, Size: uint32(HeaderSize + payloadLen)})
	if writePayload != nil {
		writePayload(w)
	}
}

// FillTag is the tag of a filler block that must be skipped by every reader.
var FillTag = NewTag("fill")

// WriteFill writes a "fill" block with n payload octets, all zero.
func WriteFill(w *primitive.Writer, n int) {
	WriteBlock(w, FillTag, n, func(w *primitive.Writer) {
		w.TryWriteFixedBytes(make([]byte, n))
	})
}
