package gsf

import (
	"errors"
	"io"
)

// seekBuffer is an in-memory io.WriteSeeker/io.ReadSeeker backing
// store, standing in for a real file in tests that need the
// encoder's seekable-sink path (count back-patching) or the
// decoder's seekable-source path (lazy data, fast skip).
type seekBuffer struct {
	buf []byte
	pos int64
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Read(p []byte) (int, error) {
	if s.pos >= int64(len(s.buf)) {
		return 0, io.EOF
	}
	n := copy(p, s.buf[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = s.pos
	case io.SeekEnd:
		base = int64(len(s.buf))
	default:
		return 0, errors.New("seekBuffer: invalid whence")
	}
	pos := base + offset
	if pos < 0 {
		return 0, errors.New("seekBuffer: negative position")
	}
	s.pos = pos
	return pos, nil
}

// spyingReader counts every byte actually read through it, to assert
// a decoder in skip_data mode never touches a grain's data region.
type spyingReader struct {
	r         *seekBuffer
	bytesRead int
}

func (s *spyingReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.bytesRead += n
	return n, err
}

func (s *spyingReader) Seek(offset int64, whence int) (int64, error) {
	return s.r.Seek(offset, whence)
}
