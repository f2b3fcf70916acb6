package gsfcompare

import (
	"fmt"
	"io"

	"github.com/bbc/gsf/pkg/grain"
	"github.com/bbc/gsf/pkg/gsf"
)

// GrainIterator is the minimal pull interface CompareSequences needs
// from a grain source — gsf.Decoder satisfies it via its Next method
// once the local_id is dropped, and a simple slice-backed iterator
// works just as well for two in-memory sequences.
type GrainIterator interface {
	// Next returns the next grain, or ok=false once the sequence ends.
	Next() (g *grain.Grain, ok bool, err error)
}

// SliceIterator adapts a []*grain.Grain to GrainIterator.
type SliceIterator struct {
	grains []*grain.Grain
	pos    int
}

// NewSliceIterator returns a GrainIterator over grains in order.
func NewSliceIterator(grains []*grain.Grain) *SliceIterator {
	return &SliceIterator{grains: grains}
}

func (s *SliceIterator) Next() (*grain.Grain, bool, error) {
	if s.pos >= len(s.grains) {
		return nil, false, nil
	}
	g := s.grains[s.pos]
	s.pos++
	return g, true, nil
}

// SequenceDiff is the result of CompareSequences: the verdict, the
// index at which comparison stopped (the first mismatch, or the
// index one past the last grain on success), and the per-index diffs
// retained per the return_last_only option.
type SequenceDiff struct {
	OK    bool
	Index int
	Diffs []*Node
}

// CompareSequences pulls grains pairwise from a and b, comparing each
// pair with the same options CompareGrain would use, and stops at the
// first mismatch. If one sequence ends before the other, the first
// unpaired grain from the longer one is reported as a one-sided
// mismatch and comparison stops there. returnLastOnly bounds memory by retaining only the most
// recent diff rather than the full history.
func CompareSequences(a, b GrainIterator, returnLastOnly bool, opts ...Option) (SequenceDiff, error) {
	o := newOptions(opts...)
	var diffs []*Node
	index := 0

	record := func(n *Node) {
		if returnLastOnly {
			diffs = []*Node{n}
		} else {
			diffs = append(diffs, n)
		}
	}

	for {
		ga, okA, err := a.Next()
		if err != nil {
			return SequenceDiff{}, fmt.Errorf("gsfcompare: read sequence a at index %d: %w", index, err)
		}
		gb, okB, err := b.Next()
		if err != nil {
			return SequenceDiff{}, fmt.Errorf("gsfcompare: read sequence b at index %d: %w", index, err)
		}

		if !okA && !okB {
			return SequenceDiff{OK: true, Index: index, Diffs: diffs}, nil
		}
		if !okA {
			n := leaf(fmt.Sprintf("grains[%d]", index), Mismatch, "a does not exist", renderSideOnly(gb), "a does not exist, but b == ...")
			record(n)
			return SequenceDiff{OK: false, Index: index, Diffs: diffs}, nil
		}
		if !okB {
			n := leaf(fmt.Sprintf("grains[%d]", index), Mismatch, renderSideOnly(ga), "b does not exist", "b does not exist, but a == ...")
			record(n)
			return SequenceDiff{OK: false, Index: index, Diffs: diffs}, nil
		}

		n, err := compareGrainAt(fmt.Sprintf("grains[%d]", index), ga, gb, o)
		if err != nil {
			return SequenceDiff{}, fmt.Errorf("gsfcompare: compare grains at index %d: %w", index, err)
		}
		record(n)
		if !n.OK() {
			return SequenceDiff{OK: false, Index: index, Diffs: diffs}, nil
		}
		index++
	}
}

// DecoderIterator adapts a *gsf.Decoder restricted to a single
// local_id into a GrainIterator, so a live GSF stream can be compared
// against another without first buffering it into a slice.
type DecoderIterator struct {
	d       *gsf.Decoder
	localID uint16
}

// NewDecoderIterator returns a GrainIterator over every grain d
// yields for localID, skipping grains from any other segment.
func NewDecoderIterator(d *gsf.Decoder, localID uint16) *DecoderIterator {
	return &DecoderIterator{d: d, localID: localID}
}

func (it *DecoderIterator) Next() (*grain.Grain, bool, error) {
	for {
		gotID, g, err := it.d.Next()
		if err == io.EOF {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if gotID != it.localID {
			continue
		}
		return g, true, nil
	}
}

func renderSideOnly(g *grain.Grain) string {
	if g == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s grain (src_id=%s)", g.GrainType, g.Header.SourceID)
}
