// Command gsf_probe prints a GSF file's metadata, or, given a second
// file with -compare, runs the sequence comparator over every shared
// segment local_id.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/bbc/gsf/internal/cliutil"
	"github.com/bbc/gsf/pkg/gsf"
	"github.com/bbc/gsf/pkg/gsfcompare"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := cliutil.NewLogger("gsf_probe")
	defer func() { _ = logger.Sync() }()

	fs := flag.NewFlagSet("gsf_probe", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit a machine-readable JSON report")
	compareWith := fs.String("compare", "", "compare against this second GSF file")
	profilePath := fs.String("profile", "", "YAML file of comparator rules, used only with -compare")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gsf_probe [-json] [-compare other.gsf] [-profile rules.yaml] <file>")
		return 1
	}

	report, err := probe(fs.Arg(0), *compareWith, *profilePath)
	if err != nil {
		logger.Errorw("probe failed", "error", err)
		if isMalformed(err) {
			return 2
		}
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Errorw("encode report", "error", err)
			return 1
		}
		return 0
	}
	printReport(report)
	return 0
}

func isMalformed(err error) bool {
	// Every error returned while decoding the opened file (including a
	// short read before any valid header) is wrapped as a
	// malformedError; anything else (such as an open failure) is
	// treated as an I/O error.
	_, ok := err.(malformedError)
	return ok
}

type malformedError struct{ error }

// report is the JSON/text shape printed by gsf_probe.
type report struct {
	FileID    string          `json:"file_id"`
	Created   string          `json:"created"`
	Segments  []segmentReport `json:"segments"`
	Compare   *compareReport  `json:"compare,omitempty"`
}

type segmentReport struct {
	LocalID       uint16            `json:"local_id"`
	ID            string            `json:"id"`
	DeclaredCount int64             `json:"declared_count"`
	ObservedCount int               `json:"observed_count"`
	VariantCounts map[string]int    `json:"variant_counts"`
	Tags          map[string]string `json:"tags,omitempty"`
}

type compareReport struct {
	OK      bool     `json:"ok"`
	Index   int      `json:"stopped_at_index"`
	Summary []string `json:"summary"`
}

func probe(path, compareWith, profilePath string) (*report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	file, grains, err := gsf.DecodeAll(f)
	if err != nil {
		return nil, malformedError{fmt.Errorf("decode %s: %w", path, err)}
	}

	r := &report{
		FileID:  file.FileID.String(),
		Created: fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", file.Created.Year, file.Created.Month, file.Created.Day, file.Created.Hour, file.Created.Minute, file.Created.Second),
	}
	for _, seg := range file.Segments {
		variantCounts := map[string]int{}
		for _, g := range grains[seg.LocalID] {
			variantCounts[g.GrainType.String()]++
		}
		var tags map[string]string
		if len(seg.Tags) > 0 {
			tags = make(map[string]string, len(seg.Tags))
			for _, t := range seg.Tags {
				tags[t.Key.String()] = t.Val.String()
			}
		}
		r.Segments = append(r.Segments, segmentReport{
			LocalID:       seg.LocalID,
			ID:            seg.ID.String(),
			DeclaredCount: seg.Count,
			ObservedCount: len(grains[seg.LocalID]),
			VariantCounts: variantCounts,
			Tags:          tags,
		})
	}

	if compareWith == "" {
		return r, nil
	}

	opts, err := loadProfile(profilePath)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	g2, err := os.Open(compareWith)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", compareWith, err)
	}
	defer g2.Close()
	_, grains2, err := gsf.DecodeAll(g2)
	if err != nil {
		return nil, malformedError{fmt.Errorf("decode %s: %w", compareWith, err)}
	}

	cr := &compareReport{OK: true}
	for _, seg := range file.Segments {
		seqA := gsfcompare.NewSliceIterator(grains[seg.LocalID])
		seqB := gsfcompare.NewSliceIterator(grains2[seg.LocalID])
		diff, err := gsfcompare.CompareSequences(seqA, seqB, false, opts...)
		if err != nil {
			return nil, fmt.Errorf("compare segment %d: %w", seg.LocalID, err)
		}
		if !diff.OK {
			cr.OK = false
			cr.Index = diff.Index
		}
		for _, n := range diff.Diffs {
			cr.Summary = append(cr.Summary, n.Render())
		}
	}
	r.Compare = cr
	return r, nil
}

func printReport(r *report) {
	fmt.Printf("file_id: %s\n", r.FileID)
	fmt.Printf("created: %s\n", r.Created)
	for _, s := range r.Segments {
		fmt.Printf("segment %d: id=%s declared_count=%d observed_count=%d\n", s.LocalID, s.ID, s.DeclaredCount, s.ObservedCount)
		for variant, n := range s.VariantCounts {
			fmt.Printf("  %s: %d\n", variant, n)
		}
		for key, val := range s.Tags {
			fmt.Printf("  tag: %s=%s\n", key, val)
		}
	}
	if r.Compare != nil {
		fmt.Printf("compare: ok=%v stopped_at_index=%d\n", r.Compare.OK, r.Compare.Index)
		for _, line := range r.Compare.Summary {
			fmt.Print(line)
		}
	}
}
