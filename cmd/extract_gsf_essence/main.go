// Command extract_gsf_essence writes one output file per segment of a
// GSF file, each the concatenation of that segment's grdt payloads in
// file order.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bbc/gsf/internal/cliutil"
	"github.com/bbc/gsf/pkg/gsf"
)

const usage = `extract_gsf_essence <in.gsf> <out-dir>
writes <out-dir>/<local_id>.essence per segment`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := cliutil.NewLogger("extract_gsf_essence")
	defer func() { _ = logger.Sync() }()

	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, usage)
		return 1
	}
	in, outDir := args[0], args[1]

	if err := extract(in, outDir, logger); err != nil {
		logger.Errorw("extract failed", "error", err)
		return 1
	}
	return 0
}

func extract(in, outDir string, logger interface {
	Infow(string, ...interface{})
}) error {
	f, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("open %s: %w", in, err)
	}
	defer f.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}

	d, err := gsf.NewDecoder(f)
	if err != nil {
		return fmt.Errorf("decode header: %w", err)
	}

	outputs := map[uint16]*os.File{}
	defer func() {
		for _, out := range outputs {
			out.Close()
		}
	}()

	for {
		localID, g, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read grain: %w", err)
		}

		out, ok := outputs[localID]
		if !ok {
			path := filepath.Join(outDir, fmt.Sprintf("%d.essence", localID))
			out, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			outputs[localID] = out
			logger.Infow("writing segment essence", "local_id", localID, "path", path)
		}

		data, err := g.Data.Bytes()
		if err != nil {
			return fmt.Errorf("read grain data for segment %d: %w", localID, err)
		}
		if _, err := out.Write(data); err != nil {
			return fmt.Errorf("write segment %d: %w", localID, err)
		}
	}
	return nil
}
