package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/bbc/gsf/pkg/gsfcompare"
)

// profileRule is one entry of a -profile YAML file, the nearest
// domain analogue to the teacher's YAML-configured monitor settings:
// a named set of comparator rules loaded once and applied to every
// segment compared.
//
// Example:
//
//	rules:
//	  - path: origin_timestamp
//	    kind: expected_difference
//	    op: "=="
//	    value: 40000000
//	  - path: data
//	    kind: psnr
//	    op: "<"
//	    thresholds: [30, 30, 30]
type profileRule struct {
	Path       string    `yaml:"path"`
	Kind       string    `yaml:"kind"`
	Op         string    `yaml:"op"`
	Value      int64     `yaml:"value"`
	Thresholds []float64 `yaml:"thresholds"`
}

type profile struct {
	Rules []profileRule `yaml:"rules"`
}

func loadProfile(path string) ([]gsfcompare.Option, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var p profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	opts := make([]gsfcompare.Option, 0, len(p.Rules))
	for _, r := range p.Rules {
		switch r.Kind {
		case "include":
			opts = append(opts, gsfcompare.Include(r.Path))
		case "exclude":
			opts = append(opts, gsfcompare.Exclude(r.Path))
		case "expected_difference":
			op, err := parseOp(r.Op)
			if err != nil {
				return nil, fmt.Errorf("rule for %s: %w", r.Path, err)
			}
			opts = append(opts, gsfcompare.ExpectedDifference(r.Path, op, r.Value))
		case "psnr":
			op, err := parseOp(r.Op)
			if err != nil {
				return nil, fmt.Errorf("rule for %s: %w", r.Path, err)
			}
			opts = append(opts, gsfcompare.PSNR(r.Path, op, r.Thresholds))
		default:
			return nil, fmt.Errorf("unknown rule kind %q for path %s", r.Kind, r.Path)
		}
	}
	return opts, nil
}

func parseOp(s string) (gsfcompare.Op, error) {
	switch s {
	case "==":
		return gsfcompare.OpEQ, nil
	case "!=":
		return gsfcompare.OpNE, nil
	case "<":
		return gsfcompare.OpLT, nil
	case "<=":
		return gsfcompare.OpLE, nil
	case ">":
		return gsfcompare.OpGT, nil
	case ">=":
		return gsfcompare.OpGE, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", s)
	}
}
