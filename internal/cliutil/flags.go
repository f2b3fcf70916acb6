package cliutil

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// Dimensions is a flag.Value for a "WxH" pixel dimensions argument,
// e.g. -size 1920x1080.
type Dimensions struct {
	Width, Height uint32
}

func (d *Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Set parses "WxH" into Width and Height.
func (d *Dimensions) Set(s string) error {
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return fmt.Errorf("cliutil: %q is not WIDTHxHEIGHT", s)
	}
	width, err := strconv.ParseUint(w, 10, 32)
	if err != nil {
		return fmt.Errorf("cliutil: invalid width %q: %w", w, err)
	}
	height, err := strconv.ParseUint(h, 10, 32)
	if err != nil {
		return fmt.Errorf("cliutil: invalid height %q: %w", h, err)
	}
	d.Width, d.Height = uint32(width), uint32(height)
	return nil
}

var _ flag.Value = (*Dimensions)(nil)

// Rational is a flag.Value for a "N/D" rational argument, e.g.
// -rate 25/1 or -duration 1/25.
type Rational struct {
	Numerator, Denominator uint32
}

func (r *Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// Set parses "N/D" into Numerator and Denominator.
func (r *Rational) Set(s string) error {
	n, d, ok := strings.Cut(s, "/")
	if !ok {
		return fmt.Errorf("cliutil: %q is not NUMERATOR/DENOMINATOR", s)
	}
	num, err := strconv.ParseUint(n, 10, 32)
	if err != nil {
		return fmt.Errorf("cliutil: invalid numerator %q: %w", n, err)
	}
	den, err := strconv.ParseUint(d, 10, 32)
	if err != nil {
		return fmt.Errorf("cliutil: invalid denominator %q: %w", d, err)
	}
	r.Numerator, r.Denominator = uint32(num), uint32(den)
	return nil
}

var _ flag.Value = (*Rational)(nil)
