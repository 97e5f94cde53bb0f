// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

package dynamic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/we-are-mono/kraken/protocol"
)

// Point pins the percent sent at one index of a percent curve.
type Point struct {
	Index   uint8
	Percent uint
}

// ParsePoint reads "<index>:<percent>". Percents above 100 are capped.
func ParsePoint(s string) (Point, error) {
	idx, pct, ok := strings.Cut(s, ":")
	if !ok {
		return Point{}, fmt.Errorf("invalid curve point %s", s)
	}
	i, err := strconv.ParseUint(idx, 10, 8)
	if err != nil || i > MaxIndex {
		return Point{}, fmt.Errorf("invalid curve index %s", idx)
	}
	p, err := strconv.ParseUint(pct, 10, 32)
	if err != nil {
		return Point{}, fmt.Errorf("invalid curve percent %s", pct)
	}
	if p > 100 {
		p = 100
	}
	return Point{Index: uint8(i), Percent: uint(p)}, nil
}

// ParsePercentCurve reads "<source> [max] <index>:<percent>..." and builds
// the table for role. Indices must increase strictly. Entries between points
// are interpolated linearly; entries outside them repeat the nearest point.
func ParsePercentCurve(role protocol.Role, words []string, sources Sources) (*Curve[protocol.PercentMessage], error) {
	sel, rest, err := ParseSelector(words, sources)
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		return nil, fmt.Errorf("%s curve needs at least one point", role)
	}

	points := make([]Point, 0, len(rest))
	for _, word := range rest {
		p, err := ParsePoint(word)
		if err != nil {
			return nil, err
		}
		if n := len(points); n > 0 && p.Index <= points[n-1].Index {
			return nil, fmt.Errorf("curve index %d does not follow %d", p.Index, points[n-1].Index)
		}
		points = append(points, p)
	}

	curve := &Curve[protocol.PercentMessage]{Selector: sel}
	for i := 0; i < TableSize; i++ {
		curve.Table[i] = protocol.EncodePercent(role, Interpolate(points, uint8(i)))
	}
	return curve, nil
}

// Interpolate returns the percent at index for a sorted, non-empty point list.
func Interpolate(points []Point, index uint8) uint {
	first, last := points[0], points[len(points)-1]
	if index <= first.Index {
		return first.Percent
	}
	if index >= last.Index {
		return last.Percent
	}

	for k := 1; k < len(points); k++ {
		a, b := points[k-1], points[k]
		if index > b.Index {
			continue
		}
		span := uint(b.Index - a.Index)
		lo := a.Percent * uint(b.Index-index)
		hi := b.Percent * uint(index-a.Index)
		return (lo + hi) / span
	}
	return last.Percent
}
