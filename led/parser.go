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

package led

import (
	"errors"
	"strings"

	"github.com/we-are-mono/kraken/dynamic"
	"github.com/we-are-mono/kraken/protocol"
)

// Partitions is the number of color groups in a dynamic LED value. Group k
// covers indices 2k and 2k+1; the last group covers index 100 alone.
const Partitions = dynamic.TableSize/2 + 1

// Setting is a parsed LED attribute value. Exactly one member is set.
type Setting struct {
	Static *Batch
	Curve  *dynamic.Curve[Batch]
}

// AttrName returns the attribute that configures zone.
func AttrName(zone protocol.Which) string {
	return "led_" + ZoneName(zone)
}

// Parse reads an attribute value for zone. Accepted forms:
//
//	off
//	<preset> [moving <bool>] [direction <dir>] [interval <speed>] [group_size <n>] <cycle>...
//	dynamic <source> [max] <partition>...
//
// A cycle is "color <c>" for the logo, "colors <c>x8" for the ring and
// "colors <logo> <c>x8" for sync. A partition is "off" or the bare colors.
func Parse(zone protocol.Which, input string, sources dynamic.Sources) (Setting, error) {
	s, err := parse(zone, strings.Fields(input), sources)
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Attr == "" {
		ve.Attr = AttrName(zone)
	}
	return s, err
}

func parse(zone protocol.Which, words []string, sources dynamic.Sources) (Setting, error) {
	if len(words) == 0 {
		return Setting{}, invalidf("empty value")
	}

	switch strings.ToLower(words[0]) {
	case "off":
		if len(words) > 1 {
			return Setting{}, invalidf("trailing data %q", strings.Join(words[1:], " "))
		}
		b := Off(zone)
		return Setting{Static: &b}, nil
	case "dynamic":
		curve, err := parseDynamic(zone, words[1:], sources)
		if err != nil {
			return Setting{}, err
		}
		return Setting{Curve: curve}, nil
	}

	req, err := parseRequest(zone, words)
	if err != nil {
		return Setting{}, err
	}
	b, err := Render(zone, req)
	if err != nil {
		return Setting{}, err
	}
	return Setting{Static: &b}, nil
}

func parseRequest(zone protocol.Which, words []string) (Request, error) {
	preset, err := ParsePreset(words[0])
	if err != nil {
		return Request{}, err
	}
	req := Request{Preset: preset}

	rest := words[1:]
	for len(rest) > 0 {
		key := strings.ToLower(rest[0])
		args := rest[1:]

		switch key {
		case "color", "colors":
			cycle, tail, err := parseCycle(zone, key, args)
			if err != nil {
				return Request{}, err
			}
			req.Cycles = append(req.Cycles, cycle)
			rest = tail
			continue
		case "moving", "direction", "interval", "group_size":
		default:
			return Request{}, invalidf("invalid key %s", rest[0])
		}

		if len(args) == 0 {
			return Request{}, invalidf("missing value for key %s", key)
		}
		value := args[0]
		rest = args[1:]

		switch key {
		case "moving":
			if req.Moving != nil {
				return Request{}, invalidf("duplicate key %s", key)
			}
			b, err := ParseBool(value)
			if err != nil {
				return Request{}, err
			}
			req.Moving = &b
		case "direction":
			if req.Direction != nil {
				return Request{}, invalidf("duplicate key %s", key)
			}
			d, err := ParseDirection(value)
			if err != nil {
				return Request{}, err
			}
			req.Direction = &d
		case "interval":
			if req.Interval != nil {
				return Request{}, invalidf("duplicate key %s", key)
			}
			i, err := ParseInterval(value)
			if err != nil {
				return Request{}, err
			}
			req.Interval = &i
		case "group_size":
			if req.GroupSize != nil {
				return Request{}, invalidf("duplicate key %s", key)
			}
			g, err := ParseGroupSize(value)
			if err != nil {
				return Request{}, err
			}
			req.GroupSize = &g
		}
	}
	return req, nil
}

// parseCycle reads the colors following a color or colors key.
func parseCycle(zone protocol.Which, key string, args []string) (Cycle, []string, error) {
	switch {
	case zone == protocol.WhichLogo && key == "color":
	case zone != protocol.WhichLogo && key == "colors":
	default:
		return Cycle{}, nil, invalidf("illegal key %s for %s", key, ZoneName(zone))
	}
	return parseColors(zone, args)
}

// parseColors reads one cycle worth of bare colors for zone.
func parseColors(zone protocol.Which, words []string) (Cycle, []string, error) {
	var cycle Cycle

	if zone != protocol.WhichRing {
		if len(words) == 0 {
			return Cycle{}, nil, invalidf("missing logo color")
		}
		c, err := ParseColor(words[0])
		if err != nil {
			return Cycle{}, nil, err
		}
		cycle.Logo = c
		words = words[1:]
	}

	if zone != protocol.WhichLogo {
		if len(words) < protocol.RingColors {
			return Cycle{}, nil, invalidf("ring needs %d colors, got %d", protocol.RingColors, len(words))
		}
		for i := range cycle.Ring {
			c, err := ParseColor(words[i])
			if err != nil {
				return Cycle{}, nil, err
			}
			cycle.Ring[i] = c
		}
		words = words[protocol.RingColors:]
	}
	return cycle, words, nil
}

func parseDynamic(zone protocol.Which, words []string, sources dynamic.Sources) (*dynamic.Curve[Batch], error) {
	sel, rest, err := dynamic.ParseSelector(words, sources)
	if err != nil {
		return nil, err
	}

	curve := &dynamic.Curve[Batch]{Selector: sel}
	for k := 0; k < Partitions; k++ {
		if len(rest) == 0 {
			return nil, invalidf("expected %d partitions, got %d", Partitions, k)
		}

		var b Batch
		if strings.EqualFold(rest[0], "off") {
			b = Off(zone)
			rest = rest[1:]
		} else {
			var cycle Cycle
			cycle, rest, err = parseColors(zone, rest)
			if err != nil {
				return nil, err
			}
			b = Solid(zone, cycle)
		}

		curve.Table[2*k] = b
		if 2*k+1 < dynamic.TableSize {
			curve.Table[2*k+1] = b
		}
	}
	if len(rest) > 0 {
		return nil, invalidf("trailing data %q", strings.Join(rest, " "))
	}
	return curve, nil
}
