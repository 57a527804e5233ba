// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/terrain-ops/subgrid/cellpass"
	"github.com/terrain-ops/subgrid/types"
)

var passTypes = map[string]types.PassType{
	"front": types.PassTypeFront,
	"rear":  types.PassTypeRear,
	"track": types.PassTypeTrack,
	"wheel": types.PassTypeWheel,
}

// readPasses adds the cell passes listed in r to site. Each line holds a
// world position, an RFC 3339 time and a height, followed by optional
// key=value attributes:
//
//	12.25 3.5 2026-04-01T06:00:00Z 101.5 machine=1 ccv=500 pass=rear
//
// Blank lines and lines starting with # are skipped. It returns the number
// of passes added.
func readPasses(r io.Reader, site *cellpass.Site) (int, error) {
	sc := bufio.NewScanner(r)
	n := 0
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		wx, wy, p, err := parsePass(strings.Fields(text))
		if err != nil {
			return n, fmt.Errorf("line %d: %v", line, err)
		}
		if err := site.AddPassAt(wx, wy, p); err != nil {
			return n, fmt.Errorf("line %d: %v", line, err)
		}
		n++
	}
	return n, sc.Err()
}

func parsePass(fields []string) (wx, wy float64, p cellpass.CellPass, err error) {
	if len(fields) < 4 {
		return 0, 0, p, fmt.Errorf("want x y time height, got %q", strings.Join(fields, " "))
	}
	p = cellpass.NullCellPass()
	if wx, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return 0, 0, p, err
	}
	if wy, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return 0, 0, p, err
	}
	if p.Time, err = time.Parse(time.RFC3339Nano, fields[2]); err != nil {
		return 0, 0, p, err
	}
	h, err := strconv.ParseFloat(fields[3], 32)
	if err != nil {
		return 0, 0, p, err
	}
	p.Height = float32(h)
	for _, kv := range fields[4:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return 0, 0, p, fmt.Errorf("attribute %q is not key=value", kv)
		}
		if err := setAttribute(&p, k, v); err != nil {
			return 0, 0, p, fmt.Errorf("attribute %q: %v", k, err)
		}
	}
	return wx, wy, p, nil
}

func setAttribute(p *cellpass.CellPass, k, v string) error {
	intVal := func(bits int) (int64, error) { return strconv.ParseInt(v, 10, bits) }
	uintVal := func(bits int) (uint64, error) { return strconv.ParseUint(v, 10, bits) }
	var err error
	switch k {
	case "machine":
		var i int64
		i, err = intVal(16)
		p.MachineID = int16(i)
	case "ccv":
		var i int64
		i, err = intVal(16)
		p.CCV = int16(i)
	case "rmv":
		var i int64
		i, err = intVal(16)
		p.RMV = int16(i)
	case "mdp":
		var i int64
		i, err = intVal(16)
		p.MDP = int16(i)
	case "cca":
		var u uint64
		u, err = uintVal(8)
		p.CCA = uint8(u)
	case "freq":
		var u uint64
		u, err = uintVal(16)
		p.Frequency = uint16(u)
	case "amp":
		var u uint64
		u, err = uintVal(16)
		p.Amplitude = uint16(u)
	case "temp":
		var u uint64
		u, err = uintVal(16)
		p.MaterialTemperature = uint16(u)
	case "speed":
		var u uint64
		u, err = uintVal(16)
		p.MachineSpeed = uint16(u)
	case "gps":
		var u uint64
		u, err = uintVal(4)
		p.GPSMode = types.GPSMode(u)
	case "pass":
		pt, ok := passTypes[v]
		if !ok {
			return fmt.Errorf("unknown pass type %q", v)
		}
		p.PassType = pt
	case "half":
		p.HalfPass, err = strconv.ParseBool(v)
	case "vib":
		var on bool
		on, err = strconv.ParseBool(v)
		p.VibrationState = types.VibrationOff
		if on {
			p.VibrationState = types.VibrationOn
		}
	default:
		return fmt.Errorf("unknown attribute")
	}
	return err
}
