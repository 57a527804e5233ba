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

package subgridtree

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Layout of a marshalled BitMask, all integers big endian:
//
//	magic "SGBM" | version u8 | numLevels u8 | cellSize f64 | leaves u32
//	per leaf: originX u32 | originY u32 | flags u8 | 32 x stripe u32
const (
	bitMaskMagic   = "SGBM"
	bitMaskVersion = 1
	headerLen      = 4 + 1 + 1 + 8 + 4
	leafRecordLen  = 4 + 4 + 1 + Dimension*4

	flagPresent = 1 << 0
)

// ErrCorrupt is returned when unmarshalling malformed bit mask data.
var ErrCorrupt = errors.New("subgridtree: corrupt bit mask data")

// MarshalBinary implements encoding.BinaryMarshaler. The presence bit of each
// leaf is kept so that the set-but-not-pruned summary survives a round trip.
func (b *BitMask) MarshalBinary() ([]byte, error) {
	n := b.CountLeafSubGrids()
	buf := make([]byte, 0, headerLen+n*leafRecordLen)
	buf = append(buf, bitMaskMagic...)
	buf = append(buf, bitMaskVersion, b.numLevels)
	buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(b.cellSize))
	buf = binary.BigEndian.AppendUint32(buf, uint32(n))
	b.ForEachLeaf(func(l *Leaf[Bits]) bool {
		buf = binary.BigEndian.AppendUint32(buf, l.origin.X)
		buf = binary.BigEndian.AppendUint32(buf, l.origin.Y)
		var flags byte
		if wasPresent(l) {
			flags |= flagPresent
		}
		buf = append(buf, flags)
		for _, s := range l.Data {
			buf = binary.BigEndian.AppendUint32(buf, s)
		}
		return true
	})
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, replacing the
// content of b (and its tree parameters) with the decoded mask.
func (b *BitMask) UnmarshalBinary(data []byte) error {
	if len(data) < headerLen || string(data[:4]) != bitMaskMagic {
		return ErrCorrupt
	}
	if v := data[4]; v != bitMaskVersion {
		return fmt.Errorf("subgridtree: unsupported bit mask version %d", v)
	}
	numLevels := data[5]
	cellSize := math.Float64frombits(binary.BigEndian.Uint64(data[6:14]))
	if numLevels < 2 || numLevels > MaxNumLevels || !(cellSize > 0) {
		return ErrCorrupt
	}
	n := int(binary.BigEndian.Uint32(data[14:18]))
	rest := data[headerLen:]
	if len(rest) != n*leafRecordLen {
		return ErrCorrupt
	}

	t := New[Bits](numLevels, cellSize, nil)
	for i := 0; i < n; i++ {
		rec := rest[i*leafRecordLen : (i+1)*leafRecordLen]
		origin := Address{X: binary.BigEndian.Uint32(rec[0:4]), Y: binary.BigEndian.Uint32(rec[4:8])}
		if !t.InRange(origin) || origin.X&LocalMask != 0 || origin.Y&LocalMask != 0 {
			return ErrCorrupt
		}
		l := t.CreateLeaf(origin)
		for s := range l.Data {
			l.Data[s] = binary.BigEndian.Uint32(rec[9+4*s:])
		}
		if rec[8]&flagPresent != 0 {
			markPresent(l)
		}
	}
	b.Tree = t
	return nil
}
