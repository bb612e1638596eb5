package text

import "unicode"

// ScriptRange is an inclusive interval of code points accepted by Validate
// in addition to Latin-1.
type ScriptRange struct {
	Name string
	Lo   rune
	Hi   rune
}

// Contains reports whether r lies within the range, bounds included.
func (sr ScriptRange) Contains(r rune) bool {
	return sr.Lo <= r && r <= sr.Hi
}

// allowedRanges must stay sorted and non-overlapping; allowedTable is
// derived from it.
var allowedRanges = []ScriptRange{
	{Name: "CJK symbols and punctuation", Lo: 0x3000, Hi: 0x303F},
	{Name: "Hiragana", Lo: 0x3040, Hi: 0x309F},
	{Name: "Katakana", Lo: 0x30A0, Hi: 0x30FF},
	{Name: "CJK unified ideographs", Lo: 0x4E00, Hi: 0x9FAF},
	{Name: "Halfwidth and fullwidth forms", Lo: 0xFF00, Hi: 0xFFEF},
}

var allowedTable = newRangeTable(allowedRanges)

func newRangeTable(ranges []ScriptRange) *unicode.RangeTable {
	rt := &unicode.RangeTable{R16: make([]unicode.Range16, 0, len(ranges))}
	for _, sr := range ranges {
		rt.R16 = append(rt.R16, unicode.Range16{Lo: uint16(sr.Lo), Hi: uint16(sr.Hi), Stride: 1})
	}
	return rt
}

// AllowedRanges returns a copy of the accepted non-Latin-1 script ranges in
// ascending order.
func AllowedRanges() []ScriptRange {
	return append([]ScriptRange(nil), allowedRanges...)
}

// IsSupported reports whether r may appear in normalized text: anything
// below U+0100, or a code point inside one of the allowed script ranges.
func IsSupported(r rune) bool {
	if r < 0x100 {
		return true
	}
	return unicode.Is(allowedTable, r)
}
