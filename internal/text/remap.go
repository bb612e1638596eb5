package text

import "strings"

// remapTable folds typographic punctuation to the ASCII forms the
// downstream vocabulary knows. No replacement contains a key.
var remapTable = map[rune]string{
	0x00B4: "'",   // acute accent
	0x1FEF: "'",   // greek varia
	0x1FFD: "'",   // greek oxia
	0x1FFE: "'",   // greek dasia
	0x2010: "-",   // hyphen
	0x2011: "-",   // non-breaking hyphen
	0x2012: "-",   // figure dash
	0x2013: "-",   // en dash
	0x2014: "-",   // em dash
	0x2015: "-",   // horizontal bar
	0x2016: "||",  // double vertical line
	0x2018: "'",   // left single quotation mark
	0x2019: "'",   // right single quotation mark
	0x201A: ",",   // single low-9 quotation mark
	0x201B: "`",   // single high-reversed-9 quotation mark
	0x201C: "\"",  // left double quotation mark
	0x201D: "\"",  // right double quotation mark
	0x201E: ",,",  // double low-9 quotation mark
	0x201F: "\"",  // double high-reversed-9 quotation mark
	0x2024: ".",   // one dot leader
	0x2025: "..",  // two dot leader
	0x2026: "...", // horizontal ellipsis
	0x2032: "'",   // prime
	0x2033: "\"",  // double prime
	0x2035: "'",   // reversed prime
	0x2036: "\"",  // reversed double prime
	0x2122: "TM",  // trade mark sign
}

// remapper applies remapTable in a single left-to-right pass; replaced
// output is never rescanned.
var remapper = newRemapper(remapTable)

func newRemapper(table map[rune]string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(table))
	for r, repl := range table {
		pairs = append(pairs, string(r), repl)
	}
	return strings.NewReplacer(pairs...)
}

// Remap replaces every character that has an entry in the remap table with
// its ASCII replacement. All other characters pass through unchanged.
func Remap(s string) string {
	return remapper.Replace(s)
}

// Remappings returns a copy of the remap table.
func Remappings() map[rune]string {
	out := make(map[rune]string, len(remapTable))
	for r, repl := range remapTable {
		out[r] = repl
	}
	return out
}
