package text

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
)

// Normalize prepares raw input text for the speech model's vocabulary.
// The stages run in a fixed order:
//  1. Remap typographic punctuation to ASCII.
//  2. Reject characters outside Latin-1 and the allowed script ranges.
//  3. Apply NFKC compatibility folding.
//  4. Collapse whitespace.
//
// On rejection the returned string is empty and the error is an
// *UnsupportedCharacterError. Validation happens before folding, so a few
// accepted characters (µ, ½, ¨, ￣) fold to code points outside the
// supported set.
func Normalize(s string) (string, error) {
	s = Remap(s)

	if err := Validate(s); err != nil {
		return "", err
	}

	return CollapseWhitespace(Fold(s)), nil
}

// Validate returns an *UnsupportedCharacterError listing every distinct
// character in s that is neither below U+0100 nor inside an allowed script
// range. It never modifies s.
func Validate(s string) error {
	var set offenderSet
	for _, r := range s {
		if !IsSupported(r) {
			set.add(r)
		}
	}
	return set.err()
}

// Fold applies Unicode normalization form KC.
func Fold(s string) string {
	return norm.NFKC.String(s)
}

var whitespaceReplacer = strings.NewReplacer(
	"\t", " ",
	"\n", " ",
	"\r", " ",
	"*", " ",
)

// isCollapsible reports Unicode white space plus the ASCII information
// separators U+001C..U+001F.
func isCollapsible(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1C && r <= 0x1F)
}

// CollapseWhitespace turns tabs, newlines, carriage returns and asterisks
// into spaces, trims both ends and collapses every run of whitespace to a
// single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.FieldsFunc(whitespaceReplacer.Replace(s), isCollapsible), " ")
}

// NormalizeAll normalizes each input with at most limit concurrent workers.
// Results keep input order. When inputs are rejected, the error for the
// lowest index is returned as a *BatchError.
func NormalizeAll(ctx context.Context, inputs []string, limit int) ([]string, error) {
	out := make([]string, len(inputs))
	errs := make([]error, len(inputs))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i], errs[i] = Normalize(in)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, err := range errs {
		if err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
	}

	return out, nil
}
