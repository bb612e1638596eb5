package text

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedCharacter matches any *UnsupportedCharacterError via errors.Is.
var ErrUnsupportedCharacter = errors.New("unsupported character")

// Offender is a rejected character together with its code point.
type Offender struct {
	Char      rune
	CodePoint int
}

func (o Offender) String() string {
	return fmt.Sprintf("%q (U+%04X, %d)", o.Char, o.CodePoint, o.CodePoint)
}

// UnsupportedCharacterError is returned when input contains characters
// outside Latin-1 and the allowed script ranges. Offenders are unique and
// listed in order of first occurrence.
type UnsupportedCharacterError struct {
	Offenders []Offender
}

func (e *UnsupportedCharacterError) Error() string {
	parts := make([]string, len(e.Offenders))
	for i, o := range e.Offenders {
		parts[i] = o.String()
	}
	return fmt.Sprintf("unsupported characters found: [%s]", strings.Join(parts, ", "))
}

func (e *UnsupportedCharacterError) Is(target error) bool {
	return target == ErrUnsupportedCharacter
}

// BatchError reports which input of a batch failed.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("input %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// offenderSet collects unique offenders in insertion order.
type offenderSet struct {
	seen map[rune]struct{}
	list []Offender
}

func (s *offenderSet) add(r rune) {
	if _, ok := s.seen[r]; ok {
		return
	}
	if s.seen == nil {
		s.seen = make(map[rune]struct{})
	}
	s.seen[r] = struct{}{}
	s.list = append(s.list, Offender{Char: r, CodePoint: int(r)})
}

func (s *offenderSet) err() error {
	if len(s.list) == 0 {
		return nil
	}
	return &UnsupportedCharacterError{Offenders: s.list}
}
