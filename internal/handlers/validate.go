package handlers

import (
	"fmt"
	"unicode/utf8"
)

type fieldLimit struct {
	name  string
	value *string
	max   int
}

func limit(name string, value *string, max int) fieldLimit {
	return fieldLimit{name: name, value: value, max: max}
}

// checkLengths returns an error for the first value longer than its column.
// Lengths are counted in characters, as VARCHAR does.
func checkLengths(limits ...fieldLimit) error {
	for _, l := range limits {
		if l.value != nil && utf8.RuneCountInString(*l.value) > l.max {
			return fmt.Errorf("%s must be at most %d characters", l.name, l.max)
		}
	}
	return nil
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
