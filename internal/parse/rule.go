// Package parse turns noisy recognised screen text into a validated
// [game.Observation].
//
// Each numeric field is described by an ordered list of [Rule] values. A
// rule pairs a pattern whose first capture group holds the number with a
// range check. The first candidate that passes its check wins; candidates
// rejected by the check are treated as recognition noise and the search
// continues.
package parse

import (
	"regexp"
	"strconv"
)

// Rule is a single way of finding a field in recognised text.
type Rule struct {
	Pattern *regexp.Regexp
	Valid   func(int) bool
}

// Extract returns the first value in text that matches one of rules and
// passes its validator. Rules are tried in order and every match of a rule
// is tried before moving on to the next rule.
func Extract(text string, rules []Rule) (int, bool) {
	for _, r := range rules {
		for _, m := range r.Pattern.FindAllStringSubmatch(text, -1) {
			if len(m) < 2 {
				continue
			}
			v, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if r.Valid == nil || r.Valid(v) {
				return v, true
			}
		}
	}
	return 0, false
}

// Between returns a validator accepting lo <= v <= hi.
func Between(lo, hi int) func(int) bool {
	return func(v int) bool { return v >= lo && v <= hi }
}

// OneOf returns a validator accepting only the listed values.
func OneOf(vals ...int) func(int) bool {
	return func(v int) bool {
		for _, x := range vals {
			if v == x {
				return true
			}
		}
		return false
	}
}
