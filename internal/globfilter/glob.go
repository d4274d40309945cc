// Package globfilter implements the glob-based include/exclude filtering
// used to select which project resources make it into a pack, and which of
// those get their bodies encrypted.
//
// Matching follows the editor's own wildcard semantics rather than
// filepath.Match: '*' matches any run of characters including path
// separators (so "*.png" matches "res://art/hero.png"), '?' matches any
// single character, and matching is case-insensitive throughout.
package globfilter

import "unicode"

// Match reports whether s matches the glob pattern. Supported syntax:
//
//	*        any run of characters (may be empty), including '/'
//	?        any single character
//	[abc]    one character from the set
//	[a-z]    one character from the range
//	[!abc]   one character NOT in the set
//
// Matching is case-insensitive.
func Match(pattern, s string) bool {
	return matchFold([]rune(pattern), []rune(s))
}

func matchFold(pattern, s []rune) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			// Collapse consecutive stars, then try every split point.
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if matchFold(pattern, s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		case '[':
			end := classEnd(pattern)
			if end < 0 {
				// Unterminated class: treat '[' as a literal.
				if len(s) == 0 || !runeEqualFold(pattern[0], s[0]) {
					return false
				}
				pattern = pattern[1:]
				s = s[1:]
				continue
			}
			if len(s) == 0 || !classMatches(pattern[1:end], s[0]) {
				return false
			}
			pattern = pattern[end+1:]
			s = s[1:]
		default:
			if len(s) == 0 || !runeEqualFold(pattern[0], s[0]) {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		}
	}
	return len(s) == 0
}

// classEnd returns the index of the closing ']' for the class starting at
// pattern[0] == '[', or -1 if there is none.
func classEnd(pattern []rune) int {
	for i := 1; i < len(pattern); i++ {
		if pattern[i] == ']' && i > 1 {
			return i
		}
	}
	return -1
}

func classMatches(class []rune, c rune) bool {
	negate := false
	if len(class) > 0 && (class[0] == '!' || class[0] == '^') {
		negate = true
		class = class[1:]
	}
	matched := false
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			lo, hi := class[i], class[i+2]
			if runeInRangeFold(c, lo, hi) {
				matched = true
			}
			i += 2
			continue
		}
		if runeEqualFold(class[i], c) {
			matched = true
		}
	}
	return matched != negate
}

func runeEqualFold(a, b rune) bool {
	return unicode.ToLower(a) == unicode.ToLower(b)
}

func runeInRangeFold(c, lo, hi rune) bool {
	cl := unicode.ToLower(c)
	return cl >= unicode.ToLower(lo) && cl <= unicode.ToLower(hi)
}

// MatchesAny reports whether pattern matches either the prefixed or
// unprefixed form of a path, satisfying the requirement that a user glob
// like "foo.txt" matches "res://foo.txt".
func MatchesAny(pattern, prefixed, unprefixed string) bool {
	return Match(pattern, prefixed) || Match(pattern, unprefixed)
}
