package auth

import (
	"path"
	"strings"
)

// MatchPath checks whether a request path matches a "/"-segment glob:
//
//	"/auth/*"                     matches "/auth/login" but not "/auth/a/b"
//	"/citizen/**"                 matches "/citizen", "/citizen/complaints/7", ...
//	"/citizen/complaints/*/assign" matches "/citizen/complaints/42/assign"
//	"/**"                         matches every path
//
// Within a segment "*" and "?" follow path.Match. A malformed pattern
// never matches.
func MatchPath(pattern, p string) bool {
	return matchSegments(splitPath(pattern), splitPath(p))
}

func matchSegments(pattern, segs []string) bool {
	for len(pattern) > 0 {
		head := pattern[0]
		if head == "**" {
			rest := pattern[1:]
			// ** absorbs zero or more segments
			for i := 0; i <= len(segs); i++ {
				if matchSegments(rest, segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		ok, err := path.Match(head, segs[0])
		if err != nil || !ok {
			return false
		}
		pattern, segs = pattern[1:], segs[1:]
	}
	return len(segs) == 0
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// specificity ranks a pattern: literal segments weigh most, then
// single-segment wildcards, and a trailing ** weighs nothing.
func specificity(pattern string) int {
	score := 0
	for _, seg := range splitPath(pattern) {
		switch {
		case seg == "**":
		case strings.ContainsAny(seg, "*?["):
			score += 1
		default:
			score += 4
		}
	}
	return score
}
