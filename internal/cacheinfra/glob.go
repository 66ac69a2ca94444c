package cacheinfra

// GlobMatch reports whether key matches pattern. '*' matches any sequence
// of characters and '?' matches exactly one, the dialect the shared cache
// server applies to invalidation patterns. Keys are opaque strings: a '/'
// or any other byte embedded in a key matches like a plain character, and
// there are no character classes or escaping.
func GlobMatch(pattern, key string) bool {
	pi, ki := 0, 0
	star, mark := -1, 0
	for ki < len(key) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == key[ki]):
			pi++
			ki++
		case pi < len(pattern) && pattern[pi] == '*':
			star, mark = pi, ki
			pi++
		case star >= 0:
			// Backtrack: let the last '*' absorb one more byte.
			pi = star + 1
			mark++
			ki = mark
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
