package store

// likeMatch reports whether s matches a SQL LIKE pattern where '%' matches
// any run of characters and '_' matches exactly one. There is no escape
// character, matching the unescaped patterns the plan produces.
func likeMatch(pattern, s string) bool {
	p := []rune(pattern)
	r := []rune(s)

	pi, si := 0, 0
	star, mark := -1, 0
	for si < len(r) {
		switch {
		case pi < len(p) && p[pi] == '%':
			star = pi
			mark = si
			pi++
		case pi < len(p) && (p[pi] == '_' || p[pi] == r[si]):
			pi++
			si++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '%' {
		pi++
	}
	return pi == len(p)
}
