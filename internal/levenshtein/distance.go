// Package levenshtein measures how far a mistyped domain is from a
// known one. Adjacent transpositions count as a single edit
// (optimal string alignment), since "gmial" is one slip, not two.
package levenshtein

// Distance returns the optimal string alignment distance between s and t.
func Distance(s, t string) int {
	a, b := []rune(s), []rune(t)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Three rows: two back for transpositions.
	prev2 := make([]int, len(b)+1)
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d := min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				d = min(d, prev2[j-2]+1)
			}
			curr[j] = d
		}
		prev2, prev, curr = prev, curr, prev2
	}
	return prev[len(b)]
}

// Closest returns the candidate nearest to s whose distance is at most
// maxDist. An exact match returns ("", false): nothing to suggest.
// Ties go to the earlier candidate.
func Closest(s string, candidates []string, maxDist int) (string, bool) {
	best, bestDist := "", maxDist+1
	for _, c := range candidates {
		if c == s {
			return "", false
		}
		// Length difference is a lower bound on the distance.
		if diff := len([]rune(c)) - len([]rune(s)); diff > maxDist || -diff > maxDist {
			continue
		}
		if d := Distance(s, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}
