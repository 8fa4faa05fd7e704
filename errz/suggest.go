package errz

import "sort"

// MaxSuggestionDistance bounds how different a candidate may be (in edits)
// from the target before it is no longer considered a plausible typo.
const MaxSuggestionDistance = 3

// MaxSuggestions caps how many candidates FormatSuggestions will mention.
const MaxSuggestions = 3

// Suggestion pairs a candidate identifier with its edit distance from the
// name that failed to resolve.
type Suggestion struct {
	Value    string
	Distance int
}

// SuggestSimilar returns the candidates nearest to target by Levenshtein
// distance, closest first, for use in ReferenceError "did you mean" hints.
func SuggestSimilar(target string, candidates []string) []Suggestion {
	threshold := MaxSuggestionDistance
	if len(target) <= 3 {
		threshold = 1
	}
	var out []Suggestion
	for _, c := range candidates {
		if c == target {
			continue
		}
		d := levenshtein(target, c)
		if d <= threshold {
			out = append(out, Suggestion{Value: c, Distance: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// FormatSuggestions renders suggestions as a "Did you mean" hint, or an
// empty string when there is nothing to suggest.
func FormatSuggestions(suggestions []Suggestion) string {
	if len(suggestions) == 0 {
		return ""
	}
	if len(suggestions) == 1 {
		return "Did you mean '" + suggestions[0].Value + "'?"
	}
	s := "Did you mean "
	for i, sug := range suggestions {
		if i > 0 {
			if i == len(suggestions)-1 {
				s += " or "
			} else {
				s += ", "
			}
		}
		s += "'" + sug.Value + "'"
	}
	return s + "?"
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}
