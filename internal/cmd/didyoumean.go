package cmd

import "strings"

// suggestThreshold is the largest edit distance still worth suggesting.
const suggestThreshold = 3

// suggestCommand picks the closest known command for an unknown input.
// An input that is a prefix of a command matches outright (so "statement"
// finds "statements"); otherwise the smallest edit distance within
// suggestThreshold wins. Returns "" when nothing is close enough.
func suggestCommand(unknown string, commands []string) string {
	lowered := strings.ToLower(unknown)
	if lowered == "" {
		return ""
	}
	for _, name := range commands {
		if strings.HasPrefix(strings.ToLower(name), lowered) {
			return name
		}
	}
	best := ""
	bestDist := suggestThreshold + 1
	for _, name := range commands {
		if d := levenshtein(lowered, strings.ToLower(name)); d < bestDist {
			bestDist = d
			best = name
		}
	}
	return best
}

// suggestFlag is suggestCommand for flags. Dashes are stripped for the
// comparison; the match is returned with its original prefix.
func suggestFlag(unknown string, flags []string) string {
	lowered := strings.ToLower(strings.TrimLeft(unknown, "-"))
	if lowered == "" {
		return ""
	}
	for _, flag := range flags {
		if strings.HasPrefix(strings.ToLower(strings.TrimLeft(flag, "-")), lowered) {
			return flag
		}
	}
	best := ""
	bestDist := suggestThreshold + 1
	for _, flag := range flags {
		if d := levenshtein(lowered, strings.ToLower(strings.TrimLeft(flag, "-"))); d < bestDist {
			bestDist = d
			best = flag
		}
	}
	return best
}

// levenshtein computes the edit distance between a and b with two working
// rows swapped per iteration.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

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
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
