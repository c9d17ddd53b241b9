package tally

import "sort"

// AuthorScore is one subject's contribution to its author's score.
type AuthorScore struct {
	AuthorID   string
	AuthorName string
	Score      int
}

// Entry is a ranked author.
type Entry struct {
	AuthorID   string
	AuthorName string
	Score      int
}

const leaderboardSize = 5

// RankAuthors sums scores per author across subjects and returns the top
// five, highest first. Ties keep first-encountered order (stable sort).
func RankAuthors(subjects []AuthorScore) []Entry {
	order := make([]string, 0, len(subjects))
	totals := make(map[string]*Entry, len(subjects))

	for _, s := range subjects {
		if e, ok := totals[s.AuthorID]; ok {
			e.Score += s.Score
			continue
		}
		totals[s.AuthorID] = &Entry{AuthorID: s.AuthorID, AuthorName: s.AuthorName, Score: s.Score}
		order = append(order, s.AuthorID)
	}

	entries := make([]Entry, 0, len(order))
	for _, id := range order {
		entries = append(entries, *totals[id])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	if len(entries) > leaderboardSize {
		entries = entries[:leaderboardSize]
	}
	return entries
}
