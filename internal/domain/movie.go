package domain

import "math"

// Movie is a recommendation candidate in the voting queue. Immutable once
// received; GroupScore and ParticipantsWhoLiked are server-computed.
type Movie struct {
	MovieID              MovieID  `json:"movie_id"`
	Title                string   `json:"title"`
	PosterPath           string   `json:"poster_path,omitempty"`
	GroupScore           float64  `json:"group_score"`
	Reasons              []string `json:"reasons"`
	ParticipantsWhoLiked []string `json:"participants_who_liked"`
}

// ScorePercent converts the 0..1 group score into a whole percentage for
// display. The client derives nothing else from scores.
func (m Movie) ScorePercent() int {
	return int(math.Round(m.GroupScore * 100))
}
