package domain

// Vote is a participant's verdict on the current movie. The server only
// accepts the two values below; anything else comes back as a protocol error.
type Vote string

const (
	VoteLike    Vote = "like"
	VoteDislike Vote = "dislike"
)

func (v Vote) Valid() bool {
	return v == VoteLike || v == VoteDislike
}

// VotingResult is the terminal artifact of one voting session.
// Produced once by the server and retained immutably by the session.
type VotingResult struct {
	Winner            Movie              `json:"winner"`
	Score             float64            `json:"score"`
	AllScores         map[string]float64 `json:"all_scores"`
	TotalParticipants int                `json:"total_participants"`
}
