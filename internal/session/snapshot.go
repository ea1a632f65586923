package session

import "github.com/roomkino/watchroom/internal/domain"

// Snapshot is a point-in-time copy of the session. Maps and slices are
// copied so no reader ever aliases the live state.
type Snapshot struct {
	State        State
	RoomID       domain.RoomID
	Participants []domain.Participant
	RoomStatus   domain.RoomStatus
	Movie        *domain.Movie
	MovieIndex   int
	TotalMovies  int
	Voted        map[domain.MovieID]domain.Vote
	Confirmed    map[domain.MovieID]domain.Vote
	Result       *domain.VotingResult
	LastError    string
	FaultErr     error
	Connected    bool
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		State:       s.state,
		RoomID:      s.roomID,
		RoomStatus:  s.roomStatus,
		MovieIndex:  s.movieIndex,
		TotalMovies: s.totalMovies,
		LastError:   s.lastError,
		FaultErr:    s.faultErr,
		Connected:   s.conn.Connected(),
	}
	if len(s.participants) > 0 {
		snap.Participants = append([]domain.Participant(nil), s.participants...)
	}
	if s.movie != nil {
		movie := cloneMovie(*s.movie)
		snap.Movie = &movie
	}
	snap.Voted = make(map[domain.MovieID]domain.Vote, len(s.voted))
	for k, v := range s.voted {
		snap.Voted[k] = v
	}
	snap.Confirmed = make(map[domain.MovieID]domain.Vote, len(s.confirmed))
	for k, v := range s.confirmed {
		snap.Confirmed[k] = v
	}
	if s.result != nil {
		res := *s.result
		res.Winner = cloneMovie(s.result.Winner)
		res.AllScores = make(map[string]float64, len(s.result.AllScores))
		for k, v := range s.result.AllScores {
			res.AllScores[k] = v
		}
		snap.Result = &res
	}
	return snap
}

func cloneMovie(m domain.Movie) domain.Movie {
	m.Reasons = append([]string(nil), m.Reasons...)
	m.ParticipantsWhoLiked = append([]string(nil), m.ParticipantsWhoLiked...)
	return m
}
