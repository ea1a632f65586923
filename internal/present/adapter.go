// Package present translates session snapshots into display-ready values for
// a UI layer. It renders nothing itself and holds no state of its own.
package present

import (
	"fmt"

	"github.com/roomkino/watchroom/internal/domain"
	"github.com/roomkino/watchroom/internal/session"
)

// Source is the read side of a session: snapshot pulls plus a coalescing
// change signal. Satisfied by *session.Session.
type Source interface {
	Snapshot() session.Snapshot
	Updates() <-chan struct{}
}

// RoomView is one snapshot flattened for display.
type RoomView struct {
	StateLabel   string
	Connected    bool
	RoomStatus   string
	Participants []string
	MovieTitle   string
	MoviePercent int
	Reasons      []string
	Progress     string
	VotedCurrent bool
	WinnerTitle  string
	WinnerScore  int
	Notice       string
}

type Adapter struct {
	src Source
}

func New(src Source) *Adapter {
	return &Adapter{src: src}
}

// Updates passes through the session's change signal.
func (a *Adapter) Updates() <-chan struct{} {
	return a.src.Updates()
}

// View builds the display projection of the current snapshot.
func (a *Adapter) View() RoomView {
	return Project(a.src.Snapshot())
}

// Project flattens one snapshot. Pure; tests feed it literals.
func Project(snap session.Snapshot) RoomView {
	v := RoomView{
		StateLabel: snap.State.String(),
		Connected:  snap.Connected,
		RoomStatus: string(snap.RoomStatus),
		Progress:   Progress(snap.MovieIndex, snap.TotalMovies),
	}
	for _, p := range snap.Participants {
		v.Participants = append(v.Participants, p.Name())
	}
	if snap.Movie != nil {
		v.MovieTitle = snap.Movie.Title
		v.MoviePercent = snap.Movie.ScorePercent()
		v.Reasons = snap.Movie.Reasons
		_, v.VotedCurrent = snap.Voted[snap.Movie.MovieID]
	}
	if snap.Result != nil {
		v.WinnerTitle = snap.Result.Winner.Title
		v.WinnerScore = scorePercent(snap.Result.Score)
	}
	switch {
	case snap.FaultErr != nil:
		v.Notice = "connection lost: " + snap.FaultErr.Error()
	case snap.LastError != "":
		v.Notice = snap.LastError
	}
	return v
}

// Progress renders the 1-based queue position, e.g. "2/5".
func Progress(index, total int) string {
	if total <= 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", index+1, total)
}

func scorePercent(score float64) int {
	return domain.Movie{GroupScore: score}.ScorePercent()
}
