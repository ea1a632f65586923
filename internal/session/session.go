// Package session holds the client-side state machine of one room voting
// session. All state is owned by a single mutex-guarded Session; the only
// writers are decoded inbound frames and explicit user commands, and readers
// get copies, never the live fields.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/roomkino/watchroom/internal/domain"
	"github.com/roomkino/watchroom/internal/protocol"
	"github.com/roomkino/watchroom/internal/transport"
)

// State is the session lifecycle position.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateWaiting
	StateVoting
	StateConcluded
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateWaiting:
		return "waiting"
	case StateVoting:
		return "voting"
	case StateConcluded:
		return "concluded"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

var (
	ErrNotVoting    = errors.New("no movie is currently up for a vote")
	ErrAlreadyVoted = errors.New("vote already submitted for this movie")
	ErrInvalidVote  = errors.New("vote must be like or dislike")
	ErrNotConnected = errors.New("session is not connected")
)

// Conn is the transport surface the session drives. Satisfied by
// *transport.Transport; tests substitute a recorder.
type Conn interface {
	Connect(ctx context.Context, roomID domain.RoomID, credential string) error
	Disconnect()
	Send(data []byte) error
	Connected() bool
}

// Session is the authoritative in-memory view of one voting session.
type Session struct {
	conn Conn

	mu           sync.RWMutex
	state        State
	roomID       domain.RoomID
	participants []domain.Participant
	roomStatus   domain.RoomStatus
	movie        *domain.Movie
	movieIndex   int
	totalMovies  int
	haveCursor   bool
	voted        map[domain.MovieID]domain.Vote
	confirmed    map[domain.MovieID]domain.Vote
	result       *domain.VotingResult
	lastError    string
	faultErr     error

	updates chan struct{}
}

// New builds a session over a live WebSocket transport.
func New(cfg transport.Config) *Session {
	s := newSession()
	s.conn = transport.New(cfg, s.handleFrame, s.handleFault)
	return s
}

// newWith injects the transport; used by tests.
func newWith(conn Conn) *Session {
	s := newSession()
	s.conn = conn
	return s
}

func newSession() *Session {
	return &Session{
		state:     StateIdle,
		voted:     make(map[domain.MovieID]domain.Vote),
		confirmed: make(map[domain.MovieID]domain.Vote),
		updates:   make(chan struct{}, 1),
	}
}

// Connect opens the room session. Safe to call again after a fault or a
// concluded session: all per-session state is discarded and rebuilt from the
// server's pushes — the server-side queue position is authoritative and the
// client never resumes from a stale local cursor.
func (s *Session) Connect(ctx context.Context, roomID domain.RoomID, credential string) error {
	s.mu.Lock()
	s.resetLocked(roomID)
	s.state = StateConnecting
	s.notifyLocked()
	s.mu.Unlock()

	err := s.conn.Connect(ctx, roomID, credential)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFaulted
		s.faultErr = err
		s.notifyLocked()
		return err
	}
	// A pushed frame may already have moved us past Connecting. A fault can
	// also land mid-dial when this call supersedes a connection that died
	// before the transport swapped it out; that fault belongs to the old
	// connection, so a successful dial owns the transition either way.
	if s.state == StateConnecting || s.state == StateFaulted {
		s.state = StateWaiting
		s.faultErr = nil
	}
	s.notifyLocked()
	return nil
}

// Disconnect stops the transport. Concluded and Faulted sessions keep their
// state for display; anything else returns to Idle. Idempotent.
func (s *Session) Disconnect() {
	s.conn.Disconnect()
	s.mu.Lock()
	switch s.state {
	case StateIdle, StateConcluded, StateFaulted:
	default:
		s.state = StateIdle
	}
	s.notifyLocked()
	s.mu.Unlock()
}

// SubmitVote sends this participant's verdict on the current movie. A second
// submission for the same movie is rejected locally; the guard lifts when the
// server advances the cursor to a new movie. The vote is reflected
// optimistically — the confirmation frame only reconciles bookkeeping.
func (s *Session) SubmitVote(vote domain.Vote) error {
	if !vote.Valid() {
		return ErrInvalidVote
	}

	s.mu.Lock()
	if s.state != StateVoting || s.movie == nil {
		s.mu.Unlock()
		return ErrNotVoting
	}
	id := s.movie.MovieID
	if _, dup := s.voted[id]; dup {
		s.mu.Unlock()
		return ErrAlreadyVoted
	}
	frame, err := protocol.Encode(protocol.VoteCommand{MovieID: id, Vote: vote})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.voted[id] = vote
	s.notifyLocked()
	s.mu.Unlock()

	log.Info().Str("module", "session").Str("movie", string(id)).Str("vote", string(vote)).Msg("vote submitted")
	return s.conn.Send(frame)
}

// RequestRoomStatus asks the server to push a fresh room_state.
func (s *Session) RequestRoomStatus() error {
	if !s.conn.Connected() {
		return ErrNotConnected
	}
	frame, err := protocol.Encode(protocol.RoomStatusCommand{})
	if err != nil {
		return err
	}
	return s.conn.Send(frame)
}

// Updates signals that a new snapshot is available. Notifications coalesce;
// consumers pull Snapshot when woken.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

func (s *Session) handleFrame(data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		// A frame matching no known shape is dropped, not fatal.
		log.Warn().Err(err).Str("module", "session").Msg("dropping undecodable frame")
		return
	}
	s.mu.Lock()
	s.applyLocked(msg)
	s.notifyLocked()
	s.mu.Unlock()
}

func (s *Session) handleFault(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faultErr = err
	// A concluded session already has its result; a late transport error
	// does not demote it. Everything else faults, keeping the last known
	// data read-only for display.
	if s.state != StateConcluded {
		s.state = StateFaulted
	}
	s.notifyLocked()
	log.Error().Err(err).Str("module", "session").Str("room", string(s.roomID)).Msg("session fault")
}

func (s *Session) applyLocked(msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.RoomState:
		if s.state != StateConnecting && s.state != StateWaiting && s.state != StateVoting {
			return
		}
		s.participants = m.Participants
		s.roomStatus = m.Status
		if s.state == StateConnecting {
			s.state = StateWaiting
		}

	case protocol.CurrentMovie:
		if s.state != StateConnecting && s.state != StateWaiting && s.state != StateVoting {
			log.Warn().Str("module", "session").Str("state", s.state.String()).Msg("ignoring current_movie outside voting flow")
			return
		}
		if s.haveCursor && m.MovieIndex < s.movieIndex {
			log.Warn().Str("module", "session").Int("index", m.MovieIndex).Int("cursor", s.movieIndex).Msg("ignoring stale current_movie")
			return
		}
		if s.haveCursor && m.TotalMovies != s.totalMovies {
			// The queue length is fixed per session; keep the first value.
			log.Warn().Str("module", "session").Int("got", m.TotalMovies).Int("have", s.totalMovies).Msg("conflicting total_movies")
		} else if !s.haveCursor {
			s.totalMovies = m.TotalMovies
		}
		movie := m.Movie
		s.movie = &movie
		s.movieIndex = m.MovieIndex
		s.haveCursor = true
		s.state = StateVoting

	case protocol.VoteConfirmed:
		// Acknowledgment only. The cursor advances exclusively on
		// current_movie pushes.
		s.confirmed[m.MovieID] = m.Vote

	case protocol.VotingResult:
		if s.state == StateConcluded {
			return
		}
		s.result = &domain.VotingResult{
			Winner:            m.Winner,
			Score:             m.Score,
			AllScores:         m.AllScores,
			TotalParticipants: m.TotalParticipants,
		}
		s.state = StateConcluded
		log.Info().Str("module", "session").Str("winner", string(m.Winner.MovieID)).Float64("score", m.Score).Msg("voting concluded")

	case protocol.ServerError:
		s.lastError = m.Message
	}
}

func (s *Session) resetLocked(roomID domain.RoomID) {
	s.roomID = roomID
	s.participants = nil
	s.roomStatus = ""
	s.movie = nil
	s.movieIndex = 0
	s.totalMovies = 0
	s.haveCursor = false
	s.voted = make(map[domain.MovieID]domain.Vote)
	s.confirmed = make(map[domain.MovieID]domain.Vote)
	s.result = nil
	s.lastError = ""
	s.faultErr = nil
}

func (s *Session) notifyLocked() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
