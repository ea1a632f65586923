// Package restapi is the room control client: the out-of-band REST surface
// that creates rooms, manages membership and invitations, and starts voting.
// The live session protocol consumes its effects but never performs them.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/roomkino/watchroom/internal/domain"
)

// ErrUnauthorized marks a 401/403: the credential is invalid for the whole
// session, not just one call. The OnUnauthorized hook fires alongside it so
// the owner can trigger a global sign-out.
var ErrUnauthorized = errors.New("credential rejected")

// APIError is a non-2xx response with the server's {detail} body.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
}

type Client struct {
	base           string
	credential     string
	http           *http.Client
	onUnauthorized func()
}

// New builds a client for the given API base, e.g.
// "https://itsjustwatched.com/api/v1". The credential is an opaque bearer
// token supplied externally.
func New(base, credential string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base:       base,
		credential: credential,
		http:       &http.Client{Timeout: timeout},
	}
}

// OnUnauthorized registers the global credential-invalidation hook.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, ok ...int) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.credential)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		log.Warn().Str("module", "restapi").Int("status", resp.StatusCode).Str("path", path).Msg("credential rejected")
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, errDetail(data, resp.StatusCode))
	}
	if !statusOK(resp.StatusCode, ok) {
		return &APIError{Status: resp.StatusCode, Detail: errDetail(data, resp.StatusCode)}
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func statusOK(code int, ok []int) bool {
	if len(ok) == 0 {
		return code == http.StatusOK
	}
	for _, c := range ok {
		if code == c {
			return true
		}
	}
	return false
}

func errDetail(data []byte, status int) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return http.StatusText(status)
}

type CreateRoomRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	MaxParticipants int    `json:"max_participants"`
}

type UpdateRoomRequest struct {
	Name            *string `json:"name,omitempty"`
	Description     *string `json:"description,omitempty"`
	MaxParticipants *int    `json:"max_participants,omitempty"`
}

type ProcessResponse struct {
	Status              string `json:"status"`
	Message             string `json:"message"`
	ParticipantCount    int    `json:"participant_count"`
	RecommendationCount int    `json:"recommendation_count"`
}

type RecommendationsResponse struct {
	RoomID           domain.RoomID  `json:"room_id"`
	Recommendations  []domain.Movie `json:"recommendations"`
	GeneratedAt      string         `json:"generated_at"`
	ParticipantCount int            `json:"participant_count"`
}

// ListRooms returns the caller's rooms. The endpoint exists in two response
// shapes in the wild; bare-array decoding is attempted first, then the
// wrapped form.
func (c *Client) ListRooms(ctx context.Context) ([]domain.Room, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/rooms/", nil, &raw); err != nil {
		return nil, err
	}
	var rooms []domain.Room
	if err := json.Unmarshal(raw, &rooms); err == nil {
		return rooms, nil
	}
	var wrapped struct {
		Rooms      []domain.Room `json:"rooms"`
		TotalCount int           `json:"total_count"`
		HasMore    bool          `json:"has_more"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode rooms list: %w", err)
	}
	return wrapped.Rooms, nil
}

func (c *Client) GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	var room domain.Room
	if err := c.do(ctx, http.MethodGet, "/rooms/"+string(id), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) CreateRoom(ctx context.Context, req CreateRoomRequest) (*domain.Room, error) {
	var room domain.Room
	if err := c.do(ctx, http.MethodPost, "/rooms/", req, &room, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) UpdateRoom(ctx context.Context, id domain.RoomID, req UpdateRoomRequest) (*domain.Room, error) {
	var room domain.Room
	if err := c.do(ctx, http.MethodPut, "/rooms/"+string(id), req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	return c.do(ctx, http.MethodDelete, "/rooms/"+string(id), nil, nil, http.StatusOK, http.StatusNoContent)
}

func (c *Client) JoinRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	var room domain.Room
	if err := c.do(ctx, http.MethodPost, "/rooms/"+string(id)+"/join", nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) LeaveRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	var room domain.Room
	if err := c.do(ctx, http.MethodPost, "/rooms/"+string(id)+"/leave", nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) ProcessRecommendations(ctx context.Context, id domain.RoomID) (*ProcessResponse, error) {
	var out ProcessResponse
	if err := c.do(ctx, http.MethodPost, "/rooms/"+string(id)+"/process", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Recommendations(ctx context.Context, id domain.RoomID) (*RecommendationsResponse, error) {
	var out RecommendationsResponse
	if err := c.do(ctx, http.MethodGet, "/rooms/"+string(id)+"/recommendations", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartVoting moves the room into its voting phase. This REST call is the
// only sanctioned trigger; the socket-level start_voting command is a legacy
// no-op on current servers.
func (c *Client) StartVoting(ctx context.Context, id domain.RoomID) error {
	return c.do(ctx, http.MethodPost, "/rooms/"+string(id)+"/start-voting", nil, nil)
}

func (c *Client) InviteFriends(ctx context.Context, id domain.RoomID, friendIDs []domain.UserID) error {
	req := struct {
		FriendIDs []domain.UserID `json:"friend_ids"`
	}{friendIDs}
	return c.do(ctx, http.MethodPost, "/rooms/"+string(id)+"/invite", req, nil)
}

// MyInvitations lists invitations addressed to the caller. Same dual-shape
// contract as ListRooms.
func (c *Client) MyInvitations(ctx context.Context) ([]domain.Invitation, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/rooms/invitations", nil, &raw); err != nil {
		return nil, err
	}
	var invitations []domain.Invitation
	if err := json.Unmarshal(raw, &invitations); err == nil {
		return invitations, nil
	}
	var wrapped struct {
		Invitations []domain.Invitation `json:"invitations"`
		TotalCount  int                 `json:"total_count"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode invitations list: %w", err)
	}
	return wrapped.Invitations, nil
}

type InvitationAction string

const (
	InvitationAccept  InvitationAction = "accept"
	InvitationDecline InvitationAction = "decline"
)

func (c *Client) RespondToInvitation(ctx context.Context, invitationID string, action InvitationAction) error {
	req := struct {
		Action InvitationAction `json:"action"`
	}{action}
	return c.do(ctx, http.MethodPut, "/rooms/invitations/"+invitationID, req, nil)
}

// RoomInvitations lists a room's invitations (owner only). Same dual-shape
// contract as the other listing endpoints.
func (c *Client) RoomInvitations(ctx context.Context, id domain.RoomID) ([]domain.Invitation, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/rooms/"+string(id)+"/invitations", nil, &raw); err != nil {
		return nil, err
	}
	var invitations []domain.Invitation
	if err := json.Unmarshal(raw, &invitations); err == nil {
		return invitations, nil
	}
	var wrapped struct {
		Invitations []domain.Invitation `json:"invitations"`
		TotalCount  int                 `json:"total_count"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode room invitations list: %w", err)
	}
	return wrapped.Invitations, nil
}

func (c *Client) RemoveMember(ctx context.Context, id domain.RoomID, member domain.UserID) error {
	return c.do(ctx, http.MethodDelete, "/rooms/"+string(id)+"/members/"+string(member), nil, nil)
}
