// Package transport maintains the single live WebSocket connection of a room
// voting session: dialing, the receive loop, the application-level keep-alive
// and teardown. It carries no retry policy; reconnecting is the caller's call.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/roomkino/watchroom/internal/domain"
	"github.com/roomkino/watchroom/internal/protocol"
)

var (
	ErrConnect        = errors.New("connect failed")
	ErrConnectTimeout = errors.New("connect timed out")
)

const writeWait = 5 * time.Second

type Config struct {
	// WSBase is the scheme+host+prefix the session path is appended to,
	// e.g. "wss://itsjustwatched.com/api/v1".
	WSBase         string
	ConnectTimeout time.Duration
	PingPeriod     time.Duration
	ReadLimit      int64
}

// Transport owns at most one live connection. A later Connect supersedes an
// earlier one; Disconnect is safe from any state.
type Transport struct {
	cfg     Config
	onFrame func([]byte)
	onFault func(error)

	mu      sync.Mutex
	conn    *websocket.Conn
	cancel  context.CancelFunc
	gen     uint64
	writeMu sync.Mutex
}

// New wires the transport to its frame and fault sinks. onFrame runs on the
// receive loop goroutine; onFault fires at most once per connection.
func New(cfg Config, onFrame func([]byte), onFault func(error)) *Transport {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = 30 * time.Second
	}
	return &Transport{cfg: cfg, onFrame: onFrame, onFault: onFault}
}

func sessionURL(base string, roomID domain.RoomID, credential string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("scheme %q is not ws or wss", u.Scheme)
	}
	u = u.JoinPath("websocket", "ws", string(roomID))
	q := url.Values{}
	q.Set("token", credential)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect dials the room session and starts the receive and keep-alive loops.
// If a connection is already live it is torn down first, so the later call
// wins deterministically.
func (t *Transport) Connect(ctx context.Context, roomID domain.RoomID, credential string) error {
	if roomID == "" || credential == "" {
		return fmt.Errorf("%w: room id and credential are required", ErrConnect)
	}
	u, err := sessionURL(t.cfg.WSBase, roomID, credential)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}

	// Some deployments check the token query param, some the header; set both.
	header := http.Header{}
	header.Set("Authorization", "Bearer "+credential)

	dialer := websocket.Dialer{HandshakeTimeout: t.cfg.ConnectTimeout}
	dialCtx, cancelDial := context.WithTimeout(ctx, t.cfg.ConnectTimeout)
	defer cancelDial()

	conn, resp, err := dialer.DialContext(dialCtx, u, header)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		var netErr net.Error
		if errors.Is(dialCtx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return fmt.Errorf("%w: no open within %s", ErrConnectTimeout, t.cfg.ConnectTimeout)
		}
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	if t.cfg.ReadLimit > 0 {
		conn.SetReadLimit(t.cfg.ReadLimit)
	}

	// The connection must outlive the dial context: the caller's ctx bounds
	// the handshake only.
	connCtx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	t.teardownLocked()
	t.gen++
	gen := t.gen
	t.conn = conn
	t.cancel = cancel
	t.mu.Unlock()

	log.Info().Str("module", "transport").Str("room", string(roomID)).Msg("session connected")

	go t.readPump(connCtx, gen, conn)
	go t.pingPump(connCtx, conn)
	return nil
}

// Disconnect tears the connection down. Idempotent, safe before any Connect
// and concurrently with one.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	t.teardownLocked()
	t.mu.Unlock()
}

func (t *Transport) teardownLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if t.conn != nil {
		deadline := time.Now().Add(writeWait)
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = t.conn.Close()
		t.conn = nil
		log.Info().Str("module", "transport").Msg("session disconnected")
	}
}

func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Send writes one frame. When no connection is live it silently drops the
// frame: there is no queueing here, a vote lost to a torn-down connection is
// recoverable by resubmitting while the movie is still current.
func (t *Transport) Send(data []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return t.write(conn, data)
}

func (t *Transport) write(conn *websocket.Conn, data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (t *Transport) readPump(ctx context.Context, gen uint64, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				// Local teardown, not a fault.
				return
			default:
			}
			log.Error().Err(err).Str("module", "transport").Msg("readPump read error")
			t.fault(gen, err)
			return
		}
		if t.onFrame != nil {
			t.onFrame(data)
		}
	}
}

// fault tears down the faulted connection and surfaces the error, unless a
// newer connection has already superseded it.
func (t *Transport) fault(gen uint64, err error) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.teardownLocked()
	t.mu.Unlock()
	if t.onFault != nil {
		t.onFault(err)
	}
}

// pingPump sends an application-level ping frame on a fixed cadence so the
// server-side session sees liveness. Protocol-level pings are not enough for
// that; the server tracks pings as messages.
func (t *Transport) pingPump(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(t.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, err := protocol.Encode(protocol.PingCommand{Timestamp: time.Now().Unix()})
			if err != nil {
				log.Error().Err(err).Str("module", "transport").Msg("pingPump encode")
				continue
			}
			if err := t.write(conn, frame); err != nil {
				log.Warn().Err(err).Str("module", "transport").Msg("pingPump write error")
				return
			}
		}
	}
}
