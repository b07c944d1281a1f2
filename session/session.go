package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/room4-2/lamaison/dialog"
	"github.com/room4-2/lamaison/logging"
	"github.com/room4-2/lamaison/messages"
)

// ErrSessionClosed is returned when writing to a session that has been closed
var ErrSessionClosed = errors.New("session closed")

const (
	writeBufferSize = 64
	writeTimeout    = 10 * time.Second
	maxFrameSize    = 16 * 1024
	drainTimeout    = time.Second

	closeReasonIdle     = "Session closed after inactivity"
	closeReasonShutdown = "Server is shutting down"
)

// Options tunes a ClientSession
type Options struct {
	MaxTranscript  int
	TurnTimeout    time.Duration
	KeepAlive      time.Duration
	TurnsPerMinute int
	TurnBurst      int
	Logger         *zap.Logger

	// OnTurn runs on the read loop after every completed turn
	OnTurn func(cs *ClientSession)
}

// ClientSession represents a single guest's chat connection
type ClientSession struct {
	ID           string
	ClientConn   *websocket.Conn
	Engine       *dialog.Engine
	Transcript   *Transcript
	CreatedAt    time.Time
	LastActivity time.Time

	turnTimeout time.Duration
	keepAlive   time.Duration
	limiter     *rate.Limiter
	logger      *zap.Logger
	onTurn      func(cs *ClientSession)

	// Use channels for non-blocking writes
	writeChan chan *messages.ServerMessage
	drainChan chan struct{}
	drainOnce sync.Once
	pumpDone  chan struct{}

	mu        sync.RWMutex
	closed    bool
	CloseChan chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClientSession wraps a WebSocket connection around a dialog engine
func NewClientSession(id string, clientConn *websocket.Conn, engine *dialog.Engine, opts Options) *ClientSession {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = 5 * time.Second
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 30 * time.Second
	}
	if opts.TurnsPerMinute <= 0 {
		opts.TurnsPerMinute = 60
	}
	if opts.TurnBurst <= 0 {
		opts.TurnBurst = 10
	}

	ctx, cancel := context.WithCancel(context.Background())

	clientConn.SetReadLimit(maxFrameSize)

	now := time.Now()
	return &ClientSession{
		ID:           id,
		ClientConn:   clientConn,
		Engine:       engine,
		Transcript:   NewTranscript(opts.MaxTranscript),
		CreatedAt:    now,
		LastActivity: now,
		turnTimeout:  opts.TurnTimeout,
		keepAlive:    opts.KeepAlive,
		limiter:      rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.TurnsPerMinute)), opts.TurnBurst),
		logger:       opts.Logger.With(logging.ShortID(id)),
		onTurn:       opts.OnTurn,
		writeChan:    make(chan *messages.ServerMessage, writeBufferSize),
		drainChan:    make(chan struct{}),
		pumpDone:     make(chan struct{}),
		CloseChan:    make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start sends the greeting and begins handling frames
func (cs *ClientSession) Start() {
	go cs.writePump()

	cs.queueMessage(messages.NewStatusMessage(cs.ID, messages.StatusConnected, "Session established"))
	cs.reply(cs.Engine.Greeting())

	go cs.handleClientMessages()
}

// writePump handles all outgoing frames in a single goroutine
func (cs *ClientSession) writePump() {
	ticker := time.NewTicker(cs.keepAlive)
	defer ticker.Stop()
	defer close(cs.pumpDone)

	for {
		select {
		case <-cs.CloseChan:
			return
		case <-cs.drainChan:
			cs.flush()
			return
		case <-ticker.C:
			if err := cs.ClientConn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				cs.logger.Debug("💤 Keepalive ping failed", zap.Error(err))
				return
			}
		case msg, ok := <-cs.writeChan:
			if !ok {
				// Channel closed, exit gracefully
				return
			}
			if err := cs.write(msg); err != nil {
				cs.logger.Debug("❌ Write failed", zap.Error(err))
				return
			}

			n := len(cs.writeChan)
			for i := 0; i < n; i++ {
				msg, ok := <-cs.writeChan
				if !ok {
					return
				}
				if err := cs.write(msg); err != nil {
					return
				}
			}
		}
	}
}

// flush writes whatever is already queued without waiting for more
func (cs *ClientSession) flush() {
	for {
		select {
		case msg, ok := <-cs.writeChan:
			if !ok {
				return
			}
			if err := cs.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (cs *ClientSession) write(msg *messages.ServerMessage) error {
	data, err := messages.Encode(msg)
	if err != nil {
		return err
	}
	if err := cs.ClientConn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return cs.ClientConn.WriteMessage(websocket.TextMessage, data)
}

// queueMessage adds a frame to the write queue (non-blocking)
func (cs *ClientSession) queueMessage(msg *messages.ServerMessage) {
	if err := cs.Send(msg); err != nil && !errors.Is(err, ErrSessionClosed) {
		cs.logger.Warn("⚠️ Dropping outgoing frame", zap.String("type", msg.Type), zap.Error(err))
	}
}

// Send queues a frame for the client
func (cs *ClientSession) Send(msg *messages.ServerMessage) error {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	if cs.closed {
		return ErrSessionClosed
	}
	select {
	case cs.writeChan <- msg:
		return nil
	default:
		return fmt.Errorf("write queue full (%d frames)", writeBufferSize)
	}
}

// reply records a bot line and sends it
func (cs *ClientSession) reply(text string) {
	cs.Transcript.Append(RoleBot, text)
	cs.queueMessage(messages.NewTextMessage(cs.ID, text, string(cs.Engine.State())))
}

func (cs *ClientSession) handleClientMessages() {
	defer cs.Close()

	for {
		select {
		case <-cs.CloseChan:
			return
		default:
		}

		messageType, data, err := cs.ClientConn.ReadMessage()
		if err != nil {
			if !cs.IsClosed() && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cs.logger.Warn("❌ WebSocket read error", zap.Error(err))
			}
			return
		}

		cs.touch()

		if messageType != websocket.TextMessage {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Binary frames are not supported"))
			continue
		}

		msg, err := messages.Decode(data)
		if err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, err.Error()))
			continue
		}

		cs.processClientMessage(msg)
	}
}

func (cs *ClientSession) processClientMessage(msg *messages.ClientMessage) {
	switch msg.Type {
	case messages.TypeText:
		payload, err := messages.DecodeText(msg)
		if err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid text payload"))
			return
		}
		if !cs.limiter.Allow() {
			cs.logger.Warn("🚦 Turn rate limit exceeded")
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeRateLimited, "Too many messages, slow down"))
			return
		}
		cs.handleTurn(payload.Text)

	case messages.TypeControl:
		payload, err := messages.DecodeControl(msg)
		if err != nil {
			cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Invalid control payload"))
			return
		}
		cs.handleControlMessage(payload)
	}
}

// handleTurn runs one conversation turn. Turns are sequential because the
// read loop is the only caller.
func (cs *ClientSession) handleTurn(text string) {
	cs.Transcript.Append(RoleUser, text)

	ctx, cancel := context.WithTimeout(cs.ctx, cs.turnTimeout)
	defer cancel()

	reply, err := cs.runTurn(ctx, text)
	if err != nil {
		cs.logger.Error("💥 Turn failed", zap.Error(err))
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeTurnFailed, "Something went wrong, please try again"))
	} else {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			cs.logger.Warn("⏱️ Turn exceeded deadline", zap.Duration("timeout", cs.turnTimeout))
		}
		cs.reply(reply)
	}

	cs.queueMessage(messages.NewStatusMessage(cs.ID, messages.StatusTurnComplete, ""))

	if cs.onTurn != nil {
		cs.onTurn(cs)
	}
}

func (cs *ClientSession) runTurn(ctx context.Context, text string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return cs.Engine.ProcessMessage(ctx, text), nil
}

func (cs *ClientSession) handleControlMessage(payload messages.ControlPayload) {
	switch payload.Action {
	case messages.ActionPing:
		cs.queueMessage(messages.NewStatusMessage(cs.ID, messages.StatusPong, ""))
	case messages.ActionHistory:
		cs.queueMessage(messages.NewHistoryMessage(cs.ID, cs.Transcript.Snapshot()))
	case messages.ActionReset:
		cs.Engine.Reset()
		cs.Transcript.Clear()
		cs.logger.Info("🔄 Conversation reset")
		cs.queueMessage(messages.NewStatusMessage(cs.ID, messages.StatusReset, "Conversation restarted"))
		cs.reply(cs.Engine.Greeting())
		if cs.onTurn != nil {
			cs.onTurn(cs)
		}
	default:
		cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeInvalidMessage, "Unknown control action: "+payload.Action))
	}
}

func (cs *ClientSession) touch() {
	cs.mu.Lock()
	cs.LastActivity = time.Now()
	cs.mu.Unlock()
}

// IdleSince returns the time of the last inbound frame
func (cs *ClientSession) IdleSince() time.Time {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.LastActivity
}

// CloseWithNotice sends the client a CONNECTION_CLOSED error carrying reason,
// flushes queued frames and closes the session
func (cs *ClientSession) CloseWithNotice(reason string) error {
	cs.queueMessage(messages.NewErrorMessage(cs.ID, messages.ErrCodeConnectionClosed, reason))
	cs.drainOnce.Do(func() { close(cs.drainChan) })

	select {
	case <-cs.pumpDone:
	case <-time.After(drainTimeout):
		cs.logger.Debug("⏱️ Gave up flushing before close")
	}
	return cs.Close()
}

// Close terminates the session and cleans up resources
func (cs *ClientSession) Close() error {
	cs.mu.Lock()
	if cs.closed {
		cs.mu.Unlock()
		return nil
	}
	cs.closed = true
	close(cs.writeChan)
	close(cs.CloseChan)
	cs.mu.Unlock()

	cs.cancel()

	if cs.ClientConn != nil {
		_ = cs.ClientConn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		return cs.ClientConn.Close()
	}
	return nil
}

// IsClosed returns whether the session is closed
func (cs *ClientSession) IsClosed() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.closed
}
