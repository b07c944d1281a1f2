package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/room4-2/lamaison/config"
	"github.com/room4-2/lamaison/messages"
	"github.com/room4-2/lamaison/restaurant"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:            8080,
		MaxSessions:     10,
		SessionTimeout:  30,
		KeepAlivePeriod: 30,
		MaxTranscript:   50,
		TurnTimeout:     5,
		TurnsPerMinute:  600,
		TurnBurst:       100,
		AllowedOrigins:  []string{"*"},
	}
}

func (sm *Manager) setClock(now func() time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.now = now
}

type harness struct {
	manager *Manager
	ledger  restaurant.Ledger
	redis   *miniredis.Miniredis
	url     string
}

func newHarness(t *testing.T, cfg *config.Config, withRedis bool) *harness {
	t.Helper()

	h := &harness{ledger: restaurant.NewMemoryLedger()}

	var client *redis.Client
	if withRedis {
		h.redis = miniredis.RunT(t)
		client = redis.NewClient(&redis.Options{Addr: h.redis.Addr()})
		t.Cleanup(func() { _ = client.Close() })
	}

	info := restaurant.NewInfo("", nil)
	floor := restaurant.NewFloor(info, 40, h.ledger)
	h.manager = NewManager(cfg, Restaurant{
		Name:         info.Name,
		Hours:        info.Hours(),
		Availability: floor,
		Menu:         restaurant.NewMenu(info, nil),
		Booker:       floor,
	}, client, nil)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		cs, err := h.manager.CreateSession(r.Context(), conn)
		if err != nil {
			data, _ := messages.Encode(messages.NewErrorMessage("", messages.ErrCodeSessionFailed, err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, data)
			_ = conn.Close()
			return
		}
		cs.Start()
		<-cs.CloseChan
		_ = h.manager.RemoveSession(context.Background(), cs.ID)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { h.manager.Shutdown(context.Background()) })

	h.url = "ws" + strings.TrimPrefix(srv.URL, "http")
	return h
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// connect dials and consumes the connected status and greeting, returning the session ID
func (h *harness) connect(t *testing.T) (*websocket.Conn, string) {
	t.Helper()
	conn := h.dial(t)

	status := readFrame(t, conn)
	require.Equal(t, messages.TypeStatus, status.Type)
	assert.Equal(t, messages.StatusConnected, field(status, "status"))

	greeting := readFrame(t, conn)
	require.Equal(t, messages.TypeText, greeting.Type)
	assert.Contains(t, field(greeting, "text"), "Welcome to La Maison")

	return conn, status.SessionID
}

func readFrame(t *testing.T, conn *websocket.Conn) *messages.ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := messages.DecodeServer(data)
	require.NoError(t, err)
	return msg
}

func field(msg *messages.ServerMessage, key string) string {
	payload, _ := msg.Payload.(map[string]interface{})
	value, _ := payload[key].(string)
	return value
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func say(t *testing.T, conn *websocket.Conn, text string) string {
	t.Helper()
	data, err := messages.EncodeText(text)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))

	reply := readFrame(t, conn)
	require.Equal(t, messages.TypeText, reply.Type, "reply to %q", text)

	done := readFrame(t, conn)
	require.Equal(t, messages.TypeStatus, done.Type)
	assert.Equal(t, messages.StatusTurnComplete, field(done, "status"))

	return field(reply, "text")
}

func TestSessionBookingFlow(t *testing.T) {
	h := newHarness(t, testConfig(), true)
	conn, id := h.connect(t)

	assert.True(t, h.redis.Exists("session:"+id))
	members, err := h.redis.Members("active_sessions")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, members)

	assert.Contains(t, say(t, conn, "I'd like to book a table"), "Which day")
	assert.Eventually(t, func() bool {
		return h.redis.HGet("session:"+id, "state") == "ask_date"
	}, time.Second, 10*time.Millisecond)

	assert.Contains(t, say(t, conn, "Friday"), "Friday it is")
	assert.Contains(t, say(t, conn, "7 pm"), "7:00 PM works")
	assert.Contains(t, say(t, conn, "4 people"), "A table for 4 on Friday at 7:00 PM is available")
	assert.Contains(t, say(t, conn, "Priya Sharma"), "Thank you, Priya Sharma")
	assert.Contains(t, say(t, conn, "98765 43210"), "Shall I proceed")
	assert.Contains(t, say(t, conn, "yes"), "Your reservation is confirmed!")

	covers, err := h.ledger.Covers(context.Background(), "Friday")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"7:00 PM": 4}, covers)

	assert.Contains(t, say(t, conn, "cancel my reservation"), "Would you like to cancel it?")
	assert.Contains(t, say(t, conn, "yes"), "has been cancelled")

	covers, err = h.ledger.Covers(context.Background(), "Friday")
	require.NoError(t, err)
	assert.Empty(t, covers)

	assert.Eventually(t, func() bool {
		return h.redis.HGet("session:"+id, "state") == "idle"
	}, time.Second, 10*time.Millisecond)
}

func TestSessionControlActions(t *testing.T) {
	h := newHarness(t, testConfig(), false)
	conn, _ := h.connect(t)

	send(t, conn, `{"type":"control","payload":{"action":"ping"}}`)
	pong := readFrame(t, conn)
	assert.Equal(t, messages.StatusPong, field(pong, "status"))

	say(t, conn, "hello")

	send(t, conn, `{"type":"control","payload":{"action":"history"}}`)
	history := readFrame(t, conn)
	require.Equal(t, messages.TypeHistory, history.Type)
	payload := history.Payload.(map[string]interface{})
	entries := payload["entries"].([]interface{})
	require.Len(t, entries, 3)
	assert.Equal(t, "hello", entries[1].(map[string]interface{})["content"])
	assert.Equal(t, RoleUser, entries[1].(map[string]interface{})["role"])

	say(t, conn, "book a table")
	send(t, conn, `{"type":"control","payload":{"action":"reset"}}`)
	reset := readFrame(t, conn)
	assert.Equal(t, messages.StatusReset, field(reset, "status"))
	greeting := readFrame(t, conn)
	assert.Contains(t, field(greeting, "text"), "Welcome to La Maison")
	assert.Equal(t, "idle", field(greeting, "state"))

	// back to routing, not stuck asking for a day
	assert.Contains(t, say(t, conn, "what are your hours"), "We are open every day")
}

func TestSessionRejectsBadFrames(t *testing.T) {
	h := newHarness(t, testConfig(), false)
	conn, _ := h.connect(t)

	for _, frame := range []string{
		`{not json`,
		`{"type":"audio","payload":{"data":""}}`,
		`{"type":"text"}`,
		`{"type":"control","payload":{"action":"dance"}}`,
	} {
		send(t, conn, frame)
		msg := readFrame(t, conn)
		require.Equal(t, messages.TypeError, msg.Type, frame)
		assert.Equal(t, messages.ErrCodeInvalidMessage, field(msg, "code"), frame)
	}

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}))
	msg := readFrame(t, conn)
	assert.Equal(t, messages.ErrCodeInvalidMessage, field(msg, "code"))

	// the session survives bad frames
	assert.Contains(t, say(t, conn, "hi"), "Hello!")
}

func TestSessionRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.TurnsPerMinute = 1
	cfg.TurnBurst = 1

	h := newHarness(t, cfg, false)
	conn, _ := h.connect(t)

	say(t, conn, "hi")

	send(t, conn, `{"type":"text","payload":{"text":"hi again"}}`)
	msg := readFrame(t, conn)
	require.Equal(t, messages.TypeError, msg.Type)
	assert.Equal(t, messages.ErrCodeRateLimited, field(msg, "code"))

	// control frames are not rate limited
	send(t, conn, `{"type":"control","payload":{"action":"ping"}}`)
	assert.Equal(t, messages.StatusPong, field(readFrame(t, conn), "status"))
}

func TestManagerEnginesShareSeatingCapacity(t *testing.T) {
	ctx := context.Background()
	info := restaurant.NewInfo("", nil)
	ledger := restaurant.NewMemoryLedger()
	floor := restaurant.NewFloor(info, 4, ledger)
	manager := NewManager(testConfig(), Restaurant{
		Name:         info.Name,
		Hours:        info.Hours(),
		Availability: floor,
		Menu:         restaurant.NewMenu(info, nil),
		Booker:       floor,
	}, nil, nil)

	first := manager.NewEngine(zap.NewNop())
	second := manager.NewEngine(zap.NewNop())
	for _, in := range []string{"book a table", "Friday", "7pm", "4", "Ann", "9876543210"} {
		first.ProcessMessage(ctx, in)
		second.ProcessMessage(ctx, in)
	}

	assert.Contains(t, first.ProcessMessage(ctx, "yes"), "Your reservation is confirmed!")
	assert.Contains(t, second.ProcessMessage(ctx, "yes"), "was just taken")

	covers, err := ledger.Covers(ctx, "Friday")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"7:00 PM": 4}, covers)
}

func TestManagerMaxSessions(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSessions = 1

	h := newHarness(t, cfg, false)
	h.connect(t)
	assert.Equal(t, 1, h.manager.GetActiveSessionCount())

	second := h.dial(t)
	msg := readFrame(t, second)
	require.Equal(t, messages.TypeError, msg.Type)
	assert.Equal(t, messages.ErrCodeSessionFailed, field(msg, "code"))
	assert.Equal(t, ErrMaxSessions.Error(), field(msg, "message"))
}

func TestManagerCleanupInactiveSessions(t *testing.T) {
	h := newHarness(t, testConfig(), true)
	conn, id := h.connect(t)

	_, ok := h.manager.GetSession(id)
	require.True(t, ok)

	assert.Equal(t, 0, h.manager.CleanupInactiveSessions(context.Background()))

	h.manager.setClock(func() time.Time { return time.Now().Add(time.Hour) })
	assert.Equal(t, 1, h.manager.CleanupInactiveSessions(context.Background()))
	assert.Equal(t, 0, h.manager.GetActiveSessionCount())
	assert.False(t, h.redis.Exists("session:"+id))

	notice := readFrame(t, conn)
	require.Equal(t, messages.TypeError, notice.Type)
	assert.Equal(t, messages.ErrCodeConnectionClosed, field(notice, "code"))
	assert.Equal(t, closeReasonIdle, field(notice, "message"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestManagerShutdownNotifiesClients(t *testing.T) {
	h := newHarness(t, testConfig(), false)
	conn, _ := h.connect(t)

	h.manager.Shutdown(context.Background())

	notice := readFrame(t, conn)
	require.Equal(t, messages.TypeError, notice.Type)
	assert.Equal(t, messages.ErrCodeConnectionClosed, field(notice, "code"))
	assert.Equal(t, closeReasonShutdown, field(notice, "message"))
	assert.Equal(t, 0, h.manager.GetActiveSessionCount())
}

func TestManagerRemoveSession(t *testing.T) {
	h := newHarness(t, testConfig(), true)
	_, id := h.connect(t)

	require.NoError(t, h.manager.RemoveSession(context.Background(), id))
	require.NoError(t, h.manager.RemoveSession(context.Background(), id))

	_, ok := h.manager.GetSession(id)
	assert.False(t, ok)
	members, err := h.redis.Members("active_sessions")
	if err == nil {
		assert.NotContains(t, members, id)
	}
}
