package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/room4-2/lamaison/config"
	"github.com/room4-2/lamaison/dialog"
	"github.com/room4-2/lamaison/logging"
)

// ErrMaxSessions is returned when the session cap is reached
var ErrMaxSessions = errors.New("maximum sessions reached")

const activeSessionsKey = "active_sessions"

// Booker records confirmed reservations against the floor. Book may refuse
// with an error wrapping dialog.ErrSlotTaken; replaces is the booking the
// new one supersedes, or nil.
type Booker interface {
	Book(ctx context.Context, r dialog.Reservation, replaces *dialog.Reservation) error
	Release(ctx context.Context, r dialog.Reservation) error
}

// Restaurant bundles the collaborators every conversation talks to
type Restaurant struct {
	Name         string
	Hours        string
	Availability dialog.AvailabilityOracle
	Menu         dialog.MenuCatalog
	Booker       Booker
}

// Manager manages all client sessions
type Manager struct {
	sessions   map[string]*ClientSession
	mu         sync.RWMutex
	redis      *redis.Client
	config     *config.Config
	restaurant Restaurant
	logger     *zap.Logger
	now        func() time.Time
}

// NewManager creates a session manager. redisClient may be nil, in which
// case sessions are only tracked in memory.
func NewManager(cfg *config.Config, restaurant Restaurant, redisClient *redis.Client, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions:   make(map[string]*ClientSession),
		redis:      redisClient,
		config:     cfg,
		restaurant: restaurant,
		logger:     logger,
		now:        time.Now,
	}
}

// ConnectRedis dials Redis and returns nil when it is unreachable
func ConnectRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("⚠️ Redis unavailable, running in memory only", zap.String("addr", cfg.RedisURL), zap.Error(err))
		_ = client.Close()
		return nil
	}
	logger.Info("🗄️ Connected to Redis", zap.String("addr", cfg.RedisURL))
	return client
}

// NewEngine builds a dialog engine wired to the restaurant collaborators
func (sm *Manager) NewEngine(logger *zap.Logger) *dialog.Engine {
	engine := dialog.NewEngine(sm.restaurant.Availability, sm.restaurant.Menu, dialog.Options{
		RestaurantName: sm.restaurant.Name,
		HoursText:      sm.restaurant.Hours,
		Now:            sm.now,
		Logger:         logger,
	})

	if booker := sm.restaurant.Booker; booker != nil {
		engine.OnConfirm = func(ctx context.Context, r dialog.Reservation, replaces *dialog.Reservation) error {
			if err := booker.Book(ctx, r, replaces); err != nil {
				if !errors.Is(err, dialog.ErrSlotTaken) {
					logger.Error("❌ Failed to record booking", zap.String("day", r.Day), zap.String("time", r.Time), zap.Error(err))
				}
				return err
			}
			logger.Info("📅 Booking recorded", zap.String("day", r.Day), zap.String("time", r.Time), zap.Int("guests", r.Guests), zap.Bool("replaced", replaces != nil))
			return nil
		}
		engine.OnCancel = func(ctx context.Context, r dialog.Reservation) {
			if err := booker.Release(ctx, r); err != nil {
				logger.Error("❌ Failed to release booking", zap.String("day", r.Day), zap.String("time", r.Time), zap.Error(err))
				return
			}
			logger.Info("🗑️ Booking released", zap.String("day", r.Day), zap.String("time", r.Time), zap.Int("guests", r.Guests))
		}
	}
	return engine
}

// CreateSession creates a new client session
func (sm *Manager) CreateSession(ctx context.Context, clientConn *websocket.Conn) (*ClientSession, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= sm.config.MaxSessions {
		return nil, ErrMaxSessions
	}

	sessionID := uuid.New().String()
	logger := sm.logger.With(logging.ShortID(sessionID))

	session := NewClientSession(sessionID, clientConn, sm.NewEngine(logger), Options{
		MaxTranscript:  sm.config.MaxTranscript,
		TurnTimeout:    sm.config.TurnDeadline(),
		KeepAlive:      sm.config.KeepAlive(),
		TurnsPerMinute: sm.config.TurnsPerMinute,
		TurnBurst:      sm.config.TurnBurst,
		Logger:         sm.logger,
		OnTurn:         sm.touchSession,
	})

	sm.storeSession(ctx, sessionID, session)
	return session, nil
}

// storeSession saves a session to memory and Redis
func (sm *Manager) storeSession(ctx context.Context, sessionID string, session *ClientSession) {
	sm.sessions[sessionID] = session

	if sm.redis != nil {
		pipe := sm.redis.TxPipeline()
		pipe.HSet(ctx, sessionKey(sessionID), map[string]interface{}{
			"created_at":    session.CreatedAt.Format(time.RFC3339),
			"last_activity": session.LastActivity.Format(time.RFC3339),
			"status":        "active",
			"state":         string(dialog.Idle),
		})
		pipe.SAdd(ctx, activeSessionsKey, sessionID)
		pipe.Expire(ctx, sessionKey(sessionID), sm.config.SessionTTL())
		if _, err := pipe.Exec(ctx); err != nil {
			sm.logger.Warn("⚠️ Failed to register session in Redis", logging.ShortID(sessionID), zap.Error(err))
		}
	}
}

// touchSession refreshes the Redis view of a session after a turn
func (sm *Manager) touchSession(session *ClientSession) {
	if sm.redis == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pipe := sm.redis.TxPipeline()
	pipe.HSet(ctx, sessionKey(session.ID), map[string]interface{}{
		"last_activity": session.IdleSince().Format(time.RFC3339),
		"state":         string(session.Engine.State()),
	})
	pipe.Expire(ctx, sessionKey(session.ID), sm.config.SessionTTL())
	if _, err := pipe.Exec(ctx); err != nil {
		sm.logger.Warn("⚠️ Failed to refresh session in Redis", logging.ShortID(session.ID), zap.Error(err))
	}
}

// GetSession retrieves a session by ID
func (sm *Manager) GetSession(sessionID string) (*ClientSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	return session, exists
}

// RemoveSession cleans up and removes a session
func (sm *Manager) RemoveSession(ctx context.Context, sessionID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return nil
	}

	_ = session.Close()
	delete(sm.sessions, sessionID)
	return sm.forget(ctx, sessionID)
}

func (sm *Manager) forget(ctx context.Context, sessionID string) error {
	if sm.redis == nil {
		return nil
	}
	pipe := sm.redis.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, activeSessionsKey, sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// GetActiveSessionCount returns current session count
func (sm *Manager) GetActiveSessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// CleanupInactiveSessions removes sessions that have been inactive
func (sm *Manager) CleanupInactiveSessions(ctx context.Context) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	now := sm.now()
	for id, session := range sm.sessions {
		if now.Sub(session.IdleSince()) <= sm.config.SessionTTL() {
			continue
		}

		_ = session.CloseWithNotice(closeReasonIdle)
		delete(sm.sessions, id)
		removed++

		if err := sm.forget(ctx, id); err != nil {
			sm.logger.Warn("⚠️ Failed to drop session from Redis", logging.ShortID(id), zap.Error(err))
		}
	}

	if removed > 0 {
		sm.logger.Info("🧹 Closed inactive sessions", zap.Int("count", removed))
	}
	return removed
}

// StartCleanupRoutine starts periodic cleanup of inactive sessions
func (sm *Manager) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.CleanupInactiveSessions(ctx)
		}
	}
}

// Shutdown closes all sessions
func (sm *Manager) Shutdown(ctx context.Context) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for id, session := range sm.sessions {
		_ = session.CloseWithNotice(closeReasonShutdown)
		delete(sm.sessions, id)
		_ = sm.forget(ctx, id)
	}
}

func sessionKey(id string) string {
	return "session:" + id
}
