// internal/handlers/registry.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

// writeTimeout bounds a single websocket write so one stalled client cannot
// pin a goroutine forever.
const writeTimeout = 3 * time.Second

// Registry maps a stable player identity to its live websocket connection.
// The first identified message from a connection binds it; the binding is
// removed on disconnect.
type Registry struct {
	mu     sync.Mutex
	conns  map[string]*websocket.Conn
	logger *logrus.Logger
}

func NewRegistry(logger *logrus.Logger) *Registry {
	return &Registry{
		conns:  make(map[string]*websocket.Conn),
		logger: logger,
	}
}

// Bind associates userID with the connection, replacing any previous one.
func (reg *Registry) Bind(userID string, c *websocket.Conn) {
	if userID == "" {
		return
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.conns[userID] = c
}

// Remove drops the binding for userID, but only if it still points at c.
// A newer connection from the same player must not be unbound by the old
// connection's teardown.
func (reg *Registry) Remove(userID string, c *websocket.Conn) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if cur, ok := reg.conns[userID]; ok && cur == c {
		delete(reg.conns, userID)
	}
}

// Get resolves a player's live connection.
func (reg *Registry) Get(userID string) (*websocket.Conn, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	c, ok := reg.conns[userID]
	return c, ok
}

// Send marshals msg and writes it to the player's connection asynchronously.
// A player with no live connection is silently skipped: delivery is
// at-most-once, best-effort, with no retry and no queuing.
func (reg *Registry) Send(userID string, msg interface{}) {
	c, ok := reg.Get(userID)
	if !ok {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		reg.logger.WithError(err).WithField("user", userID).Error("failed to marshal outbound message")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := c.Write(ctx, websocket.MessageText, data); err != nil {
			reg.logger.WithError(err).WithField("user", userID).Warn("failed to write outbound message")
		}
	}()
}
