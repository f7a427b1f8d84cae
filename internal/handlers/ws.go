// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kaansenol/hangduel/internal/game"
)

// WSHandler upgrades the HTTP connection to a websocket and serves the game
// protocol over it. The first message carrying a userId binds the connection
// identity in the registry; when the read loop exits the binding is removed
// and every room the player occupied is torn down.
func WSHandler(logger *logrus.Logger, reg *Registry, engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.WithError(err).Warn("websocket accept failed")
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal error during handler exit")

		logger.WithField("remote", r.RemoteAddr).Info("client connected")

		userID := readMessages(r.Context(), c, reg, engine, logger)

		if userID != "" {
			reg.Remove(userID, c)
			engine.Disconnect(userID)
		}
		logger.WithFields(logrus.Fields{
			"remote": r.RemoteAddr,
			"user":   userID,
		}).Info("client disconnected")
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readMessages runs the connection's read loop until error or closure and
// returns the identity the connection last bound, if any.
func readMessages(ctx context.Context, c *websocket.Conn, reg *Registry, engine *game.Engine, logger *logrus.Logger) string {
	var userID string
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.WithField("user", userID).Debug("websocket closed normally")
			} else {
				logger.WithError(err).WithField("user", userID).Debug("websocket read ended")
			}
			return userID
		}
		if msgType != websocket.MessageText {
			continue
		}

		msg, sender, derr := Decode(data)

		// Identity binding happens before validation, matching the rule
		// that the first identified message claims the connection.
		if sender != "" {
			userID = sender
			reg.Bind(userID, c)
		}

		if derr != nil {
			sendError(c, derr.Error(), logger)
			continue
		}
		dispatch(ctx, msg, userID, engine, c, logger)
	}
}

// dispatch routes one validated message to the engine and surfaces engine
// errors back to the sender.
func dispatch(ctx context.Context, msg Inbound, userID string, engine *game.Engine, c *websocket.Conn, logger *logrus.Logger) {
	if userID == "" {
		sendError(c, ErrInvalidMessageFormat.Error(), logger)
		return
	}

	switch m := msg.(type) {
	case CreateRoomMsg:
		words := m.Words
		if len(words) == 0 && m.Word != "" {
			words = []string{m.Word}
		}
		engine.CreateRoom(ctx, userID, game.PlayerProfile{
			Name:     m.HostName,
			Avatar:   m.Avatar,
			Trophies: m.Trophies,
		}, words)

	case JoinRoomMsg:
		id, err := uuid.Parse(m.RoomID)
		if err != nil {
			sendError(c, game.ErrRoomNotFound.Error(), logger)
			return
		}
		if err := engine.JoinRoom(ctx, id, userID, game.PlayerProfile{
			Name:     m.GuestName,
			Avatar:   m.Avatar,
			Trophies: m.Trophies,
		}); err != nil {
			sendError(c, err.Error(), logger)
		}

	case MakeGuessMsg:
		id, err := uuid.Parse(m.RoomID)
		if err != nil {
			sendError(c, game.ErrRoomNotFound.Error(), logger)
			return
		}
		if m.IsWordGuess {
			err = engine.GuessWord(id, userID, m.Word)
		} else {
			err = engine.GuessLetter(id, userID, m.Letter)
		}
		if err != nil {
			sendError(c, err.Error(), logger)
		}

	case GuessWordMsg:
		id, err := uuid.Parse(m.RoomID)
		if err != nil {
			sendError(c, game.ErrRoomNotFound.Error(), logger)
			return
		}
		if err := engine.GuessWord(id, userID, m.Word); err != nil {
			sendError(c, err.Error(), logger)
		}

	case AutoMatchMsg:
		engine.AutoMatch(ctx, userID, game.PlayerProfile{
			Name:     m.Username,
			Avatar:   m.Avatar,
			Trophies: m.Trophies,
		}, m.Words)

	case WordInputMsg:
		// Accepted for compatibility; a no-op in versus mode.
	}
}

// sendError writes a structured error message to the offending connection.
func sendError(c *websocket.Conn, message string, logger *logrus.Logger) {
	data, err := json.Marshal(game.NewErrorMsg(message))
	if err != nil {
		logger.WithError(err).Error("failed to marshal error message")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.Write(ctx, websocket.MessageText, data); err != nil {
		logger.WithError(err).Debug("failed to write error message")
	}
}
