package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crebai/crebmatch-backend/api/responses"
	"github.com/crebai/crebmatch-backend/api/validators"
	"github.com/crebai/crebmatch-backend/internal/chat"
	"github.com/crebai/crebmatch-backend/pkg/config"
	pkgerrors "github.com/crebai/crebmatch-backend/pkg/errors"
	"github.com/crebai/crebmatch-backend/pkg/logger"
)

const maxMessageLength = 4000

type postMessagePayload struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

// ChatPost appends a message to the match channel.
func ChatPost(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		principalID, err := principalFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		matchID, err := matchIDFromURL(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload postMessagePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		content := validators.SanitizeString(payload.Content, maxMessageLength)
		if content == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "content is required"))
			return
		}

		message, err := svc.Post(ctx, principalID, matchID, content)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, message)
	}
}

// ChatHistory pages the match channel in ascending seq order.
func ChatHistory(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		principalID, err := principalFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		matchID, err := matchIDFromURL(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		afterSeq, err := validators.ParseQueryInt64(r, "after_seq", 0)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.History(ctx, principalID, matchID, afterSeq, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatStream upgrades to a websocket and streams the channel: the backlog
// first, then live messages as they are posted. The client is not expected
// to send anything; its read side only signals disconnect.
func ChatStream(svc chat.Service, cfg config.ChatConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "chat service unavailable"))
			return
		}

		principalID, err := principalFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		matchID, err := matchIDFromURL(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		backlog, sub, err := svc.Subscribe(ctx, principalID, matchID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer svc.Unsubscribe(matchID, sub)

		ws, err := chatUpgrader.Upgrade(w, r, nil)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "chat.upgrade_failed", err)
			}
			return
		}
		defer ws.Close()

		writeTimeout := cfg.WriteTimeout
		if writeTimeout <= 0 {
			writeTimeout = 10 * time.Second
		}

		send := func(msg chat.MessageDTO) bool {
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteJSON(msg); err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "chat.stream_write_failed")
				}
				return false
			}
			return true
		}

		for _, msg := range backlog {
			if !send(msg) {
				return
			}
		}

		// drain the client side so close frames are processed
		disconnected := make(chan struct{})
		go func() {
			defer close(disconnected)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case msg, ok := <-sub.C():
				if !ok {
					return
				}
				if !send(msg) {
					return
				}
			case <-disconnected:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}
