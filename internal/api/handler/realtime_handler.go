package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/connectify/social-api/internal/api/metrics"
	"github.com/connectify/social-api/internal/api/middleware"
	"github.com/connectify/social-api/internal/core/ports"
	"github.com/connectify/social-api/internal/infrastructure/realtime"
)

const frameTimeout = 10 * time.Second

// RealtimeHandler upgrades authenticated clients to WebSocket sessions and
// dispatches their inbound frames.
type RealtimeHandler struct {
	hub       *realtime.Hub
	messages  ports.MessageService
	jwtSecret string
	cfg       realtime.Config
	upgrader  websocket.Upgrader
	log       zerolog.Logger
}

// NewRealtimeHandler builds the handler. origins lists the allowed Origin
// values; "*" allows any.
func NewRealtimeHandler(hub *realtime.Hub, messages ports.MessageService, jwtSecret string, cfg realtime.Config, origins []string, log zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:       hub,
		messages:  messages,
		jwtSecret: jwtSecret,
		cfg:       cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		log: log.With().Str("component", "realtime").Logger(),
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.TrimSuffix(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// Serve authenticates the token and runs the session until it disconnects.
//
// @Summary      Open a realtime session
// @Description  Upgrades to a WebSocket. Frames are {"event": name, "data": payload}.
// @Tags         realtime
// @Param        token  query     string  true  "JWT issued by register or login"
// @Success      101    {string}  string  "Switching Protocols"
// @Failure      401    {object}  errorResponse
// @Router       /ws [get]
func (h *RealtimeHandler) Serve(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		if auth := c.Request().Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
			token = strings.TrimSpace(auth[7:])
		}
	}
	p, err := middleware.ParseToken(h.jwtSecret, token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already replied to the client.
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return nil
	}

	client := realtime.NewClient(h.hub, conn, p.AccountID, h.cfg)
	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump(h.handleFrame)
	return nil
}

type accountRef struct {
	AccountID string `json:"accountId"`
	UserID    string `json:"userId"`
}

type sendMessageFrame struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
	TempID     string `json:"tempId"`
}

type messageRef struct {
	MessageID string `json:"messageId"`
}

type messageErrorPayload struct {
	TempID string `json:"temp_id,omitempty"`
	Error  string `json:"error"`
}

type errorPayload struct {
	Event string `json:"event,omitempty"`
	Error string `json:"error"`
}

type messageAckPayload struct {
	MessageID string `json:"message_id"`
	ReaderID  string `json:"reader_id,omitempty"`
	SenderID  string `json:"sender_id,omitempty"`
	Count     int64  `json:"count,omitempty"`
}

func (h *RealtimeHandler) handleFrame(client *realtime.Client, raw []byte) {
	var ev ports.Event
	if err := json.Unmarshal(raw, &ev); err != nil || ev.Name == "" {
		h.reply(client, ports.EventError, errorPayload{Error: "invalid frame"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	switch ev.Name {
	case ports.EventJoinRoom:
		h.joinRoom(client, ev.Data)
	case ports.EventSendMessage:
		h.sendMessage(ctx, client, ev.Data)
	case ports.EventDeleteMessage:
		h.deleteMessage(ctx, client, ev.Data)
	case ports.EventMarkRead:
		h.markRead(ctx, client, ev.Data)
	case ports.EventPing:
		h.reply(client, ports.EventPong, nil)
	default:
		h.reply(client, ports.EventError, errorPayload{Event: ev.Name, Error: "unknown event"})
	}
}

// joinRoom only confirms the room the session already listens on; a session is
// bound to its own account at upgrade time.
func (h *RealtimeHandler) joinRoom(client *realtime.Client, data json.RawMessage) {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		var ref accountRef
		if err := json.Unmarshal(data, &ref); err != nil {
			h.reply(client, ports.EventError, errorPayload{Event: ports.EventJoinRoom, Error: "invalid payload"})
			return
		}
		id = ref.AccountID
		if id == "" {
			id = ref.UserID
		}
	}
	if id != client.AccountID {
		h.reply(client, ports.EventError, errorPayload{Event: ports.EventJoinRoom, Error: "cannot join another account's room"})
	}
}

func (h *RealtimeHandler) sendMessage(ctx context.Context, client *realtime.Client, data json.RawMessage) {
	var frame sendMessageFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.reply(client, ports.EventMessageError, messageErrorPayload{Error: "invalid payload"})
		return
	}
	if frame.SenderID != "" && frame.SenderID != client.AccountID {
		h.reply(client, ports.EventMessageError, messageErrorPayload{TempID: frame.TempID, Error: "access forbidden"})
		return
	}

	res, err := h.messages.Send(ctx, ports.SendMessageInput{
		SenderID:   client.AccountID,
		ReceiverID: frame.ReceiverID,
		Text:       frame.Text,
		TempID:     frame.TempID,
	})
	if err != nil {
		h.reply(client, ports.EventMessageError, messageErrorPayload{TempID: frame.TempID, Error: h.publicError(err)})
		return
	}

	metrics.RecordSend("ws", res.Delivered, res.Duplicate)
	h.reply(client, ports.EventMessageSent, res)
}

func (h *RealtimeHandler) deleteMessage(ctx context.Context, client *realtime.Client, data json.RawMessage) {
	var ref messageRef
	if err := json.Unmarshal(data, &ref); err != nil || ref.MessageID == "" {
		h.reply(client, ports.EventError, errorPayload{Event: ports.EventDeleteMessage, Error: "messageId is required"})
		return
	}
	if err := h.messages.Delete(ctx, client.AccountID, ref.MessageID); err != nil {
		h.reply(client, ports.EventError, errorPayload{Event: ports.EventDeleteMessage, Error: h.publicError(err)})
		return
	}
	h.reply(client, ports.EventMessageDeleted, messageAckPayload{MessageID: ref.MessageID, SenderID: client.AccountID})
}

func (h *RealtimeHandler) markRead(ctx context.Context, client *realtime.Client, data json.RawMessage) {
	var ref messageRef
	if err := json.Unmarshal(data, &ref); err != nil || ref.MessageID == "" {
		h.reply(client, ports.EventError, errorPayload{Event: ports.EventMarkRead, Error: "messageId is required"})
		return
	}
	if _, err := h.messages.MarkRead(ctx, client.AccountID, ref.MessageID); err != nil {
		h.reply(client, ports.EventError, errorPayload{Event: ports.EventMarkRead, Error: h.publicError(err)})
		return
	}
	h.reply(client, ports.EventMessageRead, messageAckPayload{MessageID: ref.MessageID, ReaderID: client.AccountID, Count: 1})
}

func (h *RealtimeHandler) publicError(err error) string {
	_, msg, known := MapError(err)
	if !known {
		h.log.Error().Err(err).Msg("realtime operation failed")
	}
	return msg
}

func (h *RealtimeHandler) reply(client *realtime.Client, name string, data any) {
	ev, err := ports.NewEvent(name, data)
	if err != nil {
		h.log.Error().Err(err).Str("event", name).Msg("failed to build frame")
		return
	}
	if !client.Send(ev) {
		h.log.Debug().Str("client_id", client.ID).Str("event", name).Msg("session queue full, frame dropped")
	}
}
