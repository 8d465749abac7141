package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
	"github.com/connectify/social-api/internal/infrastructure/realtime"
)

const testSecret = "test-secret"

type realtimeFixture struct {
	hub    *realtime.Hub
	server *httptest.Server
}

func newRealtimeFixture(t *testing.T, messages ports.MessageService) *realtimeFixture {
	t.Helper()
	hub := realtime.NewHub(zerolog.Nop())
	h := NewRealtimeHandler(hub, messages, testSecret, realtime.DefaultConfig(), []string{"*"}, zerolog.Nop())

	e := echo.New()
	e.GET("/ws", h.Serve)
	srv := httptest.NewServer(e)

	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &realtimeFixture{hub: hub, server: srv}
}

func (f *realtimeFixture) dial(t *testing.T, accountID string) *websocket.Conn {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": accountID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for !f.hub.Online(accountID) {
		if time.Now().After(deadline) {
			t.Fatalf("session for %s never registered", accountID)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func writeFrame(t *testing.T, conn *websocket.Conn, name string, data any) {
	t.Helper()
	ev, err := ports.NewEvent(name, data)
	if err != nil {
		t.Fatalf("build frame: %v", err)
	}
	if err := conn.WriteJSON(ev); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) ports.Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev ports.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return ev
}

func TestRealtimeHandler_RejectsMissingToken(t *testing.T) {
	f := newRealtimeFixture(t, &stubMessageService{})

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected the handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestRealtimeHandler_PingPong(t *testing.T) {
	f := newRealtimeFixture(t, &stubMessageService{})
	conn := f.dial(t, "alice")

	writeFrame(t, conn, ports.EventPing, nil)

	if ev := readFrame(t, conn); ev.Name != ports.EventPong {
		t.Fatalf("expected pong, got %s", ev.Name)
	}
}

func TestRealtimeHandler_JoinRoom(t *testing.T) {
	f := newRealtimeFixture(t, &stubMessageService{})
	conn := f.dial(t, "alice")

	// Joining one's own room is silent; the following ping proves nothing was queued before it.
	writeFrame(t, conn, ports.EventJoinRoom, "alice")
	writeFrame(t, conn, ports.EventPing, nil)
	if ev := readFrame(t, conn); ev.Name != ports.EventPong {
		t.Fatalf("expected pong after own joinRoom, got %s", ev.Name)
	}

	writeFrame(t, conn, ports.EventJoinRoom, map[string]string{"accountId": "bob"})
	if ev := readFrame(t, conn); ev.Name != ports.EventError {
		t.Fatalf("expected error for a foreign room, got %s", ev.Name)
	}
}

func TestRealtimeHandler_SendMessage(t *testing.T) {
	stub := &stubMessageService{
		sendFn: func(ctx context.Context, in ports.SendMessageInput) (*ports.SendResult, error) {
			if in.SenderID != "alice" || in.ReceiverID != "bob" {
				t.Errorf("unexpected input %+v", in)
			}
			return &ports.SendResult{
				Message:   &domain.Message{ID: "m1", SenderID: in.SenderID, ReceiverID: in.ReceiverID, Text: in.Text},
				TempID:    in.TempID,
				Delivered: true,
			}, nil
		},
	}
	f := newRealtimeFixture(t, stub)
	conn := f.dial(t, "alice")

	writeFrame(t, conn, ports.EventSendMessage, map[string]string{
		"senderId":   "alice",
		"receiverId": "bob",
		"text":       "hi",
		"tempId":     "tmp-1",
	})

	ev := readFrame(t, conn)
	if ev.Name != ports.EventMessageSent {
		t.Fatalf("expected messageSent, got %s (%s)", ev.Name, ev.Data)
	}
	var ack struct {
		Message   domain.Message `json:"message"`
		TempID    string         `json:"temp_id"`
		Delivered bool           `json:"delivered"`
	}
	if err := json.Unmarshal(ev.Data, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Message.ID != "m1" || ack.TempID != "tmp-1" || !ack.Delivered {
		t.Fatalf("unexpected ack %+v", ack)
	}
}

func TestRealtimeHandler_SendMessageErrors(t *testing.T) {
	stub := &stubMessageService{
		sendFn: func(ctx context.Context, in ports.SendMessageInput) (*ports.SendResult, error) {
			if in.ReceiverID == "ghost" {
				return nil, domain.ErrAccountNotFound
			}
			return nil, errors.New("mongo: timeout")
		},
	}
	f := newRealtimeFixture(t, stub)
	conn := f.dial(t, "alice")

	tests := []struct {
		name    string
		frame   map[string]string
		wantErr string
	}{
		{"impersonation", map[string]string{"senderId": "mallory", "receiverId": "bob", "text": "hi", "tempId": "t1"}, "access forbidden"},
		{"unknown receiver", map[string]string{"receiverId": "ghost", "text": "hi", "tempId": "t2"}, "account not found"},
		{"internal failure", map[string]string{"receiverId": "bob", "text": "hi", "tempId": "t3"}, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeFrame(t, conn, ports.EventSendMessage, tt.frame)

			ev := readFrame(t, conn)
			if ev.Name != ports.EventMessageError {
				t.Fatalf("expected messageError, got %s", ev.Name)
			}
			var payload messageErrorPayload
			if err := json.Unmarshal(ev.Data, &payload); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if payload.Error != tt.wantErr || payload.TempID != tt.frame["tempId"] {
				t.Fatalf("unexpected payload %+v", payload)
			}
		})
	}
}

func TestRealtimeHandler_ReceivesOnlyOwnEvents(t *testing.T) {
	f := newRealtimeFixture(t, &stubMessageService{})
	alice := f.dial(t, "alice")
	bob := f.dial(t, "bob")

	ev, _ := ports.NewEvent(ports.EventReceiveMessage, domain.Message{ID: "m1", SenderID: "alice", ReceiverID: "bob"})
	delivered, err := f.hub.Publish(context.Background(), "bob", ev)
	if err != nil || !delivered {
		t.Fatalf("expected delivery to bob, got %v %v", delivered, err)
	}

	if got := readFrame(t, bob); got.Name != ports.EventReceiveMessage {
		t.Fatalf("expected receiveMessage, got %s", got.Name)
	}

	// Alice only sees her own pong, never bob's message.
	writeFrame(t, alice, ports.EventPing, nil)
	if got := readFrame(t, alice); got.Name != ports.EventPong {
		t.Fatalf("expected alice's next frame to be pong, got %s", got.Name)
	}
}

func TestRealtimeHandler_DeleteAndMarkRead(t *testing.T) {
	stub := &stubMessageService{
		deleteFn: func(ctx context.Context, actorID, messageID string) error {
			if actorID != "alice" {
				return domain.ErrForbidden
			}
			return nil
		},
		markReadFn: func(ctx context.Context, actorID, messageID string) (*domain.Message, error) {
			return nil, domain.ErrMessageNotFound
		},
	}
	f := newRealtimeFixture(t, stub)
	conn := f.dial(t, "alice")

	writeFrame(t, conn, ports.EventDeleteMessage, map[string]string{"messageId": "m1"})
	if ev := readFrame(t, conn); ev.Name != ports.EventMessageDeleted {
		t.Fatalf("expected messageDeleted ack, got %s", ev.Name)
	}

	writeFrame(t, conn, ports.EventMarkRead, map[string]string{"messageId": "m9"})
	ev := readFrame(t, conn)
	if ev.Name != ports.EventError || !strings.Contains(string(ev.Data), "message not found") {
		t.Fatalf("expected not found error frame, got %s %s", ev.Name, ev.Data)
	}

	writeFrame(t, conn, "bogus", nil)
	if ev := readFrame(t, conn); ev.Name != ports.EventError {
		t.Fatalf("expected error for unknown event, got %s", ev.Name)
	}
}
