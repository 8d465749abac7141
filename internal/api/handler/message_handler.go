package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/connectify/social-api/internal/api/metrics"
	"github.com/connectify/social-api/internal/core/ports"
)

// MessageHandler is the REST side of direct messaging.
type MessageHandler struct {
	service ports.MessageService
}

func NewMessageHandler(service ports.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// Conversations lists the caller's threads with their last message.
//
// @Summary      List my conversations
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Conversation
// @Failure      401  {object}  errorResponse
// @Router       /messages/conversations [get]
func (h *MessageHandler) Conversations(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	list, err := h.service.Conversations(c.Request().Context(), p.AccountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// History returns the messages between two accounts, oldest first. The caller
// must be one of them.
//
// @Summary      Get conversation history
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        userA  path      string  true  "Participant account ID"
// @Param        userB  path      string  true  "Participant account ID"
// @Success      200    {array}   domain.Message
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /messages/{userA}/{userB} [get]
func (h *MessageHandler) History(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	history, err := h.service.History(c.Request().Context(), p.AccountID, c.Param("userA"), c.Param("userB"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, history)
}

// Send stores a message and relays it to the receiver when connected.
//
// @Summary      Send a message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      sendMessageRequest  true  "Message"
// @Success      201   {object}  ports.SendResult
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /messages [post]
func (h *MessageHandler) Send(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.Send(c.Request().Context(), ports.SendMessageInput{
		SenderID:   p.AccountID,
		ReceiverID: req.ReceiverID,
		Text:       req.Text,
		TempID:     req.TempID,
	})
	if err != nil {
		return err
	}

	metrics.RecordSend("rest", res.Delivered, res.Duplicate)
	return c.JSON(http.StatusCreated, res)
}

// MarkRead marks a received message as read.
//
// @Summary      Mark a message read
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Message ID"
// @Success      200  {object}  domain.Message
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /messages/{id}/read [put]
func (h *MessageHandler) MarkRead(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	msg, err := h.service.MarkRead(c.Request().Context(), p.AccountID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msg)
}

// MarkConversationRead marks every unread message from a peer as read.
//
// @Summary      Mark a conversation read
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        peerId  path      string  true  "Peer account ID"
// @Success      200     {object}  updatedResponse
// @Failure      401     {object}  errorResponse
// @Router       /messages/conversations/{peerId}/read [put]
func (h *MessageHandler) MarkConversationRead(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	n, err := h.service.MarkConversationRead(c.Request().Context(), p.AccountID, c.Param("peerId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updatedResponse{Updated: n})
}

// Delete removes a message the caller sent.
//
// @Summary      Delete a message
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Message ID"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /messages/{id} [delete]
func (h *MessageHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), p.AccountID, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "message deleted"})
}
