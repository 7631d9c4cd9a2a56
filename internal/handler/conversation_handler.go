package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	appmw "github.com/shinyyama/zaposlitev-backend/internal/middleware"
	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"github.com/shinyyama/zaposlitev-backend/internal/service"
)

type ConversationHandler struct {
	svc service.MessagingService
}

func NewConversationHandler(svc service.MessagingService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type LastMessageResponse struct {
	Text      string `json:"text"`
	SenderID  string `json:"senderId"`
	Timestamp string `json:"timestamp"`
}

type ConversationResponse struct {
	ID           string               `json:"id"`
	JobID        string               `json:"jobId"`
	JobTitle     string               `json:"jobTitle"`
	Participants []string             `json:"participants"`
	OtherUID     string               `json:"otherUid"`
	LastMessage  *LastMessageResponse `json:"lastMessage"`
	UnreadCount  int                  `json:"unreadCount"`
	CreatedAt    string               `json:"createdAt"`
}

type InboxResponse struct {
	Conversations []ConversationResponse `json:"conversations"`
	UnreadCount   int                    `json:"unreadCount"`
}

type MessageResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	SenderID       string `json:"senderId"`
	Text           string `json:"text"`
	Timestamp      string `json:"timestamp"`
	Read           bool   `json:"read"`
}

type SendMessageRequest struct {
	Text        string `json:"text" validate:"max=5000"`
	RecipientID string `json:"recipientId"`
}

// toConversationResponse renders cv from viewer's side: UnreadCount is the
// viewer's own counter.
func toConversationResponse(cv model.Conversation, viewer string) ConversationResponse {
	resp := ConversationResponse{
		ID:           cv.ID,
		JobID:        cv.JobID,
		JobTitle:     cv.JobTitle,
		Participants: cv.Participants,
		UnreadCount:  cv.UnreadFor(viewer),
		CreatedAt:    cv.CreatedAt.Format(time.RFC3339),
	}
	for _, p := range cv.Participants {
		if p != viewer {
			resp.OtherUID = p
		}
	}
	if lm := cv.LastMessage; lm != nil {
		resp.LastMessage = &LastMessageResponse{
			Text:      lm.Text,
			SenderID:  lm.SenderID,
			Timestamp: lm.Timestamp.Format(time.RFC3339Nano),
		}
	}
	return resp
}

func toInboxResponse(in service.Inbox, viewer string) InboxResponse {
	resp := InboxResponse{
		Conversations: make([]ConversationResponse, 0, len(in.Conversations)),
		UnreadCount:   in.UnreadCount,
	}
	for _, cv := range in.Conversations {
		resp.Conversations = append(resp.Conversations, toConversationResponse(cv, viewer))
	}
	return resp
}

func toMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Text:           m.Text,
		Timestamp:      m.Timestamp.Format(time.RFC3339Nano),
		Read:           m.Read,
	}
}

func toMessageResponses(msgs []model.Message) []MessageResponse {
	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageResponse(m))
	}
	return resp
}

func (h *ConversationHandler) List(c echo.Context) error {
	uid := appmw.UID(c)
	if uid == "" {
		return unauthorized(c)
	}
	in, err := h.svc.Inbox(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err, "conversations")
	}
	return c.JSON(http.StatusOK, toInboxResponse(in, uid))
}

func (h *ConversationHandler) Get(c echo.Context) error {
	uid := appmw.UID(c)
	if uid == "" {
		return unauthorized(c)
	}
	cv, err := h.svc.Get(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return writeError(c, err, "conversation")
	}
	return c.JSON(http.StatusOK, toConversationResponse(*cv, uid))
}

func (h *ConversationHandler) ListMessages(c echo.Context) error {
	uid := appmw.UID(c)
	if uid == "" {
		return unauthorized(c)
	}
	msgs, err := h.svc.ListMessages(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return writeError(c, err, "conversation")
	}
	return c.JSON(http.StatusOK, toMessageResponses(msgs))
}

func (h *ConversationHandler) SendMessage(c echo.Context) error {
	uid := appmw.UID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req SendMessageRequest
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	msg, err := h.svc.SendMessage(c.Request().Context(), uid, c.Param("id"), req.Text, req.RecipientID)
	if err != nil {
		return writeError(c, err, "conversation")
	}
	if msg == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusCreated, toMessageResponse(*msg))
}

func (h *ConversationHandler) MarkRead(c echo.Context) error {
	uid := appmw.UID(c)
	if uid == "" {
		return unauthorized(c)
	}
	if err := h.svc.MarkAsRead(c.Request().Context(), uid, c.Param("id")); err != nil {
		return writeError(c, err, "conversation")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
