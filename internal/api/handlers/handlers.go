// Package handlers exposes the conversation engine over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fintalk/internal/api/middleware"
	"github.com/dvloznov/fintalk/internal/conversation"
)

// Engine is the conversation engine as the handlers see it.
type Engine interface {
	HandleMessage(ctx context.Context, chatID, userID, text string, receivedAt time.Time) (conversation.Outbound, error)
	HandleAction(ctx context.Context, chatID, userID string, act conversation.Action, receivedAt time.Time) (conversation.Outbound, error)
}

// ConversationHandler handles the inbound message and action endpoints.
type ConversationHandler struct {
	engine Engine
	log    zerolog.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(engine Engine, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{engine: engine, log: log}
}

// PostMessage handles POST /api/messages
func (h *ConversationHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID string `json:"chat_id"`
		UserID string `json:"user_id"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" || req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "chat_id and user_id are required")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "text is required")
		return
	}

	out, err := h.engine.HandleMessage(r.Context(), req.ChatID, req.UserID, req.Text, time.Now())
	if err != nil {
		h.log.Error().Err(err).Str("chat_id", req.ChatID).Msg("Failed to handle message")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to handle message")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, encodeOutbound(out))
}

// PostAction handles POST /api/actions
func (h *ConversationHandler) PostAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChatID string `json:"chat_id"`
		UserID string `json:"user_id"`
		Action string `json:"action"`
		Value  string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChatID == "" || req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "chat_id and user_id are required")
		return
	}

	act, err := conversation.ParseAction(req.Action, req.Value)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.engine.HandleAction(r.Context(), req.ChatID, req.UserID, act, time.Now())
	if err != nil {
		h.log.Error().Err(err).Str("chat_id", req.ChatID).Msg("Failed to handle action")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to handle action")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, encodeOutbound(out))
}

// encodeOutbound adds the type discriminator the transport clients key on.
func encodeOutbound(out conversation.Outbound) interface{} {
	switch v := out.(type) {
	case conversation.PlainText:
		return struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{"plain_text", v.Text}
	case conversation.ConfirmationPrompt:
		return struct {
			Type    string                    `json:"type"`
			Summary conversation.DraftSummary `json:"summary"`
			Retry   bool                      `json:"retry,omitempty"`
		}{"confirmation_prompt", v.Summary, v.Retry}
	case conversation.ChoicePrompt:
		candidates := v.Candidates
		if candidates == nil {
			candidates = []conversation.CategoryOption{}
		}
		return struct {
			Type          string                        `json:"type"`
			Candidates    []conversation.CategoryOption `json:"candidates"`
			SuggestedName string                        `json:"suggested_name"`
		}{"choice_prompt", candidates, v.SuggestedName}
	case conversation.CorrectionPrompt:
		return struct {
			Type    string   `json:"type"`
			Defects []string `json:"defects"`
		}{"correction_prompt", v.Defects}
	default:
		return struct {
			Type string `json:"type"`
		}{"plain_text"}
	}
}
