package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/abcode/codelens/internal/database"
	"github.com/abcode/codelens/internal/middleware"
	"github.com/abcode/codelens/internal/models"
	"github.com/abcode/codelens/internal/services/chatbot"
	"github.com/abcode/codelens/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// ChatHandler handles programming-assistant chat requests
type ChatHandler struct {
	chatbot       *chatbot.Service
	conversations database.ConversationRepositoryInterface
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatbot *chatbot.Service, conversations database.ConversationRepositoryInterface) *ChatHandler {
	return &ChatHandler{
		chatbot:       chatbot,
		conversations: conversations,
	}
}

// RegisterRoutes registers chat routes on the given router
// The router should already have the /chat prefix
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.SendMessage).Methods("POST")
	r.HandleFunc("/history", h.GetHistory).Methods("GET")
	r.HandleFunc("/history", h.ClearHistory).Methods("DELETE")
}

// ChatRequest represents a chat message request
type ChatRequest struct {
	Message string `json:"message" validate:"required,min=1,max=10000"`
}

// ChatResponse pairs the user's message with the assistant's reply
type ChatResponse struct {
	Message  string `json:"message"`
	Response string `json:"response"`
}

// SendMessage sends a message to the chatbot and returns its reply
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req ChatRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Message cannot be empty")
		return
	}

	reply, err := h.chatbot.Chat(r.Context(), user.ID, req.Message)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to process chat message")
		return
	}

	respondJSON(w, http.StatusOK, ChatResponse{
		Message:  req.Message,
		Response: reply,
	})
}

// GetHistory returns the full conversation history for the user
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	turns, err := h.conversations.ListByUserID(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to fetch conversation history")
		return
	}

	if turns == nil {
		turns = []*models.ConversationTurn{}
	}

	respondJSON(w, http.StatusOK, turns)
}

// ClearHistory removes all conversation history for the user
func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	if _, err := h.chatbot.ClearHistory(r.Context(), user.ID); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to clear conversation history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Conversation history cleared successfully",
	})
}
