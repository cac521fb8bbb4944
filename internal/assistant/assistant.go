// Package assistant implements the scripted medication chat. Replies
// come from an ordered keyword table, not a model; the Responder
// interface keeps the reply source swappable. Conversations and
// messages persist to SQLite.
package assistant

import (
	"strings"

	apperrors "github.com/pillwise/pillwise/internal/errors"
	"github.com/pillwise/pillwise/internal/store"
	"go.uber.org/zap"
)

// Message roles as stored in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GreetingText opens every new conversation.
const GreetingText = "Hello! I'm your PillWise assistant. How can I help you with your medications today?"

// FallbackText answers anything the script does not cover.
const FallbackText = "That's a great question. I'm specifically trained on your medication schedule and adherence. Is there something specific about your doses you'd like to know?"

// Responder maps a user query to a reply.
type Responder interface {
	Respond(query string) string
}

// ==================== Scripted Responder ====================

type rule struct {
	keywords []string
	reply    string
}

// ScriptedResponder matches lowercased substrings against an ordered
// rule table. First match wins, so specific rules go before greetings.
type ScriptedResponder struct {
	rules    []rule
	fallback string
}

func NewScriptedResponder() *ScriptedResponder {
	return &ScriptedResponder{
		rules: []rule{
			{keywords: []string{"metformin"}, reply: "Metformin is used to control blood sugar. You should take it with meals to reduce stomach upset."},
			{keywords: []string{"side effect"}, reply: "Common side effects can include nausea or mild dizziness. If you feel severe pain, please contact your doctor immediately."},
			{keywords: []string{"missed"}, reply: "If you miss a dose, take it as soon as you remember. If it's almost time for your next dose, skip the missed one."},
			{keywords: []string{"hi", "hello"}, reply: "Hello! How can I assist you with your health routine today?"},
		},
		fallback: FallbackText,
	}
}

func (s *ScriptedResponder) Respond(query string) string {
	q := strings.ToLower(query)
	for _, r := range s.rules {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				return r.reply
			}
		}
	}
	return s.fallback
}

// ==================== Greetings ====================

// greetings for the voice assistant screen, keyed by app language.
// Languages without a localized greeting fall back to English.
var greetings = map[string]string{
	"English":  "Hi, I'm PillWise. How can I help you today?",
	"Hindi":    "नमस्ते, मैं PillWise हूं। मैं आपकी कैसे मदद कर सकता हूं?",
	"Hinglish": "Hi, main PillWise hoon. Main aapki kaise madad kar sakta hoon?",
}

// Greeting returns the voice greeting for a language.
func Greeting(language string) string {
	if g, ok := greetings[language]; ok {
		return g
	}
	return greetings["English"]
}

// ==================== Service ====================

// Service owns conversation history and routes queries through the
// configured Responder.
type Service struct {
	store     *store.Store
	responder Responder
	logger    *zap.Logger
}

func NewService(st *store.Store, responder Responder, logger *zap.Logger) *Service {
	return &Service{
		store:     st,
		responder: responder,
		logger:    logger,
	}
}

// StartConversation opens a conversation for a user and seeds it with
// the assistant greeting.
func (s *Service) StartConversation(userID, title string) (*store.Conversation, error) {
	conv := &store.Conversation{
		UserID: userID,
		Title:  title,
	}
	if err := s.store.CreateConversation(conv); err != nil {
		return nil, err
	}

	greeting := &store.Message{
		ConversationID: conv.ID,
		Role:           RoleAssistant,
		Content:        GreetingText,
	}
	if err := s.store.CreateMessage(greeting); err != nil {
		return nil, err
	}

	s.logger.Info("Conversation started",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", userID),
	)
	return conv, nil
}

// Send records the user's query, computes a reply, records it, and
// returns the assistant message.
func (s *Service) Send(conversationID, query string) (*store.Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ErrBadRequest
	}

	if _, err := s.store.GetConversation(conversationID); err != nil {
		return nil, apperrors.ErrConversationNotFound
	}

	userMsg := &store.Message{
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        query,
	}
	if err := s.store.CreateMessage(userMsg); err != nil {
		return nil, err
	}

	reply := &store.Message{
		ConversationID: conversationID,
		Role:           RoleAssistant,
		Content:        s.responder.Respond(query),
	}
	if err := s.store.CreateMessage(reply); err != nil {
		return nil, err
	}

	return reply, nil
}

// History returns a conversation's messages in order.
func (s *Service) History(conversationID string, limit, offset int) ([]store.Message, error) {
	if _, err := s.store.GetConversation(conversationID); err != nil {
		return nil, apperrors.ErrConversationNotFound
	}
	return s.store.GetMessages(conversationID, limit, offset)
}

// Conversations lists a user's conversations, newest first.
func (s *Service) Conversations(userID string, limit, offset int) ([]store.Conversation, error) {
	return s.store.ListConversations(userID, limit, offset)
}
