package models

type ChatRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversationId"`
}

type ChatResponse struct {
	Answer         string `json:"answer"`
	ConversationID string `json:"conversationId"`
}

// ChatTurn is one stored message of a conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
