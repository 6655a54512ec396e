package backend

// chatRequest is the JSON body for the chat streaming endpoint.
type chatRequest struct {
	Message        string `json:"message"`
	Mode           string `json:"mode"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// sessionResponse is the JSON body of the session-init endpoint.
type sessionResponse struct {
	ConversationID string `json:"conversation_id"`
	Greeting       string `json:"greeting,omitempty"`
}

// errorResponse is the JSON envelope for non-2xx responses.
type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
