package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one chat turn. Messages are never edited after creation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatState is returned by every chat endpoint so the UI can re-render.
type ChatState struct {
	Accepted bool      `json:"accepted"`
	InFlight bool      `json:"in_flight"`
	Messages []Message `json:"messages"`
	Examples []string  `json:"examples,omitempty"`
}
