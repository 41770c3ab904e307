// Package api defines the chatguard.v1.ContactFilter wire contract shared by
// the gRPC, HTTP and MCP hosts.
package api

import "github.com/ppiankov/chatguard/internal/model"

// EvalRequest asks for a verdict on one message. When History is non-empty
// it replaces the sender's buffered history before the message is analysed.
// Conversation is an alternative to History: the transport's recent messages
// from all participants, filtered to the sender here.
type EvalRequest struct {
	Text             string          `json:"text"`
	ChannelID        string          `json:"channel_id"`
	SenderID         string          `json:"sender_id"`
	SenderRestricted bool            `json:"sender_restricted"`
	Bypass           bool            `json:"bypass"`
	History          []string        `json:"history,omitempty"`
	Conversation     []model.Message `json:"conversation,omitempty"`
}

// SenderHistory returns History, or the sender's own messages from
// Conversation when History is empty.
func (r EvalRequest) SenderHistory() []string {
	if len(r.History) > 0 {
		return r.History
	}
	return model.SenderHistory(r.Conversation, r.SenderID)
}

// Role returns the request's restriction flags.
func (r EvalRequest) Role() model.RoleContext {
	return model.RoleContext{SenderRestricted: r.SenderRestricted, Bypass: r.Bypass}
}

// Key returns the buffer key the request addresses.
func (r EvalRequest) Key() model.BufferKey {
	return model.BufferKey{ChannelID: r.ChannelID, SenderID: r.SenderID}
}

// EvalResponse is the verdict plus the evaluation's audit identifier.
type EvalResponse struct {
	model.FilterResult
	EvalID string `json:"eval_id"`
}

// RecordRequest replaces a sender's buffered history.
type RecordRequest struct {
	ChannelID string   `json:"channel_id"`
	SenderID  string   `json:"sender_id"`
	History   []string `json:"history"`
}

// Key returns the buffer key the request addresses.
func (r RecordRequest) Key() model.BufferKey {
	return model.BufferKey{ChannelID: r.ChannelID, SenderID: r.SenderID}
}

// ResetRequest drops a sender's buffer.
type ResetRequest struct {
	ChannelID string `json:"channel_id"`
	SenderID  string `json:"sender_id"`
}

// Key returns the buffer key the request addresses.
func (r ResetRequest) Key() model.BufferKey {
	return model.BufferKey{ChannelID: r.ChannelID, SenderID: r.SenderID}
}

// Ack acknowledges Record and Reset.
type Ack struct {
	OK bool `json:"ok"`
}
