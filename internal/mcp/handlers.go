package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/chatguard/internal/api"
)

// EvaluateInput defines parameters for the chatguard_evaluate tool.
type EvaluateInput struct {
	Text             string   `json:"text" jsonschema:"message text to check"`
	ChannelID        string   `json:"channel_id" jsonschema:"conversation identifier"`
	SenderID         string   `json:"sender_id" jsonschema:"sender identifier"`
	SenderRestricted bool     `json:"sender_restricted,omitempty" jsonschema:"true when the sender is the party not allowed to share contact details"`
	Bypass           bool     `json:"bypass,omitempty" jsonschema:"skip filtering entirely"`
	History          []string `json:"history,omitempty" jsonschema:"sender's earlier messages in this channel, oldest first"`
}

// EvaluateOutput is the verdict.
type EvaluateOutput struct {
	Blocked   bool     `json:"is_blocked"`
	RiskScore int      `json:"risk_score"`
	Patterns  []string `json:"patterns"`
	Reason    string   `json:"reason,omitempty"`
	EvalID    string   `json:"eval_id"`
}

// KeyInput identifies one sender's buffer.
type KeyInput struct {
	ChannelID string   `json:"channel_id" jsonschema:"conversation identifier"`
	SenderID  string   `json:"sender_id" jsonschema:"sender identifier"`
	History   []string `json:"history,omitempty" jsonschema:"messages to record, oldest first (chatguard_record only)"`
}

// AckOutput acknowledges a buffer change.
type AckOutput struct {
	OK bool `json:"ok"`
}

func (s *Server) handleEvaluate(ctx context.Context, req *mcpsdk.CallToolRequest, input EvaluateInput) (*mcpsdk.CallToolResult, EvaluateOutput, error) {
	res := s.checker.Check(ctx, api.EvalRequest{
		Text:             input.Text,
		ChannelID:        input.ChannelID,
		SenderID:         input.SenderID,
		SenderRestricted: input.SenderRestricted,
		Bypass:           input.Bypass,
		History:          input.History,
	})
	return nil, EvaluateOutput{
		Blocked:   res.IsBlocked,
		RiskScore: res.RiskScore,
		Patterns:  res.PatternStrings(),
		Reason:    res.Reason,
		EvalID:    res.EvalID,
	}, nil
}

func (s *Server) handleRecord(ctx context.Context, req *mcpsdk.CallToolRequest, input KeyInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.checker.Record(ctx, api.RecordRequest{
		ChannelID: input.ChannelID,
		SenderID:  input.SenderID,
		History:   input.History,
	}); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleReset(ctx context.Context, req *mcpsdk.CallToolRequest, input KeyInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.checker.Reset(ctx, api.ResetRequest{
		ChannelID: input.ChannelID,
		SenderID:  input.SenderID,
	}); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{OK: true}, nil
}
