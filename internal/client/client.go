package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ppiankov/chatguard/internal/api"
	"github.com/ppiankov/chatguard/internal/model"
)

// UnavailableReason is the reason attached to fail-closed verdicts.
const UnavailableReason = "contact filter unavailable"

const callTimeout = 5 * time.Second

// Client connects to a chatguard gRPC server.
type Client struct {
	conn   *grpc.ClientConn
	client *api.ContactFilterClient
}

// New creates a gRPC client for addr. The connection is lazy; an
// unreachable server surfaces on the first call.
func New(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to contact filter: %w", err)
	}
	return &Client{
		conn:   conn,
		client: api.NewContactFilterClient(conn),
	}, nil
}

// Evaluate asks the remote filter for a verdict on text.
// Fail-closed: any RPC error yields a blocked result.
func (c *Client) Evaluate(text, channelID, senderID string, role model.RoleContext) model.FilterResult {
	return c.evaluate(api.EvalRequest{
		Text:             text,
		ChannelID:        channelID,
		SenderID:         senderID,
		SenderRestricted: role.SenderRestricted,
		Bypass:           role.Bypass,
	})
}

// EvaluateWithHistory sends the sender's history alongside the message.
// Fail-closed like Evaluate.
func (c *Client) EvaluateWithHistory(text, channelID, senderID string, history []string, role model.RoleContext) model.FilterResult {
	return c.evaluate(api.EvalRequest{
		Text:             text,
		ChannelID:        channelID,
		SenderID:         senderID,
		SenderRestricted: role.SenderRestricted,
		Bypass:           role.Bypass,
		History:          history,
	})
}

func (c *Client) evaluate(req api.EvalRequest) model.FilterResult {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	resp, err := c.client.Evaluate(ctx, req)
	if err != nil {
		// Unreachable filter means blocked, never delivered unchecked.
		return model.FilterResult{
			IsBlocked: true,
			Patterns:  []model.Tag{},
			Reason:    UnavailableReason,
		}
	}
	if resp.Patterns == nil {
		resp.Patterns = []model.Tag{}
	}
	return resp.FilterResult
}

// RecordForAnalysis replaces the sender's history on the remote filter.
func (c *Client) RecordForAnalysis(channelID, senderID string, history []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	return c.client.Record(ctx, api.RecordRequest{ChannelID: channelID, SenderID: senderID, History: history})
}

// Reset drops the sender's buffer on the remote filter.
func (c *Client) Reset(channelID, senderID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	return c.client.Reset(ctx, api.ResetRequest{ChannelID: channelID, SenderID: senderID})
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
