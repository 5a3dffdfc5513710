package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/arcade/internal/apperror"
)

// Accepted actions are answered by the hub broadcast that follows every table change.
// Only the current state request and failures are answered directly.

func (that *Server) handleTableState(ctx context.Context, c *client, msg *Message) error {
	table, err := that.tables.GetTable(ctx, c.tableID)
	if err != nil {
		that.replyError(c, msg.Action, err.Error())
		return fmt.Errorf("failed to get table: %w", err)
	}

	return that.reply(c, msg.Action, Payload{Table: table})
}

func (that *Server) handleGameTurn(ctx context.Context, c *client, msg *Message) error {
	log := that.logger.With("method", "handleGameTurn", "tableID", c.tableID)

	var payloadReq Payload
	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		that.replyError(c, msg.Action, "invalid payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payloadReq.Cell == nil {
		log.Debug("cell is missing in payload")
		that.replyError(c, msg.Action, "cell is required")
		return nil
	}

	_, err := that.tables.SubmitMove(ctx, c.tableID, *payloadReq.Cell)
	return that.replyFailure(c, msg.Action, err)
}

func (that *Server) handleGameReset(ctx context.Context, c *client, msg *Message) error {
	_, err := that.tables.RequestReset(ctx, c.tableID)
	return that.replyFailure(c, msg.Action, err)
}

func (that *Server) handleScoresReset(ctx context.Context, c *client, msg *Message) error {
	_, err := that.tables.RequestScoreReset(ctx, c.tableID)
	return that.replyFailure(c, msg.Action, err)
}

// replyFailure reports err to the sender. Refused and malformed moves are part of normal
// play and are not returned as handler errors.
func (that *Server) replyFailure(c *client, action string, err error) error {
	if err == nil {
		return nil
	}

	that.replyError(c, action, err.Error())

	if apperror.IsRejected(err) || apperror.IsInvariantViolation(err) {
		return nil
	}

	return err
}
