package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	job "github.com/goliatone/go-job"

	"github.com/goliatone/go-delivery-relay/adapters/gojob"
	relaycommand "github.com/goliatone/go-delivery-relay/command"
	"github.com/goliatone/go-delivery-relay/core"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

// Execute validates msg and runs cmd, returning whatever result the command
// stored in its context collector.
func Execute[T any, R any](ctx context.Context, cmd command.Commander[T], msg T) (R, bool, error) {
	var zero R
	if cmd == nil {
		return zero, false, fmt.Errorf("gocommand: command is required")
	}
	if err := ValidateMessageContract(msg); err != nil {
		return zero, false, err
	}
	collector := command.NewResult[R]()
	if err := cmd.Execute(command.ContextWithResult(ctx, collector), msg); err != nil {
		return zero, false, err
	}
	out, ok := collector.Load()
	return out, ok, nil
}

// ReconcileJobHandler runs the reconcile command for go-job messages carrying
// webhook events.
func ReconcileJobHandler(cmd command.Commander[relaycommand.ReconcileDeliveryMessage]) gojob.HandlerFunc {
	return func(ctx context.Context, msg *job.ExecutionMessage) error {
		event, err := gojob.FromExecutionMessage(msg)
		if err != nil {
			return err
		}
		_, _, err = Execute[relaycommand.ReconcileDeliveryMessage, core.ReconcileOutcome](
			ctx,
			cmd,
			relaycommand.ReconcileDeliveryMessage{Event: event},
		)
		return err
	}
}
