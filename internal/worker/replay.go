// Package worker replays remotely published mutations against the engine.
//
// Remote sync stays outside the core: whatever protocol a collaborator
// speaks, by the time a message reaches this worker it is one of the
// engine's own add/update/remove operations, applied in arrival order.
package worker

import (
	"context"
	"errors"
	"fmt"

	"kumbara/internal/amqp"
	"kumbara/internal/core"
	"kumbara/internal/engine"
	applog "kumbara/internal/log"
)

// ReplayWorker applies mutation messages to the engine.
type ReplayWorker struct {
	engine *engine.Service
	log    *applog.Logger
}

func NewReplayWorker(eng *engine.Service, logger *applog.Logger) *ReplayWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ReplayWorker{
		engine: eng,
		log:    logger.WithComponent(applog.ComponentWorker),
	}
}

// Run consumes mutation messages until ctx is done.
func (w *ReplayWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeMutations(ctx, func(msg *amqp.MutationMessage) error {
		return w.Handle(ctx, msg)
	})
}

// Handle applies one message. Malformed messages and recoverable domain
// errors (unknown id, duplicate budget) are logged and dropped; a failed
// durable write is returned so the delivery is requeued and retried.
func (w *ReplayWorker) Handle(ctx context.Context, msg *amqp.MutationMessage) error {
	if err := msg.Validate(); err != nil {
		w.log.WarnContext(ctx, "dropping malformed mutation message", applog.FieldError, err)
		return nil
	}

	err := w.apply(ctx, msg)
	switch {
	case err == nil:
		w.log.DebugContext(ctx, "replayed mutation", applog.FieldOperation, string(msg.Op))
		return nil
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrDuplicateBudget):
		w.log.WarnContext(ctx, "mutation not applicable, dropping",
			applog.FieldOperation, string(msg.Op),
			applog.FieldError, err)
		return nil
	case errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrInvalidMonth):
		w.log.WarnContext(ctx, "mutation carries unparseable fields, dropping",
			applog.FieldOperation, string(msg.Op),
			applog.FieldError, err)
		return nil
	default:
		return err
	}
}

func (w *ReplayWorker) apply(ctx context.Context, msg *amqp.MutationMessage) error {
	switch msg.Op {
	case amqp.OpAddTransaction:
		in, err := transactionInput(msg.Tx)
		if err != nil {
			return err
		}
		_, err = w.engine.AddTransaction(ctx, in)
		return err

	case amqp.OpUpdateTransaction:
		patch, err := transactionPatch(msg.Tx)
		if err != nil {
			return err
		}
		_, err = w.engine.UpdateTransaction(ctx, msg.ID, patch)
		return err

	case amqp.OpRemoveTransaction:
		return w.engine.RemoveTransaction(ctx, msg.ID)

	case amqp.OpAddBudget:
		month, err := core.ParseMonth(*msg.Budget.Month)
		if err != nil {
			return err
		}
		_, err = w.engine.AddBudget(ctx, *msg.Budget.CategoryID, month, core.Money{Cents: *msg.Budget.Amount})
		return err

	case amqp.OpUpdateBudget:
		var patch core.BudgetPatch
		if msg.Budget.Amount != nil {
			patch.Amount = &core.Money{Cents: *msg.Budget.Amount}
		}
		if msg.Budget.Spent != nil {
			patch.Spent = &core.Money{Cents: *msg.Budget.Spent}
		}
		_, err := w.engine.UpdateBudget(ctx, msg.ID, patch)
		return err

	case amqp.OpDeleteBudget:
		return w.engine.DeleteBudget(ctx, msg.ID)

	default:
		return fmt.Errorf("unknown op %q", msg.Op)
	}
}

func transactionInput(p *amqp.TransactionPayload) (engine.TransactionInput, error) {
	var in engine.TransactionInput
	if p.Type != nil {
		in.Type = core.TransactionType(*p.Type)
	}
	if p.Amount != nil {
		in.Amount = core.Money{Cents: *p.Amount}
	}
	if p.CategoryID != nil {
		in.CategoryID = *p.CategoryID
	}
	if p.Date != nil {
		date, err := core.ParseDate(*p.Date)
		if err != nil {
			return in, err
		}
		in.Date = date
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.PhotoRef != nil {
		in.PhotoRef = *p.PhotoRef
	}
	return in, nil
}

func transactionPatch(p *amqp.TransactionPayload) (core.TransactionPatch, error) {
	var patch core.TransactionPatch
	if p.Type != nil {
		t := core.TransactionType(*p.Type)
		patch.Type = &t
	}
	if p.Amount != nil {
		patch.Amount = &core.Money{Cents: *p.Amount}
	}
	if p.CategoryID != nil {
		patch.CategoryID = p.CategoryID
	}
	if p.Date != nil {
		date, err := core.ParseDate(*p.Date)
		if err != nil {
			return patch, err
		}
		patch.Date = &date
	}
	patch.Description = p.Description
	patch.PhotoRef = p.PhotoRef
	return patch, nil
}
