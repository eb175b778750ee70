package qsd

import (
	"context"

	"github.com/google/uuid"
)

// Hooks let callers extend the record lifecycle without modifying the service.
type Hooks struct {
	// BeforeSave runs on create and update after validation, before the
	// repository write. Hooks may modify the record.
	BeforeSave []BeforeSaveHook
	// AfterSave runs after the write and after cache invalidation.
	AfterSave []AfterSaveHook
	// AfterDelete runs after the record is removed and its cache entries invalidated.
	AfterDelete []AfterDeleteHook
	// OnError is notified of failed operations.
	OnError []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	Metadata  map[string]interface{}
	StopChain bool // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]interface{}),
	}
}

// BeforeSaveHook is called before a record is persisted
type BeforeSaveHook func(hctx *HookContext, record *Record) error

// AfterSaveHook is called after a record is persisted. created is true for new records.
type AfterSaveHook func(hctx *HookContext, record *Record, created bool) error

// AfterDeleteHook is called after a record is deleted
type AfterDeleteHook func(hctx *HookContext, recordID uuid.UUID) error

// ErrorHook is called when an operation fails
type ErrorHook func(hctx *HookContext, operation string, err error)

func (h *Hooks) executeBeforeSave(ctx context.Context, record *Record) error {
	if h == nil || len(h.BeforeSave) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.BeforeSave {
		if err := hook(hctx, record); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeAfterSave(ctx context.Context, record *Record, created bool) error {
	if h == nil || len(h.AfterSave) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterSave {
		if err := hook(hctx, record, created); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeAfterDelete(ctx context.Context, recordID uuid.UUID) error {
	if h == nil || len(h.AfterDelete) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterDelete {
		if err := hook(hctx, recordID); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeOnError(ctx context.Context, operation string, err error) {
	if h == nil || len(h.OnError) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, operation, err)
		if hctx.StopChain {
			break
		}
	}
}
