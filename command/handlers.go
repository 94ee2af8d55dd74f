package command

import (
	"context"
	"strings"

	"github.com/andersonfds/freitool/core"
	gocmd "github.com/goliatone/go-command"
)

// StoreResolver returns the release store for a platform.
type StoreResolver interface {
	Store(platform string) (core.ReleaseStore, error)
}

type SetNotesCommand struct {
	stores StoreResolver
}

func NewSetNotesCommand(stores StoreResolver) *SetNotesCommand {
	return &SetNotesCommand{stores: stores}
}

func (c *SetNotesCommand) Execute(ctx context.Context, msg SetNotesMessage) error {
	if c == nil || c.stores == nil {
		return commandDependencyError("command: release store resolver is required")
	}
	store, err := c.stores.Store(msg.Platform)
	if err != nil {
		return err
	}
	if err := store.SetNotes(ctx, msg.Locale, msg.Version, msg.Text); err != nil {
		return err
	}
	storeResult(ctx, ReleaseResult{
		Platform:  store.Platform(),
		Operation: core.OperationSetNotes,
		Target:    targetOf(store),
		Version:   strings.TrimSpace(msg.Version),
		Locale:    strings.TrimSpace(msg.Locale),
	})
	return nil
}

type CreateVersionCommand struct {
	stores StoreResolver
}

func NewCreateVersionCommand(stores StoreResolver) *CreateVersionCommand {
	return &CreateVersionCommand{stores: stores}
}

func (c *CreateVersionCommand) Execute(ctx context.Context, msg CreateVersionMessage) error {
	if c == nil || c.stores == nil {
		return commandDependencyError("command: release store resolver is required")
	}
	store, err := c.stores.Store(msg.Platform)
	if err != nil {
		return err
	}
	if err := store.CreateVersion(ctx, msg.Version); err != nil {
		return err
	}
	storeResult(ctx, ReleaseResult{
		Platform:  store.Platform(),
		Operation: core.OperationCreateVersion,
		Target:    targetOf(store),
		Version:   strings.TrimSpace(msg.Version),
	})
	return nil
}

func targetOf(store core.ReleaseStore) string {
	if target, ok := store.(core.ReleaseTarget); ok {
		return target.Target()
	}
	return ""
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
