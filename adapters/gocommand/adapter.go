package gocommand

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	glog "github.com/goliatone/go-logger/glog"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
// Validate errors are returned as the message produced them.
func ValidateMessageContract(msg any) error {
	if command.IsNilMessage(msg) {
		return command.ValidateMessage(msg)
	}
	if v, ok := msg.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
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

type RegistryAdapter struct {
	registry *command.Registry

	mu            sync.Mutex
	subscriptions []commanddispatcher.Subscription
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

// Close drops every dispatcher subscription made through this adapter.
func (a *RegistryAdapter) Close() {
	if a == nil {
		return
	}
	a.mu.Lock()
	subscriptions := a.subscriptions
	a.subscriptions = nil
	a.mu.Unlock()
	for _, subscription := range subscriptions {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}

func (a *RegistryAdapter) track(subscription commanddispatcher.Subscription) {
	if subscription == nil {
		return
	}
	a.mu.Lock()
	a.subscriptions = append(a.subscriptions, subscription)
	a.mu.Unlock()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

// RunnerOptions runs handlers once and sends runner logs to logger at
// debug level. Outcomes are reported by the caller.
func RunnerOptions(logger glog.Logger) []runner.Option {
	rl := runnerLogger{logger: glog.Ensure(logger)}
	return []runner.Option{
		runner.WithLogger(rl),
		runner.WithErrorHandler(func(error) {}),
		runner.WithMaxRetries(0),
		runner.WithExitOnError(true),
	}
}

type runnerLogger struct {
	logger glog.Logger
}

func (l runnerLogger) Info(msg string, args ...any) {
	l.logger.Debug("gocommand: " + fmt.Sprintf(msg, args...))
}

func (l runnerLogger) Error(msg string, args ...any) {
	l.logger.Debug("gocommand: " + fmt.Sprintf(msg, args...))
}

type handlerFailureKey struct{}

// handlerFailure holds the first error a handler returned, before the
// runner and dispatcher re-wrap it.
type handlerFailure struct {
	mu  sync.Mutex
	err error
}

func (f *handlerFailure) record(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err == nil {
		f.err = err
	}
}

func (f *handlerFailure) get() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func withHandlerFailure(ctx context.Context) (context.Context, *handlerFailure) {
	if ctx == nil {
		ctx = context.Background()
	}
	failure := &handlerFailure{}
	return context.WithValue(ctx, handlerFailureKey{}, failure), failure
}

func captureHandlerFailure(next func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		err := next(ctx)
		if err != nil {
			if failure, ok := ctx.Value(handlerFailureKey{}).(*handlerFailure); ok {
				failure.record(err)
			}
		}
		return err
	}
}

// handlerError prefers the error the handler returned over the dispatcher's
// envelope around it.
func handlerError(failure *handlerFailure, err error) error {
	if handlerErr := failure.get(); handlerErr != nil {
		return handlerErr
	}
	return err
}

func Dispatch[T any](ctx context.Context, msg T) error {
	ctx, failure := withHandlerFailure(ctx)
	if err := commanddispatcher.Dispatch(ctx, msg); err != nil {
		return handlerError(failure, err)
	}
	return nil
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	ctx, failure := withHandlerFailure(ctx)
	result, err := commanddispatcher.Query[T, R](ctx, msg)
	if err != nil {
		return result, handlerError(failure, err)
	}
	return result, nil
}

// Execute validates msg, dispatches it and returns the value the handler
// stored in the result collector. ok is false when nothing was stored.
func Execute[T any, R any](ctx context.Context, msg T) (result R, ok bool, err error) {
	if err := ValidateMessageContract(msg); err != nil {
		return result, false, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	collector := command.NewResult[R]()
	if err := Dispatch(command.ContextWithResult(ctx, collector), msg); err != nil {
		return result, false, err
	}
	result, ok = collector.Load()
	return result, ok, nil
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := SubscribeCommand(cmd, withCapture(runnerOpts)...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	adapter.track(subscription)
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := SubscribeQuery(qry, withCapture(runnerOpts)...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	adapter.track(subscription)
	return subscription, nil
}

func withCapture(runnerOpts []runner.Option) []runner.Option {
	options := make([]runner.Option, 0, len(runnerOpts)+1)
	options = append(options, runner.WithMiddleware(captureHandlerFailure))
	return append(options, runnerOpts...)
}
