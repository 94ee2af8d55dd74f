package gocommand

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type okMessage struct{}

func (okMessage) Type() string { return "freitool.test.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "freitool.test.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "freitool.test.dispatch" }

type resultMessage struct {
	Version string
}

func (resultMessage) Type() string { return "freitool.test.result" }

type rejectMessage struct{}

func (rejectMessage) Type() string { return "freitool.test.reject" }

type lookupQuery struct{}

func (lookupQuery) Type() string { return "freitool.test.lookup" }

type countQuery struct {
	Limit int
}

func (countQuery) Type() string { return "freitool.test.count" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestRegistryAndDispatchWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	t.Cleanup(adapter.Close)
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error {
		executed++
		return nil
	})

	if _, err := RegisterAndSubscribe(adapter, cmd); err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

func TestExecuteReturnsCollectedResult(t *testing.T) {
	adapter := NewRegistryAdapter(nil)
	t.Cleanup(adapter.Close)

	cmd := command.CommandFunc[resultMessage](func(ctx context.Context, msg resultMessage) error {
		if collector := command.ResultFromContext[string](ctx); collector != nil {
			collector.Store("created " + msg.Version)
		}
		return nil
	})
	if _, err := RegisterAndSubscribe(adapter, cmd); err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}

	result, ok, err := Execute[resultMessage, string](context.Background(), resultMessage{Version: "1.2.0"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !ok || result != "created 1.2.0" {
		t.Fatalf("unexpected result %q (stored=%v)", result, ok)
	}
}

func TestExecuteRejectsInvalidMessageBeforeDispatch(t *testing.T) {
	if _, _, err := Execute[failingMessage, string](context.Background(), failingMessage{}); err == nil {
		t.Fatalf("expected validation failure")
	}
}

func TestRegisterAndSubscribeQuery(t *testing.T) {
	adapter := NewRegistryAdapter(nil)
	t.Cleanup(adapter.Close)

	qry := command.QueryFunc[countQuery, int](func(_ context.Context, msg countQuery) (int, error) {
		return msg.Limit * 2, nil
	})
	if _, err := RegisterAndSubscribeQuery(adapter, qry); err != nil {
		t.Fatalf("register and subscribe query: %v", err)
	}

	got, err := Query[countQuery, int](context.Background(), countQuery{Limit: 21})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestRegisterRequiresAdapterAndHandler(t *testing.T) {
	if _, err := RegisterAndSubscribe[dispatchMessage](nil, nil); err == nil {
		t.Fatalf("expected nil adapter to fail")
	}
	if _, err := RegisterAndSubscribe[dispatchMessage](NewRegistryAdapter(nil), nil); err == nil {
		t.Fatalf("expected nil command to fail")
	}
}

func TestExecuteReturnsHandlerErrorAsReturned(t *testing.T) {
	adapter := NewRegistryAdapter(nil)
	t.Cleanup(adapter.Close)

	handlerErr := goerrors.New("version exists", goerrors.CategoryConflict).WithTextCode("APP_VERSION_EXISTS")
	calls := 0
	cmd := command.CommandFunc[rejectMessage](func(context.Context, rejectMessage) error {
		calls++
		return handlerErr
	})
	if _, err := RegisterAndSubscribe(adapter, cmd, RunnerOptions(nil)...); err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}

	_, _, err := Execute[rejectMessage, string](context.Background(), rejectMessage{})
	if err != handlerErr {
		t.Fatalf("expected the handler error itself, got %v", err)
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != "APP_VERSION_EXISTS" {
		t.Fatalf("expected handler text code, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single handler call, got %d", calls)
	}
}

func TestExecuteReturnsValidateErrorAsReturned(t *testing.T) {
	_, _, err := Execute[failingMessage, string](context.Background(), failingMessage{})
	if err == nil || err.Error() != "invalid payload" {
		t.Fatalf("expected the message validation error, got %v", err)
	}
}

func TestQueryReturnsHandlerErrorAsReturned(t *testing.T) {
	adapter := NewRegistryAdapter(nil)
	t.Cleanup(adapter.Close)

	handlerErr := errors.New("journal unavailable")
	qry := command.QueryFunc[lookupQuery, int](func(context.Context, lookupQuery) (int, error) {
		return 0, handlerErr
	})
	if _, err := RegisterAndSubscribeQuery(adapter, qry); err != nil {
		t.Fatalf("register and subscribe query: %v", err)
	}

	if _, err := Query[lookupQuery, int](context.Background(), lookupQuery{}); err != handlerErr {
		t.Fatalf("expected the query error itself, got %v", err)
	}
}

func TestRunnerOptionsLogThroughGivenLogger(t *testing.T) {
	var stdlog bytes.Buffer
	previous := log.Writer()
	log.SetOutput(&stdlog)
	t.Cleanup(func() { log.SetOutput(previous) })

	logger := &recordingLogger{}
	adapter := NewRegistryAdapter(nil)
	t.Cleanup(adapter.Close)

	cmd := command.CommandFunc[rejectMessage](func(context.Context, rejectMessage) error {
		return errors.New("store failed")
	})
	if _, err := RegisterAndSubscribe(adapter, cmd, RunnerOptions(logger)...); err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}

	if err := Dispatch(context.Background(), rejectMessage{}); err == nil || err.Error() != "store failed" {
		t.Fatalf("expected handler error, got %v", err)
	}
	if stdlog.Len() != 0 {
		t.Fatalf("expected nothing on the standard logger, got %q", stdlog.String())
	}
	if !logger.contains("store failed") {
		t.Fatalf("expected runner failure at debug level, got %v", logger.debug)
	}
}

type recordingLogger struct {
	mu    sync.Mutex
	debug []string
}

func (l *recordingLogger) Trace(string, ...any) {}

func (l *recordingLogger) Debug(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = append(l.debug, fmt.Sprint(append([]any{msg}, args...)...))
}

func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Warn(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}
func (l *recordingLogger) Fatal(string, ...any) {}

func (l *recordingLogger) WithContext(context.Context) glog.Logger {
	return l
}

func (l *recordingLogger) contains(fragment string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.debug {
		if strings.Contains(line, fragment) {
			return true
		}
	}
	return false
}
