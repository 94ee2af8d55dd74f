package freitool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/andersonfds/freitool/adapters/gocommand"
	"github.com/andersonfds/freitool/adapters/gologger"
	servicescommand "github.com/andersonfds/freitool/command"
	"github.com/andersonfds/freitool/core"
	servicesquery "github.com/andersonfds/freitool/query"
	sqlstore "github.com/andersonfds/freitool/store/sql"
	"github.com/andersonfds/freitool/transport"
	glog "github.com/goliatone/go-logger/glog"
)

type Commands struct {
	SetNotes      *servicescommand.SetNotesCommand
	CreateVersion *servicescommand.CreateVersionCommand
}

type Queries struct {
	ListRuns *servicesquery.ListRunsQuery
}

// Facade selects one release store per platform, journals every call and
// exposes the operations through the go-command dispatcher.
type Facade struct {
	config   core.Config
	logger   core.Logger
	adapter  core.TransportAdapter
	journal  core.RunJournal
	reader   core.RunReader
	closers  []io.Closer
	now      func() time.Time
	registry *gocommand.RegistryAdapter

	mu     sync.Mutex
	stores map[string]core.ReleaseStore

	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	logger         core.Logger
	loggerProvider core.LoggerProvider
	adapter        core.TransportAdapter
	journal        core.RunJournal
	reader         core.RunReader
	stores         map[string]core.ReleaseStore
	now            func() time.Time
}

func WithLogger(logger core.Logger) FacadeOption {
	return func(options *facadeOptions) {
		options.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) FacadeOption {
	return func(options *facadeOptions) {
		options.loggerProvider = provider
	}
}

// WithTransport replaces the REST adapter built from Config.HTTP.
func WithTransport(adapter core.TransportAdapter) FacadeOption {
	return func(options *facadeOptions) {
		options.adapter = adapter
	}
}

// WithJournal records every store call. A journal that also implements
// core.RunReader backs ListRuns.
func WithJournal(journal core.RunJournal) FacadeOption {
	return func(options *facadeOptions) {
		options.journal = journal
		if reader, ok := journal.(core.RunReader); ok && options.reader == nil {
			options.reader = reader
		}
	}
}

func WithRunReader(reader core.RunReader) FacadeOption {
	return func(options *facadeOptions) {
		options.reader = reader
	}
}

// WithReleaseStore uses store for its platform instead of building one from
// config.
func WithReleaseStore(store core.ReleaseStore) FacadeOption {
	return func(options *facadeOptions) {
		if store == nil {
			return
		}
		if options.stores == nil {
			options.stores = map[string]core.ReleaseStore{}
		}
		options.stores[store.Platform()] = store
	}
}

func WithClock(now func() time.Time) FacadeOption {
	return func(options *facadeOptions) {
		options.now = now
	}
}

// Open builds a facade and, when cfg.Journal has a DSN, opens and migrates
// the run journal. Close releases it.
func Open(ctx context.Context, cfg core.Config, opts ...FacadeOption) (*Facade, error) {
	if !cfg.Journal.Enabled() {
		return NewFacade(cfg, opts...)
	}
	journal, err := sqlstore.Open(ctx, cfg.Journal)
	if err != nil {
		return nil, core.InternalError("freitool: open run journal: " + err.Error())
	}
	facade, err := NewFacade(cfg, append([]FacadeOption{WithJournal(journal)}, opts...)...)
	if err != nil {
		_ = journal.Close()
		return nil, err
	}
	facade.closers = append(facade.closers, journal)
	return facade, nil
}

func NewFacade(cfg core.Config, opts ...FacadeOption) (*Facade, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&options)
	}

	_, logger := gologger.Resolve("freitool", options.loggerProvider, options.logger)
	adapter := options.adapter
	if adapter == nil {
		adapter = transport.NewRESTAdapterFromConfig(cfg.HTTP)
	}
	now := options.now
	if now == nil {
		now = time.Now
	}

	facade := &Facade{
		config:   cfg,
		logger:   glog.Ensure(logger),
		adapter:  adapter,
		journal:  options.journal,
		reader:   options.reader,
		now:      now,
		registry: gocommand.NewRegistryAdapter(nil),
		stores:   map[string]core.ReleaseStore{},
	}
	for platform, store := range options.stores {
		facade.stores[platform] = facade.journaled(store)
	}
	facade.commands = Commands{
		SetNotes:      servicescommand.NewSetNotesCommand(facade),
		CreateVersion: servicescommand.NewCreateVersionCommand(facade),
	}
	facade.queries = Queries{
		ListRuns: servicesquery.NewListRunsQuery(facade.reader),
	}
	if err := facade.register(); err != nil {
		facade.registry.Close()
		return nil, err
	}
	return facade, nil
}

func (f *Facade) register() error {
	runnerOpts := gocommand.RunnerOptions(f.logger)
	if _, err := gocommand.RegisterAndSubscribe(f.registry, f.commands.SetNotes, runnerOpts...); err != nil {
		return fmt.Errorf("freitool: register set notes command: %w", err)
	}
	if _, err := gocommand.RegisterAndSubscribe(f.registry, f.commands.CreateVersion, runnerOpts...); err != nil {
		return fmt.Errorf("freitool: register create version command: %w", err)
	}
	if _, err := gocommand.RegisterAndSubscribeQuery(f.registry, f.queries.ListRuns, runnerOpts...); err != nil {
		return fmt.Errorf("freitool: register list runs query: %w", err)
	}
	return f.registry.Initialize()
}

// Store returns the journaled release store for platform, building it from
// config on first use.
func (f *Facade) Store(platform string) (core.ReleaseStore, error) {
	if f == nil {
		return nil, core.InternalError("freitool: facade is nil")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))

	f.mu.Lock()
	defer f.mu.Unlock()
	if store, ok := f.stores[platform]; ok {
		return store, nil
	}

	var (
		store core.ReleaseStore
		err   error
	)
	switch platform {
	case core.PlatformAppStore:
		store, err = AppStoreStore(f.config, f.adapter, f.logger)
	case core.PlatformGooglePlay:
		store, err = GooglePlayStore(f.config, f.adapter, f.logger)
	default:
		return nil, core.BadInputError(fmt.Sprintf("freitool: unsupported platform %q", platform))
	}
	if err != nil {
		return nil, err
	}
	journaled := f.journaled(store)
	f.stores[platform] = journaled
	return journaled, nil
}

func (f *Facade) journaled(store core.ReleaseStore) core.ReleaseStore {
	return core.NewJournaledStore(store,
		core.WithRunJournal(f.journal),
		core.WithRunLogger(f.logger),
		core.WithRunClock(f.now),
	)
}

// SetNotes dispatches a set notes command and returns its result.
func (f *Facade) SetNotes(ctx context.Context, msg servicescommand.SetNotesMessage) (servicescommand.ReleaseResult, error) {
	return execute[servicescommand.SetNotesMessage](ctx, msg)
}

// CreateVersion dispatches a create version command and returns its result.
func (f *Facade) CreateVersion(ctx context.Context, msg servicescommand.CreateVersionMessage) (servicescommand.ReleaseResult, error) {
	return execute[servicescommand.CreateVersionMessage](ctx, msg)
}

func (f *Facade) ListRuns(ctx context.Context, msg servicesquery.ListRunsMessage) ([]core.RunEntry, error) {
	if err := gocommand.ValidateMessageContract(msg); err != nil {
		return nil, err
	}
	return gocommand.Query[servicesquery.ListRunsMessage, []core.RunEntry](ctx, msg)
}

func execute[T any](ctx context.Context, msg T) (servicescommand.ReleaseResult, error) {
	result, ok, err := gocommand.Execute[T, servicescommand.ReleaseResult](ctx, msg)
	if err != nil {
		return servicescommand.ReleaseResult{}, err
	}
	if !ok {
		return servicescommand.ReleaseResult{}, core.InternalError("freitool: command finished without a result")
	}
	return result, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Config() core.Config {
	if f == nil {
		return core.Config{}
	}
	return f.config
}

// Close drops the dispatcher subscriptions and closes the journal.
func (f *Facade) Close() error {
	if f == nil {
		return nil
	}
	f.registry.Close()
	var errs []error
	for _, closer := range f.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	f.closers = nil
	return errors.Join(errs...)
}

var _ servicescommand.StoreResolver = (*Facade)(nil)
