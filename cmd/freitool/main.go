// Command freitool publishes release metadata to App Store Connect and
// Google Play.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/andersonfds/freitool"
	"github.com/andersonfds/freitool/adapters/gologger"
	servicescommand "github.com/andersonfds/freitool/command"
	"github.com/andersonfds/freitool/core"
	servicesquery "github.com/andersonfds/freitool/query"
	goerrors "github.com/goliatone/go-errors"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	description = "Freitool is a tool to help you manage your app releases."
)

type cli struct {
	Config        string `help:"YAML configuration file." type:"path" env:"FREITOOL_CONFIG" placeholder:"FILE"`
	Machine       bool   `help:"Prints the output in a machine-readable format." env:"FREITOOL_MACHINE"`
	LogLevel      string `name:"log-level" help:"trace, debug, info, warn or error." env:"FREITOOL_LOG_LEVEL"`
	Journal       string `help:"Run journal DSN. Runs are not recorded when empty." env:"FREITOOL_JOURNAL" placeholder:"DSN"`
	JournalDriver string `name:"journal-driver" help:"Run journal driver: sqlite3 or postgres." env:"FREITOOL_JOURNAL_DRIVER"`

	Android androidCmd `cmd:"" help:"Google Play releases."`
	IOS     iosCmd     `cmd:"" name:"ios" help:"App Store Connect releases."`
	History historyCmd `cmd:"" help:"Lists journaled runs, newest first."`
}

type androidCmd struct {
	PackageName string `name:"package-name" help:"The package name." env:"FREITOOL_PACKAGE_NAME" placeholder:"com.example.app"`
	KeyPath     string `name:"key-path" help:"The key path, must be a .json file." env:"FREITOOL_ANDROID_KEY_PATH" placeholder:"FILE"`
	Track       string `help:"The google play track: internal, alpha, beta or production." env:"FREITOOL_TRACK"`

	Version versionCmd `cmd:"" help:"Manage versions."`
}

type iosCmd struct {
	AppID    string `name:"app-id" help:"The App Store Connect app ID." env:"FREITOOL_APP_ID"`
	KeyPath  string `name:"key-path" help:"The key path, must be a .p8 file." env:"FREITOOL_IOS_KEY_PATH" placeholder:"FILE"`
	IssuerID string `name:"issuer-id" help:"The issuer id, must be a valid UUID." env:"FREITOOL_ISSUER_ID"`

	Version versionCmd `cmd:"" help:"Manage versions."`
}

type versionCmd struct {
	Create createCmd `cmd:"" help:"Creates a new version."`
	Notes  notesCmd  `cmd:"" help:"Updates the release notes."`
}

type createCmd struct {
	Name string `arg:"" help:"The name of the version to be created."`
}

type notesCmd struct {
	Message  string `short:"m" required:"" help:"The message."`
	Language string `short:"l" help:"The language of the release notes. Required on Android, optional on iOS when the version has one localization."`
	Name     string `short:"n" required:"" help:"The version name to suffer the update."`
}

type historyCmd struct {
	Platform  string `help:"Only runs for ios or android."`
	Operation string `help:"Only set_notes or create_version runs."`
	Status    string `help:"Only ok or failed runs."`
	Limit     int    `help:"Maximum rows." default:"20"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	var flags cli
	parser, err := kong.New(&flags,
		kong.Name("freitool"),
		kong.Description(description),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintf(stderr, "freitool: %v\n", err)
		return exitFailed
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "freitool: %v\n", err)
		return exitUsage
	}

	out := newPrinter(flags.Machine, stdout, stderr)
	cfg, err := freitool.LoadConfig(ctx, flags.Config, flags.runtimeConfig())
	if err != nil {
		return out.failure(err)
	}
	logger := gologger.NewConsoleLogger(gologger.ConsoleConfig{
		Level:  cfg.LogLevel,
		JSON:   flags.Machine,
		Writer: stderr,
	})

	facade, err := freitool.Open(ctx, cfg, freitool.WithLoggerProvider(logger))
	if err != nil {
		return out.failure(err)
	}
	defer func() { _ = facade.Close() }()

	switch kctx.Command() {
	case "android version create <name>":
		return out.release(facade.CreateVersion(ctx, servicescommand.CreateVersionMessage{
			Platform: core.PlatformGooglePlay,
			Version:  flags.Android.Version.Create.Name,
		}))
	case "android version notes":
		return out.release(facade.SetNotes(ctx, flags.Android.Version.Notes.message(core.PlatformGooglePlay)))
	case "ios version create <name>":
		return out.release(facade.CreateVersion(ctx, servicescommand.CreateVersionMessage{
			Platform: core.PlatformAppStore,
			Version:  flags.IOS.Version.Create.Name,
		}))
	case "ios version notes":
		return out.release(facade.SetNotes(ctx, flags.IOS.Version.Notes.message(core.PlatformAppStore)))
	case "history":
		runs, err := facade.ListRuns(ctx, servicesquery.ListRunsMessage{Filter: flags.History.filter()})
		return out.runs(runs, err)
	default:
		fmt.Fprintf(stderr, "freitool: unknown command %q\n", kctx.Command())
		return exitUsage
	}
}

// runtimeConfig maps flags onto the top configuration layer. Zero values do
// not override the file or the defaults.
func (c cli) runtimeConfig() core.Config {
	return core.Config{
		AppStore: core.AppStoreConfig{
			KeyPath:  strings.TrimSpace(c.IOS.KeyPath),
			IssuerID: strings.TrimSpace(c.IOS.IssuerID),
			AppID:    strings.TrimSpace(c.IOS.AppID),
		},
		GooglePlay: core.GooglePlayConfig{
			KeyPath:     strings.TrimSpace(c.Android.KeyPath),
			PackageName: strings.TrimSpace(c.Android.PackageName),
			Track:       strings.TrimSpace(c.Android.Track),
		},
		Journal: core.JournalConfig{
			Driver: strings.TrimSpace(c.JournalDriver),
			DSN:    strings.TrimSpace(c.Journal),
		},
		LogLevel: strings.TrimSpace(c.LogLevel),
	}
}

func (n notesCmd) message(platform string) servicescommand.SetNotesMessage {
	return servicescommand.SetNotesMessage{
		Platform: platform,
		Locale:   n.Language,
		Version:  n.Name,
		Text:     n.Message,
	}
}

func (h historyCmd) filter() core.RunFilter {
	return core.RunFilter{
		Platform:  strings.ToLower(strings.TrimSpace(h.Platform)),
		Operation: strings.ToLower(strings.TrimSpace(h.Operation)),
		Status:    core.RunStatus(strings.ToLower(strings.TrimSpace(h.Status))),
		Limit:     h.Limit,
	}
}

type printer struct {
	machine bool
	stdout  io.Writer
	stderr  io.Writer
}

func newPrinter(machine bool, stdout io.Writer, stderr io.Writer) printer {
	return printer{machine: machine, stdout: stdout, stderr: stderr}
}

type machineError struct {
	Code     string `json:"code"`
	Category string `json:"category,omitempty"`
	Status   int    `json:"status,omitempty"`
	Message  string `json:"message"`
}

type machineLine struct {
	OK     bool          `json:"ok"`
	Result any           `json:"result,omitempty"`
	Error  *machineError `json:"error,omitempty"`
}

type runLine struct {
	ID         string `json:"id"`
	Platform   string `json:"platform"`
	Operation  string `json:"operation"`
	Target     string `json:"target,omitempty"`
	Version    string `json:"version"`
	Locale     string `json:"locale,omitempty"`
	Status     string `json:"status"`
	Step       string `json:"step,omitempty"`
	ErrorCode  string `json:"error_code,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

func (p printer) release(result servicescommand.ReleaseResult, err error) int {
	if err != nil {
		return p.failure(err)
	}
	if p.machine {
		p.writeJSON(machineLine{OK: true, Result: result})
		return exitOK
	}
	switch result.Operation {
	case core.OperationCreateVersion:
		fmt.Fprintf(p.stdout, "Created version %s on %s (%s)\n", result.Version, result.Target, result.Platform)
	default:
		locale := result.Locale
		if locale == "" {
			locale = "default locale"
		}
		fmt.Fprintf(p.stdout, "Updated release notes of %s for %s on %s (%s)\n", result.Version, locale, result.Target, result.Platform)
	}
	return exitOK
}

func (p printer) runs(entries []core.RunEntry, err error) int {
	if err != nil {
		return p.failure(err)
	}
	for _, entry := range entries {
		line := runLine{
			ID:         entry.ID,
			Platform:   entry.Platform,
			Operation:  entry.Operation,
			Target:     entry.Target,
			Version:    entry.Version,
			Locale:     entry.Locale,
			Status:     string(entry.Status),
			Step:       string(entry.Step),
			ErrorCode:  entry.ErrorCode,
			Error:      entry.Error,
			DurationMS: entry.DurationMS,
			CreatedAt:  entry.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
		if p.machine {
			p.writeJSON(line)
			continue
		}
		fmt.Fprintf(p.stdout, "%s  %-7s  %-14s  %-8s  %-6s  %s  %s\n",
			line.CreatedAt, line.Platform, line.Operation, line.Version, line.Status, line.Step, line.ErrorCode)
	}
	return exitOK
}

func (p printer) failure(err error) int {
	envelope := machineError{Code: core.TextCode(err), Message: err.Error()}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		envelope.Category = fmt.Sprint(rich.Category)
	}
	envelope.Status = core.StatusCode(err)
	if p.machine {
		p.writeJSON(machineLine{OK: false, Error: &envelope})
		return exitFailed
	}
	fmt.Fprintf(p.stderr, "freitool: %s (%s)\n", envelope.Message, envelope.Code)
	return exitFailed
}

func (p printer) writeJSON(value any) {
	encoded, err := json.Marshal(value)
	if err != nil {
		fmt.Fprintf(p.stderr, "freitool: encode output: %v\n", err)
		return
	}
	fmt.Fprintln(p.stdout, string(encoded))
}
