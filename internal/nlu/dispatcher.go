package nlu

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"strings"
	"time"

	"github.com/spf13/afero"

	"vox/internal/provider"
)

// Outcome tells the control loop whether to keep listening.
type Outcome int

const (
	Continue Outcome = iota
	Terminate
)

func (o Outcome) String() string {
	if o == Terminate {
		return "terminate"
	}
	return "continue"
}

// Speaker renders a reply to the user.
type Speaker interface {
	Say(text string)
}

type Providers struct {
	Lookup  provider.Provider
	Compute provider.Provider
	Media   provider.Provider
	Weather provider.Provider
}

type Options struct {
	Activation string
	Speaker    Speaker
	// Help receives the command listing.
	Help io.Writer
	// Fs stores notes.
	Fs  afero.Fs
	Now func() time.Time
	Providers
}

type Router struct {
	activation string
	speaker    Speaker
	help       io.Writer
	fs         afero.Fs
	now        func() time.Time
	providers  Providers
}

func NewRouter(opts Options) *Router {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Help == nil {
		opts.Help = io.Discard
	}
	return &Router{
		activation: opts.Activation,
		speaker:    opts.Speaker,
		help:       opts.Help,
		fs:         opts.Fs,
		now:        opts.Now,
		providers:  opts.Providers,
	}
}

// HelpText lists the spoken commands.
func HelpText(activation string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Available commands (prefix with '%s'):\n", activation)
	b.WriteString("- say <words>        → Speak back your words\n")
	b.WriteString("- wikipedia <topic>  → Summary from Wikipedia\n")
	b.WriteString("- compute <query>    → Wolfram|Alpha compute (fallback Wikipedia)\n")
	b.WriteString("- play <song/artist> → Play on Spotify\n")
	b.WriteString("- weather <city>     → Current weather\n")
	b.WriteString("- notes <text>       → Save a note to file\n")
	b.WriteString("- help               → List commands\n")
	b.WriteString("- exit               → Quit the assistant")
	return b.String()
}

// NoteName is the file a note taken at t is written to.
func NoteName(t time.Time) string {
	return "note_" + t.Format("2006-01-02-15-04-05") + ".txt"
}

// Handle routes one utterance and speaks the reply.
func (r *Router) Handle(ctx context.Context, words []string) Outcome {
	cmd := Parse(words, r.activation)
	if cmd.Intent == IntentNone {
		return Continue
	}

	log.Debug("Dispatch", "intent", cmd.Intent, "arg", cmd.Argument)

	switch cmd.Intent {
	case IntentPrompt:
		r.speaker.Say("Please say a command.")

	case IntentSay:
		if cmd.Argument == "" {
			r.speaker.Say("Hello.")
		} else {
			r.speaker.Say(cmd.Argument)
		}

	case IntentWikipedia:
		r.speaker.Say(r.providers.Lookup.Call(ctx, cmd.Argument))

	case IntentCompute:
		r.speaker.Say(r.providers.Compute.Call(ctx, cmd.Argument))

	case IntentPlay:
		r.speaker.Say(r.providers.Media.Call(ctx, cmd.Argument))

	case IntentWeather:
		r.speaker.Say(r.providers.Weather.Call(ctx, cmd.Argument))

	case IntentNotes:
		r.speaker.Say("Ready to record your note.")
		name := NoteName(r.now())
		if err := afero.WriteFile(r.fs, name, []byte(cmd.Argument), 0o644); err != nil {
			log.Error("Failed to write note", "file", name, "err", err)
			r.speaker.Say("Could not write the note.")
			break
		}
		log.Info("Note written", "file", name)
		r.speaker.Say("Note written.")

	case IntentHelp:
		fmt.Fprintln(r.help, HelpText(r.activation))
		r.speaker.Say("I printed the list of available commands.")

	case IntentExit:
		r.speaker.Say("Goodbye.")
		return Terminate

	default:
		r.speaker.Say("Unknown command.")
	}

	return Continue
}
