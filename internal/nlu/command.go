package nlu

import "strings"

type Intent string

const (
	IntentNone      Intent = ""
	IntentPrompt    Intent = "prompt"
	IntentSay       Intent = "say"
	IntentWikipedia Intent = "wikipedia"
	IntentCompute   Intent = "compute"
	IntentPlay      Intent = "play"
	IntentWeather   Intent = "weather"
	IntentNotes     Intent = "notes"
	IntentHelp      Intent = "help"
	IntentExit      Intent = "exit"
	IntentUnknown   Intent = "unknown"
)

var keywords = map[string]Intent{
	"say":       IntentSay,
	"wikipedia": IntentWikipedia,
	"compute":   IntentCompute,
	"computer":  IntentCompute,
	"play":      IntentPlay,
	"weather":   IntentWeather,
	"notes":     IntentNotes,
	"help":      IntentHelp,
	"exit":      IntentExit,
}

// Command is one classified utterance.
type Command struct {
	Intent   Intent
	Keyword  string
	Argument string
	RawInput string
}

// Parse classifies words. A leading activation word is dropped; what remains
// is split into the keyword and its space-joined argument.
func Parse(words []string, activation string) Command {
	cmd := Command{RawInput: strings.Join(words, " ")}
	if len(words) == 0 {
		return cmd
	}

	if activation != "" && words[0] == activation {
		words = words[1:]
	}
	if len(words) == 0 {
		cmd.Intent = IntentPrompt
		return cmd
	}

	cmd.Keyword = words[0]
	cmd.Argument = strings.TrimSpace(strings.Join(words[1:], " "))

	if intent, ok := keywords[cmd.Keyword]; ok {
		cmd.Intent = intent
	} else {
		cmd.Intent = IntentUnknown
	}
	return cmd
}

// Tokenize lower-cases an utterance and splits it on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}
