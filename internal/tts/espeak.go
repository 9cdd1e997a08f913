package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

int
espeak_say(const char *text, const char *lang, int rate)
{
	if (!text)
	{ return -1; }

	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -2; }

	espeak_VOICE specs = { .languages = lang };
	espeak_SetVoiceByProperties(&specs);
	espeak_SetParameter(espeakRATE, rate, 0);

	espeak_Synth(text, 500, 0, 0, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return 0;
}
*/
import "C"

import (
	"fmt"
	"io"
	log "log/slog"
	"os"
	"unsafe"
)

const DefaultRate = 150

func Speak(text, lang string, rate int) error {
	if text == "" {
		return nil
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	clang := C.CString(lang)
	defer C.free(unsafe.Pointer(clang))

	rc := C.espeak_say(ctext, clang, C.int(rate))
	if rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}

	return nil
}

// Espeak speaks replies aloud. When synthesis fails the text is printed instead.
type Espeak struct {
	Lang     string
	Rate     int
	Fallback io.Writer
}

func NewEspeak() *Espeak {
	return &Espeak{Lang: "en", Rate: DefaultRate, Fallback: os.Stdout}
}

func (e *Espeak) Say(text string) {
	log.Info("Speak", "text", text)
	if err := Speak(text, e.Lang, e.Rate); err != nil {
		log.Error("TTS failed", "err", err)
		fmt.Fprintln(e.Fallback, text)
	}
}
