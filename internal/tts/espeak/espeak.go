// Package espeak speaks through libespeak-ng in synchronous playback mode,
// so no audio file is ever written.
package espeak

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

int
espeak_say(const char *text, const char *lang)
{
	if (!text || !lang)
	{ return -1; }

	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -2; }

	espeak_VOICE specs;
	memset(&specs, 0, sizeof(specs));
	specs.languages = lang;
	espeak_SetVoiceByProperties(&specs);

	espeak_ERROR rc = espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return rc == EE_OK ? 0 : -3;
}
*/
import "C"

import (
	"context"
	"fmt"
	"sync"
	"unsafe"
)

// Speaker is safe for sequential use only; libespeak-ng keeps global state.
type Speaker struct {
	mu   sync.Mutex
	lang string
}

func New(lang string) *Speaker {
	if lang == "" {
		lang = "en"
	}
	return &Speaker{lang: lang}
}

func (s *Speaker) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	clang := C.CString(s.lang)
	defer C.free(unsafe.Pointer(clang))

	if rc := C.espeak_say(ctext, clang); rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}
	return nil
}
