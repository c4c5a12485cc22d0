package audio

import (
	"reflect"
	"testing"
)

const pactlOutput = `Sink Input #42
	Driver: protocol-native.c
	Owner Module: 10
	Volume: front-left: 65536 / 100% / 0.00 dB,   front-right: 65536 / 100% / 0.00 dB
	        balance 0.00
	Properties:
		application.name = "Firefox"
		media.name = "Playback"

Sink Input #57
	Driver: protocol-native.c
	Volume: mono: 39322 /  60% / -13.31 dB
	Properties:
		application.name = "marhaba"

Sink Input #bogus
	Volume: mono: 1 / 1%

Sink Input #60
	Driver: protocol-native.c
	Volume: front-left: 0 / 0% / -inf dB
`

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(pactlOutput)
	want := []streamInfo{
		{ID: 42, Volume: 100, AppName: "Firefox"},
		{ID: 57, Volume: 60, AppName: "marhaba"},
		{ID: 60, Volume: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected streams:\n got %+v\nwant %+v", got, want)
	}

	if got := parseSinkInputs("No sink inputs"); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestDucker_IsSelf(t *testing.T) {
	d := NewDucker([]string{"marhaba"}, 10, 0.3, 0)

	if !d.isSelf(streamInfo{AppName: "marhaba"}) {
		t.Error("expected own stream to be skipped")
	}
	if d.isSelf(streamInfo{AppName: "Firefox"}) {
		t.Error("expected foreign stream to be ducked")
	}
}

func TestClampVolume(t *testing.T) {
	for in, want := range map[int]int{-5: 0, 0: 0, 80: 80, 150: 150, 400: 150} {
		if got := clampVolume(in); got != want {
			t.Errorf("clampVolume(%d) = %d, want %d", in, got, want)
		}
	}
}
