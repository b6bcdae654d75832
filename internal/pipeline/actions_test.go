package pipeline

import (
	"errors"
	"testing"

	"vpipe/internal/media"
	"vpipe/internal/services"
)

func TestParseActionsLastWinsInPlace(t *testing.T) {
	actions, err := ParseActions([]string{"delay=1.5", "inspect", "delay=2"})
	if err != nil {
		t.Fatalf("ParseActions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("action count = %d, want 2", len(actions))
	}
	if actions[0].Name != CmdDelay || actions[1].Name != CmdInspect {
		t.Fatalf("order = %s, %s", actions[0].Name, actions[1].Name)
	}
	if actions[0].Floats[0] != 2 {
		t.Fatalf("delay kept %v, want the later value 2", actions[0].Floats[0])
	}
}

func TestParseActionsAtempoDefaults(t *testing.T) {
	actions, err := ParseActions([]string{"atempo=25"})
	if err != nil {
		t.Fatalf("ParseActions: %v", err)
	}
	floats := actions[0].Floats
	if len(floats) != 2 || floats[0] != 25 || floats[1] != media.NTSCRate {
		t.Fatalf("atempo args = %v, want [25 %v]", floats, media.NTSCRate)
	}

	actions, err = ParseActions([]string{"atempo"})
	if err != nil {
		t.Fatalf("bare atempo: %v", err)
	}
	if len(actions[0].Floats) != 0 {
		t.Fatalf("bare atempo should carry no rates, got %v", actions[0].Floats)
	}
}

func TestParseActionsExtractVariants(t *testing.T) {
	cases := []struct {
		token      string
		streamType string
		track      int
	}{
		{"extract", "audio", AllTracks},
		{"extract=2", "audio", 2},
		{"extract=subtitle", "subtitle", AllTracks},
		{"extract=subtitle,1", "subtitle", 1},
	}
	for _, tc := range cases {
		actions, err := ParseActions([]string{tc.token})
		if err != nil {
			t.Fatalf("%s: %v", tc.token, err)
		}
		if actions[0].Strs[0] != tc.streamType || actions[0].Ints[0] != tc.track {
			t.Errorf("%s = %s/%d, want %s/%d",
				tc.token, actions[0].Strs[0], actions[0].Ints[0], tc.streamType, tc.track)
		}
	}
}

func TestParseActionsRejectsBadInput(t *testing.T) {
	bad := []string{
		"explode",
		"delay",
		"delay=abc",
		"atempo=1,2,3",
		"merge",
		"translate",
		"translate=es",
		"generate-subs=en",
		"inspect=now",
		"extract=video",
	}
	for _, token := range bad {
		if _, err := ParseActions([]string{token}); !errors.Is(err, services.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", token, err)
		}
	}
}
