package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"delugian/internal/gui/config"
	"delugian/internal/midi"
)

func TestParseHexBytes(t *testing.T) {
	cases := []struct {
		in   []string
		want []byte
	}{
		{[]string{"90", "3C", "7F"}, []byte{0x90, 0x3C, 0x7F}},
		{[]string{"0x90,0x3c", "0X7f"}, []byte{0x90, 0x3C, 0x7F}},
		{[]string{"f0 7e 7f", "f7"}, []byte{0xF0, 0x7E, 0x7F, 0xF7}},
	}
	for _, c := range cases {
		got, err := parseHexBytes(c.in)
		if err != nil {
			t.Fatalf("parseHexBytes(%q) error: %v", c.in, err)
		}
		if !bytes.Equal(got, c.want) {
			t.Fatalf("parseHexBytes(%q)=% X; want % X", c.in, got, c.want)
		}
	}
	for _, bad := range [][]string{nil, {"100"}, {"zz"}, {" , "}} {
		if _, err := parseHexBytes(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestApplyMidiFlags(t *testing.T) {
	mc := config.MidiConfig{InputPort: "FromJSON", OutputPort: "FromJSON", QueueSize: 64, Overflow: "drop-oldest"}
	set := map[string]bool{"input": true, "queue": true}
	applyMidiFlags(&mc, set, "CLI_In", "CLI_Out", "input", 16, "drop-newest")
	if mc.InputPort != "CLI_In" {
		t.Fatalf("input override failed: %q", mc.InputPort)
	}
	if mc.OutputPort != "FromJSON" {
		t.Fatalf("output should keep JSON value: %q", mc.OutputPort)
	}
	if mc.QueueSize != 16 {
		t.Fatalf("queue override failed: %d", mc.QueueSize)
	}
	if mc.Overflow != "drop-oldest" {
		t.Fatalf("overflow should keep JSON value: %q", mc.Overflow)
	}
	if mc.Direction != "" {
		t.Fatalf("direction should be untouched: %q", mc.Direction)
	}
}

func TestLoadConfig_FromPath(t *testing.T) {
	p := filepath.Join(t.TempDir(), "delugian.json")
	data := []byte(`{"midi":{"input_port":"Deluge Port 1","direction":"input","queue_size":8}}`)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(p)
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.MIDI.InputPort != "Deluge Port 1" || cfg.MIDI.Direction != "input" || cfg.MIDI.QueueSize != 8 {
		t.Fatalf("cfg=%#v", cfg.MIDI)
	}
	if cfg.MIDI.OutputPort != config.DefaultPort {
		t.Fatalf("output default missing: %q", cfg.MIDI.OutputPort)
	}
}

func TestLineEmitter(t *testing.T) {
	var buf bytes.Buffer
	e := newLineEmitter(&buf)
	if err := e.Emit(midi.EventMessage, midi.Payload{Message: midi.Message{0x90, 0x40, 0x7F}}); err != nil {
		t.Fatal(err)
	}
	want := `{"event":"midi_message","payload":{"message":[144,64,127]}}` + "\n"
	if buf.String() != want {
		t.Fatalf("got %q; want %q", buf.String(), want)
	}
}

func TestSortedKeys(t *testing.T) {
	got := sortedKeys(map[int]string{2: "c", 0: "a", 1: "b"})
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("got %v", got)
	}
}
