package midi

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestListPorts(t *testing.T) {
	m := NewManager(factoryOf(newFakeDriver("IAC Driver", "Deluge Port 3", "Deluge Port 5")))
	got := m.ListPorts(Input)
	want := map[int]string{0: "IAC Driver", 1: "Deluge Port 3", 2: "Deluge Port 5"}
	if len(got) != len(want) {
		t.Fatalf("got %#v; want %#v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("port %d => %q; want %q", k, got[k], v)
		}
	}
}

func TestListPorts_Outputs(t *testing.T) {
	d := newFakeDriver("In Only")
	d.outs = []*fakeOut{{name: "Out A"}, {name: "Out B"}}
	m := NewManager(factoryOf(d))
	got := m.ListPorts(Output)
	if len(got) != 2 || got[0] != "Out A" || got[1] != "Out B" {
		t.Fatalf("got %#v", got)
	}
}

func TestListPorts_NoPorts(t *testing.T) {
	m := NewManager(factoryOf(newFakeDriver()))
	got := m.ListPorts(Input)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil map, got %#v", got)
	}
}

func TestListPorts_InitFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	calls := 0
	m := NewManager(func() (Driver, error) {
		calls++
		return nil, ErrDriverUnavailable
	}, WithLogger(zap.New(core)))

	got := m.ListPorts(Input)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected {} on init failure, got %#v", got)
	}
	if logs.FilterMessage("midi subsystem unavailable").Len() != 1 {
		t.Fatalf("init failure should be logged once, logs=%v", logs.All())
	}
	// 次の呼び出しで初期化を再試行する
	_ = m.ListPorts(Input)
	if calls != 2 {
		t.Fatalf("factory calls=%d; want 2", calls)
	}
}

func TestListPorts_EnumerationError(t *testing.T) {
	d := newFakeDriver("A")
	d.insErr = errors.New("boom")
	m := NewManager(factoryOf(d))
	if got := m.ListPorts(Input); len(got) != 0 {
		t.Fatalf("got %#v", got)
	}
}

func TestListPorts_SkipsUnreadableName(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := NewManager(factoryOf(newFakeDriver("A", "", "C")), WithLogger(zap.New(core)))
	got := m.ListPorts(Input)
	if len(got) != 2 || got[0] != "A" || got[2] != "C" {
		t.Fatalf("got %#v", got)
	}
	if _, ok := got[1]; ok {
		t.Fatalf("unreadable port should be skipped")
	}
	if logs.FilterMessage("failed to read port name; skipped").Len() != 1 {
		t.Fatalf("expected a warning for the skipped port")
	}
}
