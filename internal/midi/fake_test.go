package midi

import (
	"errors"
	"sync"
)

type fakeIn struct {
	name     string
	openErr  error
	mu       sync.Mutex
	open     bool
	listener func([]byte, int64)

	// gate が非nilなら Open は entered を閉じてから gate が閉じられるまで待つ
	gate    chan struct{}
	entered chan struct{}
}

func (p *fakeIn) Open() error {
	if p.gate != nil {
		close(p.entered)
		<-p.gate
	}
	if p.openErr != nil {
		return p.openErr
	}
	p.mu.Lock()
	p.open = true
	p.mu.Unlock()
	return nil
}

func (p *fakeIn) Close() error {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
	return nil
}

func (p *fakeIn) String() string { return p.name }

func (p *fakeIn) SetListener(fn func(data []byte, deltaMicroseconds int64)) error {
	p.mu.Lock()
	p.listener = fn
	p.mu.Unlock()
	return nil
}

func (p *fakeIn) StopListening() error {
	p.mu.Lock()
	p.listener = nil
	p.mu.Unlock()
	return nil
}

func (p *fakeIn) isOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// send はハードウェアからの受信を模擬する。
func (p *fakeIn) send(b []byte) {
	p.mu.Lock()
	fn := p.listener
	p.mu.Unlock()
	if fn != nil {
		fn(b, 0)
	}
}

type fakeOut struct {
	name    string
	openErr error
	open    bool
	written [][]byte
}

func (p *fakeOut) Open() error {
	if p.openErr != nil {
		return p.openErr
	}
	p.open = true
	return nil
}

func (p *fakeOut) Close() error   { p.open = false; return nil }
func (p *fakeOut) String() string { return p.name }

func (p *fakeOut) Write(b []byte) (int, error) {
	if !p.open {
		return 0, errors.New("port closed")
	}
	p.written = append(p.written, append([]byte(nil), b...))
	return len(b), nil
}

type fakeDriver struct {
	ins    []*fakeIn
	outs   []*fakeOut
	insErr error
	closed bool
}

func (d *fakeDriver) Ins() ([]InPort, error) {
	if d.insErr != nil {
		return nil, d.insErr
	}
	out := make([]InPort, len(d.ins))
	for i, p := range d.ins {
		out[i] = p
	}
	return out, nil
}

func (d *fakeDriver) Outs() ([]OutPort, error) {
	out := make([]OutPort, len(d.outs))
	for i, p := range d.outs {
		out[i] = p
	}
	return out, nil
}

func (d *fakeDriver) Close() error { d.closed = true; return nil }

func factoryOf(d *fakeDriver) DriverFactory {
	return func() (Driver, error) { return d, nil }
}

func newFakeDriver(names ...string) *fakeDriver {
	d := &fakeDriver{}
	for _, n := range names {
		d.ins = append(d.ins, &fakeIn{name: n})
		d.outs = append(d.outs, &fakeOut{name: n})
	}
	return d
}

type recordEmitter struct {
	mu     sync.Mutex
	err    error
	events []string
	msgs   []Message
	got    chan struct{}
}

func newRecordEmitter() *recordEmitter {
	return &recordEmitter{got: make(chan struct{}, 64)}
}

func (e *recordEmitter) Emit(event string, payload any) error {
	e.mu.Lock()
	e.events = append(e.events, event)
	if p, ok := payload.(Payload); ok {
		e.msgs = append(e.msgs, p.Message)
	}
	err := e.err
	e.mu.Unlock()
	e.got <- struct{}{}
	return err
}

func (e *recordEmitter) messages() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Message(nil), e.msgs...)
}
