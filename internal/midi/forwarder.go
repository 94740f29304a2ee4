package midi

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Emitter は UI 層へのイベント送出口。
type Emitter interface {
	Emit(event string, payload any) error
}

// OverflowPolicy はキューが満杯のときの扱い。
type OverflowPolicy string

const (
	DropNewest OverflowPolicy = "drop-newest"
	DropOldest OverflowPolicy = "drop-oldest"
)

// DefaultQueueSize は Forwarder のキュー長の既定値。
const DefaultQueueSize = 256

// ParseOverflowPolicy は設定値を正規化する。空は drop-newest。
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop-newest", "drop_newest", "newest":
		return DropNewest, nil
	case "drop-oldest", "drop_oldest", "oldest":
		return DropOldest, nil
	default:
		return "", fmt.Errorf("unknown overflow policy %q (drop-newest|drop-oldest)", s)
	}
}

// Forwarder はドライバのコールバックから受け取ったメッセージを有界キューに積み、
// 別ゴルーチンで Emitter へ流す。ドライバスレッドはブロックしない。
type Forwarder struct {
	emitter Emitter
	logger  *zap.Logger
	policy  OverflowPolicy
	queue   chan Message

	dropped atomic.Uint64
	stopped atomic.Bool

	mu     sync.Mutex // Start/Stop
	cancel context.CancelFunc
	done   chan struct{}
}

// NewForwarder は Forwarder を作る。size<=0 は DefaultQueueSize。
func NewForwarder(emitter Emitter, logger *zap.Logger, size int, policy OverflowPolicy) *Forwarder {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = DropNewest
	}
	return &Forwarder{
		emitter: emitter,
		logger:  logger,
		policy:  policy,
		queue:   make(chan Message, size),
	}
}

// Enqueue は data をコピーしてキューに積む（空でもそのまま流す）。満杯時はポリシーに従って1件捨てる。
func (f *Forwarder) Enqueue(data []byte) {
	if f.stopped.Load() {
		return
	}
	msg := make(Message, len(data))
	copy(msg, data)

	select {
	case f.queue <- msg:
		return
	default:
	}

	if f.policy == DropOldest {
		select {
		case <-f.queue:
			f.drop("oldest")
		default:
		}
		select {
		case f.queue <- msg:
			return
		default:
		}
	}
	f.drop("newest")
}

func (f *Forwarder) drop(which string) {
	n := f.dropped.Add(1)
	f.logger.Debug("midi queue full; message dropped", zap.String("which", which), zap.Uint64("dropped", n))
}

// Dropped はキュー溢れで捨てた件数。
func (f *Forwarder) Dropped() uint64 { return f.dropped.Load() }

// Start は消費ゴルーチンを起動する。二重起動は無視。
func (f *Forwarder) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	f.stopped.Store(false)
	go f.run(ctx, f.done)
}

func (f *Forwarder) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-f.queue:
			if err := f.emitter.Emit(EventMessage, Payload{Message: msg}); err != nil {
				f.logger.Warn("failed to emit midi message", zap.Error(err), zap.String("message", fmt.Sprintf("% X", []byte(msg))))
			}
		}
	}
}

// Stop は消費ゴルーチンを止め、終了を待つ。以降の Enqueue は捨てる。
func (f *Forwarder) Stop() {
	f.stopped.Store(true)
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
