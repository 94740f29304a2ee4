package main

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"delugian/internal/gui"
	"delugian/internal/gui/config"
	"delugian/internal/logger"
	"delugian/internal/midi"
	"delugian/internal/store"
)

var errNoWindow = errors.New("no window is listening yet")

// wailsEmitter は Wails のイベントとしてフロントへ送る。起動前は errNoWindow。
type wailsEmitter struct {
	mu  sync.RWMutex
	ctx context.Context
}

func (e *wailsEmitter) setContext(ctx context.Context) {
	e.mu.Lock()
	e.ctx = ctx
	e.mu.Unlock()
}

func (e *wailsEmitter) Emit(event string, payload any) error {
	e.mu.RLock()
	ctx := e.ctx
	e.mu.RUnlock()
	if ctx == nil {
		return errNoWindow
	}
	runtime.EventsEmit(ctx, event, payload)
	return nil
}

// App は Wails にバインドされる。コマンドは埋め込んだ gui.Service が提供する。
type App struct {
	*gui.Service

	logger    *zap.Logger
	emitter   *wailsEmitter
	midi      *midi.Manager
	forwarder *midi.Forwarder
}

func NewApp() *App {
	// 設定を起動時に読み込み（存在しなければデフォルト）
	cfg, err := config.Load()
	if cfg == nil {
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("設定の読み込みに失敗しました。既定値を使用します: %v", err)
		}
		cfg = config.Default()
	}

	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Printf("ロガー初期化失敗: %v", err)
		lg = zap.NewExample()
	}

	em := &wailsEmitter{}
	policy, _ := midi.ParseOverflowPolicy(cfg.MIDI.Overflow)
	fwd := midi.NewForwarder(em, lg.Named("forwarder"), cfg.MIDI.QueueSize, policy)
	mgr := midi.NewManager(midi.NewDriver, midi.WithLogger(lg.Named("midi")), midi.WithHandler(fwd.Enqueue))

	var st *store.Store
	if dir, err := config.Dir(); err != nil {
		lg.Error("settings store unavailable", zap.Error(err))
	} else if st, err = store.Open(filepath.Join(dir, store.FileName)); err != nil {
		lg.Error("failed to open settings store", zap.Error(err))
		st = nil
	}

	return &App{
		Service:   gui.NewService(cfg, mgr, st, em, lg),
		logger:    lg,
		emitter:   em,
		midi:      mgr,
		forwarder: fwd,
	}
}

func (a *App) startup(ctx context.Context) {
	a.emitter.setContext(ctx)
	a.forwarder.Start(ctx)
	a.logger.Info("GUI 起動")
}

func (a *App) shutdown(ctx context.Context) {
	a.forwarder.Stop()
	if err := a.midi.Close(); err != nil {
		a.logger.Warn("failed to close midi", zap.Error(err))
	}
	if d := a.forwarder.Dropped(); d > 0 {
		a.logger.Info("midi messages dropped during session", zap.Uint64("dropped", d))
	}
	_ = a.logger.Sync()
}
