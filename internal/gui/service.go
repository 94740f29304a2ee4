package gui

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"delugian/internal/gui/config"
	"delugian/internal/midi"
	"delugian/internal/store"
)

// EventLog はフロントへ送るログイベント名。
const EventLog = "log"

// SysexSendReply は SysexSend が返す固定文字列（送信は行わない）。
const SysexSendReply = "SysEx message sent:"

var errNoStore = errors.New("settings store is not available")

// Service はフロントエンドから呼び出されるコマンド群です。
// 公開メソッドはすべて Wails にバインドされる。
type Service struct {
	cfgMu      sync.Mutex
	cfg        *config.Config
	saveConfig func(*config.Config) error

	midi    *midi.Manager
	store   *store.Store
	emitter midi.Emitter
	logger  *zap.Logger
}

// NewService は Service を作る。store は nil でもよい（ストア系コマンドがエラーになる）。
func NewService(cfg *config.Config, mgr *midi.Manager, st *store.Store, emitter midi.Emitter, logger *zap.Logger) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:        cfg,
		saveConfig: config.Save,
		midi:       mgr,
		store:      st,
		emitter:    emitter,
		logger:     logger,
	}
}

// --- 公開API（フロントから呼び出し） ---

// ListMidiConnections は入力ポートを「番号 → 名前」で返す。MIDI が使えなければ空。
func (s *Service) ListMidiConnections() map[int]string {
	return s.midi.ListPorts(midi.Input)
}

// ListMidiOutputs は出力ポートを「番号 → 名前」で返す。
func (s *Service) ListMidiOutputs() map[int]string {
	return s.midi.ListPorts(midi.Output)
}

// OpenMidiConnection は設定されたポート名で入力/出力を開く。
// inputIdx はポートの選択には使わない。設定と異なるポートを指していれば警告だけ出す。
// 失敗はログとイベントで通知し、呼び出し元へは返さない。
func (s *Service) OpenMidiConnection(inputIdx int) {
	mc := s.midiConfig()

	if name, ok := s.midi.ListPorts(midi.Input)[inputIdx]; ok && name != mc.InputPort {
		s.logger.Warn("input index does not select the port; opening the configured port instead",
			zap.Int("input_idx", inputIdx), zap.String("index_port", name), zap.String("configured_port", mc.InputPort))
		s.emitLog("warn", fmt.Sprintf("選択されたポート %q ではなく設定のポート %q を開きます", name, mc.InputPort))
	}

	if err := s.midi.OpenDirection(mc.Direction, mc.InputPort, mc.OutputPort); err != nil {
		s.logger.Error("failed to open midi connection", zap.Error(err))
		s.emitLog("error", fmt.Sprintf("MIDI接続失敗: %v", err))
		return
	}
	st := s.midi.Status()
	s.emitLog("info", fmt.Sprintf("MIDI接続: in=%s out=%s", st.Input, st.Output))
}

// SysexReceive は受信した SysEx をログに出すだけ。
func (s *Service) SysexReceive(message string) {
	s.logger.Info("SysEx message received", zap.String("message", message))
}

// SysexSend は固定文字列を返すだけで、何も送信しない。
func (s *Service) SysexSend() string {
	return SysexSendReply
}

// MidiStatus は現在の接続状態。
func (s *Service) MidiStatus() midi.Status {
	return s.midi.Status()
}

// SendMidiMessage は出力接続へ生バイトを送る（各値は 0-255）。
func (s *Service) SendMidiMessage(data []int) error {
	if len(data) == 0 {
		return errors.New("メッセージが空です")
	}
	bt := make([]byte, len(data))
	for i, v := range data {
		if v < 0 || v > 255 {
			return fmt.Errorf("バイト値が範囲外です: data[%d]=%d", i, v)
		}
		bt[i] = byte(v)
	}
	return s.midi.Send(bt)
}

// GetConfig は現在の設定を返します。
func (s *Service) GetConfig() (*config.Config, error) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	c := *s.cfg
	return &c, nil
}

// SaveConfig は設定を正規化して保存します。次回の OpenMidiConnection から反映される。
func (s *Service) SaveConfig(c *config.Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Normalize(); err != nil {
		return err
	}
	if err := s.saveConfig(c); err != nil {
		return err
	}
	s.cfgMu.Lock()
	cp := *c
	s.cfg = &cp
	s.cfgMu.Unlock()
	s.emitLog("info", "設定を保存しました")
	return nil
}

// StoreGet は key の値を返す。未設定は null。
func (s *Service) StoreGet(key string) (json.RawMessage, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	v, ok := s.store.Get(key)
	if !ok {
		return nil, nil
	}
	return v, nil
}

// StoreSet は key に value を保存する。
func (s *Service) StoreSet(key string, value any) error {
	if s.store == nil {
		return errNoStore
	}
	return s.store.Set(key, value)
}

// StoreDelete は key を削除する。未設定なら何もしない。
func (s *Service) StoreDelete(key string) error {
	if s.store == nil {
		return errNoStore
	}
	return s.store.Delete(key)
}

// StoreKeys は保存済みのキー一覧。
func (s *Service) StoreKeys() ([]string, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	return s.store.Keys(), nil
}

// --- ユーティリティ ---

func (s *Service) midiConfig() config.MidiConfig {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	return s.cfg.MIDI
}

// emitLog はログに残し、フロントへ log イベントとしても送る（送れなくても無視）。
func (s *Service) emitLog(level, msg string) {
	switch level {
	case "error":
		s.logger.Error(msg)
	case "warn":
		s.logger.Warn(msg)
	default:
		s.logger.Info(msg)
	}
	if s.emitter == nil {
		return
	}
	payload := map[string]any{"level": level, "msg": msg, "time": time.Now().Format(time.RFC3339)}
	if err := s.emitter.Emit(EventLog, payload); err != nil {
		s.logger.Debug("failed to emit log event", zap.Error(err))
	}
}
