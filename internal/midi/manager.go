package midi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Option は Manager の設定を変更する。
type Option func(*Manager)

// WithLogger はロガーを設定する。
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithHandler は入力メッセージの受け取り先を設定する（通常は Forwarder.Enqueue）。
func WithHandler(h func(data []byte)) Option {
	return func(m *Manager) {
		if h != nil {
			m.handler = h
		}
	}
}

type inConn struct {
	port InPort
	name string
}

type outConn struct {
	port OutPort
	name string
}

// Manager は入力/出力それぞれ高々1本の接続を保持する。
// スロットごとに独立したロックを持ち、2方向は互いに協調しない。
type Manager struct {
	logger  *zap.Logger
	handler func(data []byte)
	factory DriverFactory

	drvMu sync.Mutex
	drv   Driver

	inMu sync.Mutex
	in   *inConn

	outMu sync.Mutex
	out   *outConn
}

// NewManager は Manager を作る。ドライバは最初に必要になった時点で factory から初期化する。
func NewManager(factory DriverFactory, opts ...Option) *Manager {
	m := &Manager{
		logger:  zap.NewNop(),
		handler: func([]byte) {},
		factory: factory,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// driver は初期化済みドライバを返す。失敗時は次回また初期化を試みる。
func (m *Manager) driver() (Driver, error) {
	m.drvMu.Lock()
	defer m.drvMu.Unlock()
	if m.drv != nil {
		return m.drv, nil
	}
	if m.factory == nil {
		return nil, ErrDriverUnavailable
	}
	drv, err := m.factory()
	if err != nil {
		return nil, err
	}
	m.drv = drv
	return drv, nil
}

// Open は入力と出力をそれぞれ独立に開く。片方の失敗はもう片方に影響しない。
func (m *Manager) Open(inputName, outputName string) error {
	return errors.Join(m.OpenInput(inputName), m.OpenOutput(outputName))
}

// OpenDirection は dir（both|input|output）で指定された方向だけを開く。
func (m *Manager) OpenDirection(dir, inputName, outputName string) error {
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "both":
		return m.Open(inputName, outputName)
	case string(Input):
		return m.OpenInput(inputName)
	case string(Output):
		return m.OpenOutput(outputName)
	default:
		return fmt.Errorf("unknown direction %q (both|input|output)", dir)
	}
}

// OpenInput は name に一致する入力ポートを開き、既存の入力接続と置き換える。
// 見つからない場合も接続に失敗した場合も、既存の接続はそのまま残る。
// 古い接続は差し替えの後で閉じる。
func (m *Manager) OpenInput(name string) error {
	drv, err := m.driver()
	if err != nil {
		m.logger.Error("midi subsystem unavailable", zap.String("direction", string(Input)), zap.Error(err))
		return err
	}
	ports, err := drv.Ins()
	if err != nil {
		m.logger.Error("failed to enumerate ports", zap.String("direction", string(Input)), zap.Error(err))
		return err
	}
	idx, ok := FindPort(ports, name)
	if !ok {
		m.logNotFound(Input, name, portNames(ports))
		return fmt.Errorf("%w: input %q", ErrPortNotFound, name)
	}
	port := ports[idx]

	// 接続はロックの外で行い、成功したときだけスロットを差し替える
	if err := port.Open(); err != nil {
		m.logger.Error("failed to open port", zap.String("direction", string(Input)), zap.String("port", name), zap.Error(err))
		return fmt.Errorf("%w: input %q: %v", ErrConnect, name, err)
	}
	handler := m.handler
	if err := port.SetListener(func(data []byte, _ int64) { handler(data) }); err != nil {
		_ = port.Close()
		m.logger.Error("failed to set listener", zap.String("port", name), zap.Error(err))
		return fmt.Errorf("%w: input %q: %v", ErrConnect, name, err)
	}

	m.inMu.Lock()
	old := m.in
	m.in = &inConn{port: port, name: name}
	m.inMu.Unlock()
	if old != nil && old.port != port {
		m.closeIn(old)
	}
	m.logger.Info("midi port opened", zap.String("direction", string(Input)), zap.String("port", name), zap.Int("index", idx))
	return nil
}

// OpenOutput は name に一致する出力ポートを開き、既存の出力接続と置き換える。
// 失敗時の扱いは OpenInput と同じ。
func (m *Manager) OpenOutput(name string) error {
	drv, err := m.driver()
	if err != nil {
		m.logger.Error("midi subsystem unavailable", zap.String("direction", string(Output)), zap.Error(err))
		return err
	}
	ports, err := drv.Outs()
	if err != nil {
		m.logger.Error("failed to enumerate ports", zap.String("direction", string(Output)), zap.Error(err))
		return err
	}
	idx, ok := FindPort(ports, name)
	if !ok {
		m.logNotFound(Output, name, portNames(ports))
		return fmt.Errorf("%w: output %q", ErrPortNotFound, name)
	}
	port := ports[idx]

	if err := port.Open(); err != nil {
		m.logger.Error("failed to open port", zap.String("direction", string(Output)), zap.String("port", name), zap.Error(err))
		return fmt.Errorf("%w: output %q: %v", ErrConnect, name, err)
	}

	m.outMu.Lock()
	old := m.out
	m.out = &outConn{port: port, name: name}
	m.outMu.Unlock()
	if old != nil && old.port != port {
		m.closeOut(old)
	}
	m.logger.Info("midi port opened", zap.String("direction", string(Output)), zap.String("port", name), zap.Int("index", idx))
	return nil
}

func portNames[P interface{ String() string }](ports []P) []string {
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names
}

func (m *Manager) logNotFound(dir Direction, name string, names []string) {
	m.logger.Warn("midi port not found; keeping previous connection",
		zap.String("direction", string(dir)), zap.String("target", name), zap.Strings("available", names))
}

func (m *Manager) closeIn(c *inConn) {
	if err := c.port.StopListening(); err != nil {
		m.logger.Warn("failed to stop listening", zap.String("port", c.name), zap.Error(err))
	}
	if err := c.port.Close(); err != nil {
		m.logger.Warn("failed to close port", zap.String("direction", string(Input)), zap.String("port", c.name), zap.Error(err))
	}
}

func (m *Manager) closeOut(c *outConn) {
	if err := c.port.Close(); err != nil {
		m.logger.Warn("failed to close port", zap.String("direction", string(Output)), zap.String("port", c.name), zap.Error(err))
	}
}

// InputName は接続中の入力ポート名を返す。
func (m *Manager) InputName() (string, bool) {
	m.inMu.Lock()
	defer m.inMu.Unlock()
	if m.in == nil {
		return "", false
	}
	return m.in.name, true
}

// OutputName は接続中の出力ポート名を返す。
func (m *Manager) OutputName() (string, bool) {
	m.outMu.Lock()
	defer m.outMu.Unlock()
	if m.out == nil {
		return "", false
	}
	return m.out.name, true
}

// Status は両方向の接続先ポート名（未接続は空）。
func (m *Manager) Status() Status {
	in, _ := m.InputName()
	out, _ := m.OutputName()
	return Status{Input: in, Output: out}
}

// Send は出力接続へ生バイトを書き込む。内容は検証しない。
func (m *Manager) Send(data []byte) error {
	m.outMu.Lock()
	defer m.outMu.Unlock()
	if m.out == nil {
		return ErrNotConnected
	}
	if _, err := m.out.port.Write(data); err != nil {
		return fmt.Errorf("write to %q: %w", m.out.name, err)
	}
	return nil
}

// Close は両方向の接続とドライバを解放する。複数回呼んでもよい。
func (m *Manager) Close() error {
	m.inMu.Lock()
	if m.in != nil {
		m.closeIn(m.in)
		m.in = nil
	}
	m.inMu.Unlock()

	m.outMu.Lock()
	if m.out != nil {
		m.closeOut(m.out)
		m.out = nil
	}
	m.outMu.Unlock()

	m.drvMu.Lock()
	defer m.drvMu.Unlock()
	if m.drv == nil {
		return nil
	}
	err := m.drv.Close()
	m.drv = nil
	return err
}
