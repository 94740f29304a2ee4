package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppDir はユーザー設定ディレクトリ配下のアプリ用ディレクトリ名。
const AppDir = "delugian"

// DefaultPort は Deluge の既定ポート名（入力/出力共通）。
const DefaultPort = "Deluge Port 3"

// Config はアプリの永続設定です。
type Config struct {
	MIDI MidiConfig `json:"midi"`
	Log  LogConfig  `json:"log"`
}

// MidiConfig は接続先ポートと受信キューの設定。
type MidiConfig struct {
	InputPort  string `json:"input_port"`  // 完全一致で照合
	OutputPort string `json:"output_port"` // 完全一致で照合
	Direction  string `json:"direction"`   // both|input|output
	QueueSize  int    `json:"queue_size"`  // 受信キュー長
	Overflow   string `json:"overflow"`    // drop-newest|drop-oldest
}

// LogConfig はロガー設定。
type LogConfig struct {
	Level       string `json:"level"` // debug|info|warn|error
	Development bool   `json:"development"`
}

func Default() *Config {
	return &Config{
		MIDI: MidiConfig{
			InputPort:  DefaultPort,
			OutputPort: DefaultPort,
			Direction:  "both",
			QueueSize:  256,
			Overflow:   "drop-newest",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Normalize は列挙値を正規化・検証し、空の項目に既定値を入れる。
// ポート名は大文字小文字・空白を含めて照合に使うため加工しない（空のときだけ既定値）。
func (c *Config) Normalize() error {
	d := Default()
	if c.MIDI.InputPort == "" {
		c.MIDI.InputPort = d.MIDI.InputPort
	}
	if c.MIDI.OutputPort == "" {
		c.MIDI.OutputPort = d.MIDI.OutputPort
	}

	dir := strings.ToLower(strings.TrimSpace(c.MIDI.Direction))
	switch dir {
	case "", "both":
		dir = "both"
	case "input", "in":
		dir = "input"
	case "output", "out":
		dir = "output"
	default:
		return fmt.Errorf("midi.direction は both|input|output を指定してください（指定値: %s）", c.MIDI.Direction)
	}
	c.MIDI.Direction = dir

	if c.MIDI.QueueSize < 0 {
		return fmt.Errorf("midi.queue_size は 0 以上を指定してください（指定値: %d）", c.MIDI.QueueSize)
	}
	if c.MIDI.QueueSize == 0 {
		c.MIDI.QueueSize = d.MIDI.QueueSize
	}

	ov := strings.ToLower(strings.TrimSpace(c.MIDI.Overflow))
	switch ov {
	case "", "drop-newest", "drop_newest":
		ov = "drop-newest"
	case "drop-oldest", "drop_oldest":
		ov = "drop-oldest"
	default:
		return fmt.Errorf("midi.overflow は drop-newest|drop-oldest を指定してください（指定値: %s）", c.MIDI.Overflow)
	}
	c.MIDI.Overflow = ov

	lv := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch lv {
	case "":
		lv = "info"
	case "debug", "info", "warn", "error":
	case "warning":
		lv = "warn"
	default:
		return fmt.Errorf("log.level は debug|info|warn|error を指定してください（指定値: %s）", c.Log.Level)
	}
	c.Log.Level = lv
	return nil
}

// Dir は設定ディレクトリ（OS毎の規定の設定ディレクトリ配下）を作成して返す。
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	d := filepath.Join(dir, AppDir)
	if err := os.MkdirAll(d, 0o755); err != nil {
		return "", err
	}
	return d, nil
}

func path() (string, error) {
	d, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.json"), nil
}

// Load は設定を読み込みます。無い場合は (nil, os.ErrNotExist) を返します。
func Load() (*Config, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(p)
}

// LoadFrom は指定パスから読み込み、正規化して返す。
func LoadFrom(p string) (*Config, error) {
	bt, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	var c Config
	if err := json.Unmarshal(bt, &c); err != nil {
		return nil, err
	}
	if err := c.Normalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save は設定を保存します。
func Save(c *Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	return SaveTo(p, c)
}

// SaveTo は正規化してから指定パスへ保存する。
func SaveTo(p string, c *Config) error {
	if c == nil {
		return errors.New("nil config")
	}
	if err := c.Normalize(); err != nil {
		return err
	}
	bt, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, bt, 0o600)
}
