package midi

import (
	"errors"
	"strconv"
	"strings"
)

// Direction はポートの向き（入力/出力）。
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// EventMessage はフロントへ送る MIDI 受信イベント名。
const EventMessage = "midi_message"

var (
	ErrDriverUnavailable = errors.New("native MIDI driver is not included in this build (build with -tags midi_native)")
	ErrPortNotFound      = errors.New("MIDI port not found")
	ErrConnect           = errors.New("MIDI connect failed")
	ErrNotConnected      = errors.New("MIDI output is not connected")
)

// Message は1イベント分の生バイト列。検証はしない。
type Message []byte

// MarshalJSON は []byte の base64 ではなく数値配列として出力する（フロントは number[] を期待）。
func (m Message) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range m {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(v)))
	}
	b.WriteByte(']')
	return []byte(b.String()), nil
}

// Payload は midi_message イベントのペイロード。
type Payload struct {
	Message Message `json:"message"`
}

// Status は各方向の接続状態。
type Status struct {
	Input  string `json:"input"`  // 空=未接続
	Output string `json:"output"` // 空=未接続
}
