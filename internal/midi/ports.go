package midi

import (
	"go.uber.org/zap"
)

// ListPorts は dir 方向のポートを「列挙順の番号 → 表示名」で返す。
// MIDI サブシステムが使えない場合もエラーにせず空の map を返す。
// 名前が読めないポートはログに残して飛ばす（番号は詰めない）。
func (m *Manager) ListPorts(dir Direction) map[int]string {
	out := map[int]string{}
	drv, err := m.driver()
	if err != nil {
		m.logger.Error("midi subsystem unavailable", zap.String("direction", string(dir)), zap.Error(err))
		return out
	}

	var names []string
	switch dir {
	case Output:
		ports, err := drv.Outs()
		if err != nil {
			m.logger.Error("failed to enumerate ports", zap.String("direction", string(dir)), zap.Error(err))
			return out
		}
		names = portNames(ports)
	default:
		ports, err := drv.Ins()
		if err != nil {
			m.logger.Error("failed to enumerate ports", zap.String("direction", string(dir)), zap.Error(err))
			return out
		}
		names = portNames(ports)
	}

	for i, name := range names {
		if name == "" {
			m.logger.Warn("failed to read port name; skipped", zap.String("direction", string(dir)), zap.Int("index", i))
			continue
		}
		out[i] = name
	}
	return out
}
