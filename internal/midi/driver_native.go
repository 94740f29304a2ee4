//go:build midi_native

package midi

import (
	"fmt"

	"gitlab.com/gomidi/rtmididrv"
)

// NewDriver は rtmididrv を初期化する。
func NewDriver() (Driver, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv.New: %w", err)
	}
	return FromGomidi(drv), nil
}
