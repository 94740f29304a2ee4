//go:build !midi_native

package midi

// NewDriver はデフォルトビルド（midi_nativeタグなし）では未対応。
func NewDriver() (Driver, error) {
	return nil, ErrDriverUnavailable
}
