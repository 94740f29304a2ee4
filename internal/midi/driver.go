package midi

// InPort は入力ポート。gomidi の midi.In がそのまま満たす。
type InPort interface {
	Open() error
	Close() error
	String() string
	SetListener(func(data []byte, deltaMicroseconds int64)) error
	StopListening() error
}

// OutPort は出力ポート。gomidi の midi.Out がそのまま満たす。
type OutPort interface {
	Open() error
	Close() error
	String() string
	Write(b []byte) (int, error)
}

// Driver は MIDI サブシステム。Ins/Outs は呼ぶたびに再列挙する。
type Driver interface {
	Ins() ([]InPort, error)
	Outs() ([]OutPort, error)
	Close() error
}

// DriverFactory はドライバを初期化する。失敗は「MIDI バックエンドなし」を意味する。
type DriverFactory func() (Driver, error)
