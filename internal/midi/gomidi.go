package midi

import (
	gomidi "gitlab.com/gomidi/midi"
)

// gomidiDriver は gomidi v1 のドライバを Driver に合わせる薄いラッパです。
type gomidiDriver struct {
	drv gomidi.Driver
}

// FromGomidi は任意の gomidi v1 ドライバ（rtmididrv 等）を Driver として返す。
func FromGomidi(drv gomidi.Driver) Driver {
	return &gomidiDriver{drv: drv}
}

func (d *gomidiDriver) Ins() ([]InPort, error) {
	ins, err := d.drv.Ins()
	if err != nil {
		return nil, err
	}
	out := make([]InPort, len(ins))
	for i, p := range ins {
		out[i] = p
	}
	return out, nil
}

func (d *gomidiDriver) Outs() ([]OutPort, error) {
	outs, err := d.drv.Outs()
	if err != nil {
		return nil, err
	}
	out := make([]OutPort, len(outs))
	for i, p := range outs {
		out[i] = p
	}
	return out, nil
}

func (d *gomidiDriver) Close() error { return d.drv.Close() }
