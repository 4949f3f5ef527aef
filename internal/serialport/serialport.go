// Package serialport adapts a physical meter line to the decoder's
// Transport. Teleinfo runs over an asymmetric serial link: 1200 baud 7E1 in
// legacy mode, 9600 baud 7E1 in standard mode.
package serialport

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// BaudLegacy and BaudStandard are the two line rates meters use.
const (
	BaudLegacy   = 1200
	BaudStandard = 9600
)

type Port struct {
	cfg  Config
	port *serial.Port
}

func Open(cfg Config) (*Port, error) {
	if cfg.Baud == 0 {
		cfg.Baud = BaudStandard
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 2 * time.Second
	}
	sc := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		Size:        7,
		Parity:      serial.ParityEven,
		StopBits:    serial.Stop1,
		ReadTimeout: cfg.ReadTimeout,
	}
	p, err := serial.OpenPort(sc)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Device, err)
	}
	return &Port{cfg: cfg, port: p}, nil
}

func (p *Port) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Read satisfies teleinfo.Transport. The underlying driver reports an
// expired read deadline as io.EOF; that is remapped to a timeout error so
// the decoder keeps polling instead of treating the line as closed.
func (p *Port) Read(b []byte) (int, error) {
	return mapReadResult(p.port.Read(b))
}

func mapReadResult(n int, err error) (int, error) {
	if err == io.EOF && n == 0 {
		return 0, errReadTimeout{}
	}
	return n, err
}

type errReadTimeout struct{}

func (errReadTimeout) Error() string { return "serial read timed out" }
func (errReadTimeout) Timeout() bool { return true }
