package sim

import (
	"io"
	"sync"
)

// SerialPort adapts a byte stream to core.SerialPort. A background
// reader buffers incoming bytes so Buffered never blocks.
type SerialPort struct {
	rw io.ReadWriter

	mu  sync.Mutex
	buf []byte
	err error
}

// NewSerialPort starts buffering rw
func NewSerialPort(rw io.ReadWriter) *SerialPort {
	p := &SerialPort{rw: rw}
	go p.readLoop()
	return p
}

func (p *SerialPort) readLoop() {
	chunk := make([]byte, 256)
	for {
		n, err := p.rw.Read(chunk)
		p.mu.Lock()
		p.buf = append(p.buf, chunk[:n]...)
		if err != nil {
			p.err = err
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
	}
}

// Buffered returns the number of bytes ready to read
func (p *SerialPort) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf)
}

// ReadByte returns the next buffered byte
func (p *SerialPort) ReadByte() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buf) == 0 {
		if p.err != nil {
			return 0, p.err
		}
		return 0, io.ErrNoProgress
	}
	b := p.buf[0]
	p.buf = p.buf[1:]
	return b, nil
}

// Write sends data to the stream
func (p *SerialPort) Write(data []byte) (int, error) {
	return p.rw.Write(data)
}

// Err returns the error that stopped the reader, if any
func (p *SerialPort) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
