package client

import (
	"context"
	"errors"
	"sync"
)

// MessagePort is the widget side of the host messaging boundary. The
// embedded-RPC adapter speaks its structured request/notification protocol
// over one of these; the concrete carrier (in-process pair, WebSocket
// bridge) is an external collaborator.
type MessagePort interface {
	// Open establishes the carrier. Ports that need no setup return nil.
	Open(ctx context.Context) error
	// Send transmits one frame to the host side.
	Send(data []byte) error
	// SetMessageHandler registers the receive callback. Frames arriving
	// before a handler is registered are buffered, never lost.
	SetMessageHandler(handler func(data []byte))
	// Close tears the carrier down.
	Close() error
}

// PipePort is an in-process MessagePort. NewPipePair returns two connected
// ends; whatever one side sends, the other side's handler receives.
type PipePort struct {
	mu      sync.Mutex
	handler func([]byte)
	peer    *PipePort
	pending [][]byte
	closed  bool
}

// NewPipePair creates two connected in-process ports. By convention the
// first return is handed to the widget adapter and the second to the host
// harness.
func NewPipePair() (*PipePort, *PipePort) {
	widget := &PipePort{}
	host := &PipePort{}
	widget.peer = host
	host.peer = widget
	return widget, host
}

// Open is a no-op for in-process ports.
func (p *PipePort) Open(ctx context.Context) error {
	return nil
}

// Send delivers one frame to the peer port.
func (p *PipePort) Send(data []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("pipe port is closed")
	}
	peer := p.peer
	p.mu.Unlock()

	frame := append([]byte(nil), data...)
	return peer.deliver(frame)
}

func (p *PipePort) deliver(data []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("pipe port is closed")
	}
	if p.handler == nil {
		p.pending = append(p.pending, data)
		p.mu.Unlock()
		return nil
	}
	handler := p.handler
	p.mu.Unlock()

	handler(data)
	return nil
}

// SetMessageHandler registers the receive callback and drains any frames
// buffered before registration, in arrival order.
func (p *PipePort) SetMessageHandler(handler func(data []byte)) {
	p.mu.Lock()
	p.handler = handler
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	if handler == nil {
		return
	}
	for _, frame := range pending {
		handler(frame)
	}
}

// Close marks the port closed. Further sends on either direction fail.
func (p *PipePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

var _ MessagePort = (*PipePort)(nil)
