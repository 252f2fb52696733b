package client

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/AndurilCode/mcp-apps-kit/logx"
)

// WebSocketPort carries the embedded-RPC boundary over a WebSocket, for
// widget processes bridged to their host through a local socket instead of
// an in-process pair.
type WebSocketPort struct {
	url    string
	logger logx.Logger

	mu      sync.Mutex
	conn    net.Conn
	handler func([]byte)
	pending [][]byte
	doneCh  chan struct{}
	opened  bool
}

// NewWebSocketPort creates a port that will dial the given ws:// or wss://
// URL on Open.
func NewWebSocketPort(url string, logger logx.Logger) *WebSocketPort {
	if logger == nil {
		logger = logx.NewDefaultLogger()
	}
	return &WebSocketPort{
		url:    url,
		logger: logger,
		doneCh: make(chan struct{}),
	}
}

// Open dials the host bridge and starts the read pump.
func (p *WebSocketPort) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opened {
		return nil
	}

	conn, _, _, err := ws.Dial(ctx, p.url)
	if err != nil {
		return err
	}
	p.conn = conn
	p.opened = true

	go p.readLoop(conn)
	return nil
}

// Send transmits one text frame to the host side.
func (p *WebSocketPort) Send(data []byte) error {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()

	if conn == nil {
		return errors.New("websocket port is not open")
	}
	return wsutil.WriteClientMessage(conn, ws.OpText, data)
}

// SetMessageHandler registers the receive callback and drains frames that
// arrived before registration.
func (p *WebSocketPort) SetMessageHandler(handler func(data []byte)) {
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

// Close stops the read pump and closes the connection.
func (p *WebSocketPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-p.doneCh:
	default:
		close(p.doneCh)
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

func (p *WebSocketPort) readLoop(conn net.Conn) {
	for {
		select {
		case <-p.doneCh:
			return
		default:
		}

		msg, op, err := wsutil.ReadServerData(conn)
		if err != nil {
			select {
			case <-p.doneCh:
			default:
				p.logger.Warn("websocket port read failed: %v", err)
			}
			return
		}
		if op == ws.OpClose {
			p.logger.Debug("websocket port closed by host")
			return
		}
		if op != ws.OpText && op != ws.OpBinary {
			continue
		}

		p.mu.Lock()
		handler := p.handler
		if handler == nil {
			p.pending = append(p.pending, msg)
			p.mu.Unlock()
			continue
		}
		p.mu.Unlock()
		handler(msg)
	}
}

var _ MessagePort = (*WebSocketPort)(nil)
