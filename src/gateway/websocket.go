package gateway

import (
	"context"
	"sync"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
)

// hub fans accepted bus events out to connected websocket clients.
type hub struct {
	config *config.Config

	input <-chan types.ContractEvent

	mtx     sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub(config *config.Config) *hub {
	return &hub{
		config:  config,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (self *hub) add(conn *websocket.Conn) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.clients[conn] = struct{}{}
}

func (self *hub) remove(conn *websocket.Conn) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	delete(self.clients, conn)
}

func (self *hub) snapshot() []*websocket.Conn {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	conns := make([]*websocket.Conn, 0, len(self.clients))
	for conn := range self.clients {
		conns = append(conns, conn)
	}
	return conns
}

// run broadcasts until the stream closes. A failed write closes only that
// client, the read loop in the handler cleans it up.
func (self *hub) run(ctx context.Context, onWriteError func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-self.input:
			if !ok {
				return
			}

			data, err := event.MarshalJSON()
			if err != nil {
				continue
			}

			for _, conn := range self.snapshot() {
				writeCtx, cancel := context.WithTimeout(ctx, self.config.Gateway.WebsocketWriteTimeout)
				err = conn.Write(writeCtx, websocket.MessageText, data)
				cancel()
				if err != nil {
					onWriteError(err)
					conn.Close(websocket.StatusPolicyViolation, "write timeout")
				}
			}
		}
	}
}

// onEventStream upgrades the request and holds the connection open until
// the client goes away.
func (self *Server) onEventStream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		self.badRequest(c, err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	self.hub.add(conn)
	self.monitor.GetReport().Gateway.State.WebsocketClients.Inc()
	defer func() {
		self.hub.remove(conn)
		self.monitor.GetReport().Gateway.State.WebsocketClients.Dec()
	}()

	// Drain incoming frames, the stream is write-only from our side
	for {
		_, _, err = conn.Read(self.Ctx)
		if err != nil {
			return
		}
	}
}
