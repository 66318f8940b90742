package network

import (
	"context"
	"sync/atomic"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/gorilla/websocket"
)

// Client connects to a chunk server and forwards world updates to the
// host via callbacks. The receive loop runs on its own goroutine; the
// send methods are safe to call from the render thread.
type Client struct {
	url  string
	conn *websocket.Conn

	entityID atomic.Uint32

	// OnChunk receives full chunk payloads; OnMonoChunk uniform fills.
	// Both are invoked from the receive goroutine.
	OnChunk       func(pos [3]int32, cells []byte)
	OnMonoChunk   func(pos [3]int32, blockType int8)
	OnEntityAdded func(AddEntity)
	OnEntity      func(UpdateEntity)
	OnChat        func(message string)
}

func NewClient(url string) *Client {
	return &Client{url: url}
}

// EntityID returns the id assigned by the server, 0 before
// identification.
func (c *Client) EntityID() uint32 { return c.entityID.Load() }

func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return errors.New("connecting to chunk server failed").
			WithTag("url", c.url).
			Wrap(err)
	}
	c.conn = conn
	logs.WithTag("url", c.url).Info("connected to chunk server")
	return nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Run reads packets until the connection drops or ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-done:
		}
	}()

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.New("chunk server connection lost").Wrap(err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		pkt, err := DecodeServer(data)
		if err != nil {
			logs.Warn(err)
			continue
		}
		c.handlePacket(pkt)
	}
}

func (c *Client) handlePacket(pkt Packet) {
	switch p := pkt.(type) {
	case Identification:
		c.entityID.Store(p.EntityID)
		logs.WithTag("entity_id", p.EntityID).Info("identification received")

	case AddEntity:
		logs.WithTag("entity_id", p.EntityID).Info("entity added")
		if c.OnEntityAdded != nil {
			c.OnEntityAdded(p)
		}

	case RemoveEntity:
		logs.WithTag("entity_id", p.EntityID).Info("entity removed")

	case UpdateEntity:
		if c.OnEntity != nil {
			c.OnEntity(p)
		}

	case Chunk:
		logs.WithTag("x", p.X).WithTag("y", p.Y).WithTag("z", p.Z).
			Debug("chunk received")
		if c.OnChunk != nil {
			c.OnChunk([3]int32{p.X, p.Y, p.Z}, p.Cells[:])
		}

	case MonoChunk:
		logs.WithTag("x", p.X).WithTag("y", p.Y).WithTag("z", p.Z).
			WithTag("block_type", p.BlockType).
			Debug("mono-type chunk received")
		if c.OnMonoChunk != nil {
			c.OnMonoChunk([3]int32{p.X, p.Y, p.Z}, p.BlockType)
		}

	case Chat:
		logs.WithTag("message", p.Message).Info("chat received")
		if c.OnChat != nil {
			c.OnChat(p.Message)
		}

	case EntityMetadata:
		logs.WithTag("entity_id", p.EntityID).
			WithTag("name", p.Name).
			Info("entity metadata updated")
	}
}

func (c *Client) SendUpdateEntity(x, y, z, yaw, pitch float32) error {
	return c.send(ClientUpdateEntity{
		EntityID: c.entityID.Load(),
		X:        x, Y: y, Z: z,
		Yaw: yaw, Pitch: pitch,
	})
}

func (c *Client) SendUpdateBlock(blockType uint8, x, y, z int32) error {
	return c.send(UpdateBlock{BlockType: blockType, X: x, Y: y, Z: z})
}

func (c *Client) SendBlockBulkEdit(blocks []UpdateBlock) error {
	return c.send(BlockBulkEdit{Blocks: blocks})
}

func (c *Client) SendChat(message string) error {
	return c.send(ClientChat{Message: message})
}

func (c *Client) SendClientMetadata(renderDistance uint8, name string) error {
	return c.send(ClientMetadata{RenderDistance: renderDistance, Name: name})
}

func (c *Client) send(pkt Packet) error {
	return c.conn.WriteMessage(websocket.BinaryMessage, pkt.Encode())
}
