package network

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voxelray/core"
)

// Server streams the voxel world to connected render clients and
// applies their block edits. Each client connection gets an entity id
// and a full chunk download on join; subsequent edits are rebroadcast
// as chunk updates.
type Server struct {
	Addr string

	upgrader websocket.Upgrader

	worldMu sync.RWMutex
	world   *core.VoxelGrid

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*session

	nextEntityID atomic.Uint32

	// OnChat, when set, observes relayed chat messages.
	OnChat func(entityID uint32, message string)
}

type session struct {
	id       uuid.UUID
	entityID uint32
	conn     *websocket.Conn
	writeMu  sync.Mutex // serializes frames on the shared conn

	stateMu        sync.Mutex // guards name, render distance and pose
	name           string
	renderDistance uint8
	x, y, z        float32
	yaw, pitch     float32
}

// announcement captures the session's entity at its last reported pose.
func (c *session) announcement() AddEntity {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return AddEntity{
		EntityID: c.entityID,
		X:        c.x, Y: c.y, Z: c.z,
		Yaw: c.yaw, Pitch: c.pitch,
	}
}

func NewServer(addr string, world *core.VoxelGrid) *Server {
	return &Server{
		Addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		world:   world,
		clients: make(map[*websocket.Conn]*session),
	}
}

// Handler exposes the websocket endpoint at /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

func (s *Server) ListenAndServe() error {
	logs.WithTag("addr", s.Addr).Info("starting chunk server")
	return http.ListenAndServe(s.Addr, s.Handler())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logs.Warn(errors.New("websocket upgrade failed").Wrap(err))
		return
	}
	defer conn.Close()

	sess := &session{
		id:       uuid.New(),
		entityID: s.nextEntityID.Add(1),
		conn:     conn,
	}

	s.clientsMu.Lock()
	s.clients[conn] = sess
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		s.broadcast(RemoveEntity{EntityID: sess.entityID}, sess)
		logs.WithTag("session", sess.id).Info("client disconnected")
	}()

	logs.WithTag("session", sess.id).
		WithTag("entity_id", sess.entityID).
		Info("client connected")

	if err := sess.send(Identification{EntityID: sess.entityID}); err != nil {
		logs.Warn(errors.New("sending identification failed").Wrap(err))
		return
	}
	if err := s.sendWorld(sess); err != nil {
		logs.Warn(errors.New("sending world failed").Wrap(err))
		return
	}
	if err := s.announce(sess); err != nil {
		logs.Warn(errors.New("announcing entities failed").Wrap(err))
		return
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		pkt, err := DecodeClient(data)
		if err != nil {
			logs.WithTag("session", sess.id).Warn(err)
			continue
		}
		s.handlePacket(sess, pkt)
	}
}

func (s *Server) handlePacket(sess *session, pkt Packet) {
	switch p := pkt.(type) {
	case ClientUpdateEntity:
		sess.stateMu.Lock()
		sess.x, sess.y, sess.z = p.X, p.Y, p.Z
		sess.yaw, sess.pitch = p.Yaw, p.Pitch
		sess.stateMu.Unlock()
		// The server-assigned id is authoritative, not the one in the
		// packet.
		s.broadcast(UpdateEntity{
			EntityID: sess.entityID,
			X:        p.X, Y: p.Y, Z: p.Z,
			Yaw: p.Yaw, Pitch: p.Pitch,
		}, sess)

	case UpdateBlock:
		s.applyBlocks([]UpdateBlock{p})

	case BlockBulkEdit:
		s.applyBlocks(p.Blocks)

	case ClientChat:
		if s.OnChat != nil {
			s.OnChat(sess.entityID, p.Message)
		}
		s.broadcast(Chat{Message: p.Message}, nil)

	case ClientMetadata:
		sess.stateMu.Lock()
		sess.name = p.Name
		sess.renderDistance = p.RenderDistance
		sess.stateMu.Unlock()
		s.broadcast(EntityMetadata{EntityID: sess.entityID, Name: p.Name}, sess)
	}
}

// announce introduces the joining session's entity to the connected
// clients and replays the existing entities (with their names) back to
// the joiner, so every client holds the full entity set.
func (s *Server) announce(sess *session) error {
	s.broadcast(sess.announcement(), sess)

	s.clientsMu.RLock()
	peers := make([]*session, 0, len(s.clients))
	for _, p := range s.clients {
		if p != sess {
			peers = append(peers, p)
		}
	}
	s.clientsMu.RUnlock()

	for _, p := range peers {
		if err := sess.send(p.announcement()); err != nil {
			return err
		}
		p.stateMu.Lock()
		name := p.name
		p.stateMu.Unlock()
		if name == "" {
			continue
		}
		if err := sess.send(EntityMetadata{EntityID: p.entityID, Name: name}); err != nil {
			return err
		}
	}
	return nil
}

// applyBlocks writes edits into the world and rebroadcasts every
// touched chunk so all clients converge on the same grid.
func (s *Server) applyBlocks(blocks []UpdateBlock) {
	touched := make(map[[3]int32]struct{})

	s.worldMu.Lock()
	for _, b := range blocks {
		s.world.Set(int(b.X), int(b.Y), int(b.Z), b.BlockType)
		touched[[3]int32{
			b.X / ChunkSize,
			b.Y / ChunkSize,
			b.Z / ChunkSize,
		}] = struct{}{}
	}
	s.worldMu.Unlock()

	for pos := range touched {
		s.broadcast(s.chunkAt(pos[0], pos[1], pos[2]), nil)
	}
}

// sendWorld pushes the whole grid as chunk packets. Uniform chunks
// collapse to mono-type fills.
func (s *Server) sendWorld(sess *session) error {
	s.worldMu.RLock()
	wx, wy, wz := s.world.Extents()
	s.worldMu.RUnlock()

	for cz := int32(0); cz < int32(wz+ChunkSize-1)/ChunkSize; cz++ {
		for cy := int32(0); cy < int32(wy+ChunkSize-1)/ChunkSize; cy++ {
			for cx := int32(0); cx < int32(wx+ChunkSize-1)/ChunkSize; cx++ {
				if err := sess.send(s.chunkAt(cx, cy, cz)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Server) chunkAt(cx, cy, cz int32) Packet {
	var c Chunk
	c.X, c.Y, c.Z = cx, cy, cz

	s.worldMu.RLock()
	uniform := true
	first := s.world.Get(int(cx)*ChunkSize, int(cy)*ChunkSize, int(cz)*ChunkSize)
	for z := 0; z < ChunkSize; z++ {
		for y := 0; y < ChunkSize; y++ {
			for x := 0; x < ChunkSize; x++ {
				v := s.world.Get(
					int(cx)*ChunkSize+x,
					int(cy)*ChunkSize+y,
					int(cz)*ChunkSize+z,
				)
				c.Cells[x+y*ChunkSize+z*ChunkSize*ChunkSize] = v
				if v != first {
					uniform = false
				}
			}
		}
	}
	s.worldMu.RUnlock()

	if uniform {
		return MonoChunk{X: cx, Y: cy, Z: cz, BlockType: int8(first)}
	}
	return c
}

// broadcast sends a packet to every client except skip.
func (s *Server) broadcast(pkt Packet, skip *session) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, sess := range s.clients {
		if sess == skip {
			continue
		}
		if err := sess.send(pkt); err != nil {
			logs.WithTag("session", sess.id).
				Warn(errors.New("broadcast failed").Wrap(err))
		}
	}
}

func (c *session) send(pkt Packet) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, pkt.Encode())
}
