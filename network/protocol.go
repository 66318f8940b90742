// Package network streams voxel chunks and entity state between a
// world server and render clients. Packets are fixed-layout big-endian
// records, one per websocket binary message: a 1-byte packet id
// followed by the payload.
package network

import (
	"encoding/binary"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	// ChunkSize is the cubic chunk edge length carried on the wire.
	ChunkSize   = 16
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize

	nameLen = 64
	chatLen = 4096
)

// Server-to-client packet ids.
const (
	SrvIdentification byte = 0x00
	SrvAddEntity      byte = 0x01
	SrvRemoveEntity   byte = 0x02
	SrvUpdateEntity   byte = 0x03
	SrvChunk          byte = 0x04
	SrvMonoChunk      byte = 0x05
	SrvChat           byte = 0x06
	SrvEntityMetadata byte = 0x07
)

// Client-to-server packet ids.
const (
	CliUpdateEntity   byte = 0x00
	CliUpdateBlock    byte = 0x01
	CliBlockBulkEdit  byte = 0x02
	CliChat           byte = 0x03
	CliClientMetadata byte = 0x04
)

// Packet is any wire record; Encode yields the id byte plus payload.
type Packet interface {
	Encode() []byte
}

type Identification struct {
	EntityID uint32
}

// AddEntity announces an entity and its pose. Names travel separately
// in EntityMetadata.
type AddEntity struct {
	EntityID            uint32
	X, Y, Z, Yaw, Pitch float32
}

type RemoveEntity struct {
	EntityID uint32
}

type UpdateEntity struct {
	EntityID            uint32
	X, Y, Z, Yaw, Pitch float32
}

// Chunk carries a full 16^3 cell payload, one byte per cell, in the
// same x + y*16 + z*256 linear order the grid uses.
type Chunk struct {
	X, Y, Z int32
	Cells   [ChunkVolume]byte
}

// MonoChunk fills an entire chunk with a single block type.
type MonoChunk struct {
	X, Y, Z   int32
	BlockType int8
}

type Chat struct {
	Message string
}

type EntityMetadata struct {
	EntityID uint32
	Name     string
}

type ClientUpdateEntity struct {
	EntityID            uint32
	X, Y, Z, Yaw, Pitch float32
}

type UpdateBlock struct {
	BlockType uint8
	X, Y, Z   int32
}

type BlockBulkEdit struct {
	Blocks []UpdateBlock
}

type ClientChat struct {
	Message string
}

type ClientMetadata struct {
	RenderDistance uint8
	Name           string
}

func (p Identification) Encode() []byte {
	b := make([]byte, 5)
	b[0] = SrvIdentification
	binary.BigEndian.PutUint32(b[1:], p.EntityID)
	return b
}

func (p AddEntity) Encode() []byte {
	b := make([]byte, 25)
	b[0] = SrvAddEntity
	binary.BigEndian.PutUint32(b[1:], p.EntityID)
	putFloats(b[5:], p.X, p.Y, p.Z, p.Yaw, p.Pitch)
	return b
}

func (p RemoveEntity) Encode() []byte {
	b := make([]byte, 5)
	b[0] = SrvRemoveEntity
	binary.BigEndian.PutUint32(b[1:], p.EntityID)
	return b
}

func (p UpdateEntity) Encode() []byte {
	b := make([]byte, 25)
	b[0] = SrvUpdateEntity
	binary.BigEndian.PutUint32(b[1:], p.EntityID)
	putFloats(b[5:], p.X, p.Y, p.Z, p.Yaw, p.Pitch)
	return b
}

func (p Chunk) Encode() []byte {
	b := make([]byte, 1+12+ChunkVolume)
	b[0] = SrvChunk
	binary.BigEndian.PutUint32(b[1:], uint32(p.X))
	binary.BigEndian.PutUint32(b[5:], uint32(p.Y))
	binary.BigEndian.PutUint32(b[9:], uint32(p.Z))
	copy(b[13:], p.Cells[:])
	return b
}

func (p MonoChunk) Encode() []byte {
	b := make([]byte, 14)
	b[0] = SrvMonoChunk
	binary.BigEndian.PutUint32(b[1:], uint32(p.X))
	binary.BigEndian.PutUint32(b[5:], uint32(p.Y))
	binary.BigEndian.PutUint32(b[9:], uint32(p.Z))
	b[13] = byte(p.BlockType)
	return b
}

func (p Chat) Encode() []byte {
	b := make([]byte, 1+chatLen)
	b[0] = SrvChat
	putPadded(b[1:], p.Message, chatLen)
	return b
}

func (p EntityMetadata) Encode() []byte {
	b := make([]byte, 1+4+nameLen)
	b[0] = SrvEntityMetadata
	binary.BigEndian.PutUint32(b[1:], p.EntityID)
	putPadded(b[5:], p.Name, nameLen)
	return b
}

func (p ClientUpdateEntity) Encode() []byte {
	b := make([]byte, 25)
	b[0] = CliUpdateEntity
	binary.BigEndian.PutUint32(b[1:], p.EntityID)
	putFloats(b[5:], p.X, p.Y, p.Z, p.Yaw, p.Pitch)
	return b
}

func (p UpdateBlock) Encode() []byte {
	b := make([]byte, 14)
	b[0] = CliUpdateBlock
	putBlock(b[1:], p)
	return b
}

func (p BlockBulkEdit) Encode() []byte {
	b := make([]byte, 1+4+13*len(p.Blocks))
	b[0] = CliBlockBulkEdit
	binary.BigEndian.PutUint32(b[1:], uint32(len(p.Blocks)))
	for i, blk := range p.Blocks {
		putBlock(b[5+13*i:], blk)
	}
	return b
}

func (p ClientChat) Encode() []byte {
	b := make([]byte, 1+chatLen)
	b[0] = CliChat
	putPadded(b[1:], p.Message, chatLen)
	return b
}

func (p ClientMetadata) Encode() []byte {
	b := make([]byte, 1+1+nameLen)
	b[0] = CliClientMetadata
	b[1] = p.RenderDistance
	putPadded(b[2:], p.Name, nameLen)
	return b
}

// DecodeServer parses one server-to-client message.
func DecodeServer(data []byte) (Packet, error) {
	if len(data) == 0 {
		return nil, errors.New("empty packet")
	}
	id, payload := data[0], data[1:]
	switch id {
	case SrvIdentification:
		if err := checkLen(id, payload, 4); err != nil {
			return nil, err
		}
		return Identification{EntityID: binary.BigEndian.Uint32(payload)}, nil

	case SrvAddEntity:
		if err := checkLen(id, payload, 24); err != nil {
			return nil, err
		}
		p := AddEntity{EntityID: binary.BigEndian.Uint32(payload)}
		getFloats(payload[4:], &p.X, &p.Y, &p.Z, &p.Yaw, &p.Pitch)
		return p, nil

	case SrvRemoveEntity:
		if err := checkLen(id, payload, 4); err != nil {
			return nil, err
		}
		return RemoveEntity{EntityID: binary.BigEndian.Uint32(payload)}, nil

	case SrvUpdateEntity:
		if err := checkLen(id, payload, 24); err != nil {
			return nil, err
		}
		p := UpdateEntity{EntityID: binary.BigEndian.Uint32(payload)}
		getFloats(payload[4:], &p.X, &p.Y, &p.Z, &p.Yaw, &p.Pitch)
		return p, nil

	case SrvChunk:
		if err := checkLen(id, payload, 12+ChunkVolume); err != nil {
			return nil, err
		}
		p := Chunk{
			X: int32(binary.BigEndian.Uint32(payload)),
			Y: int32(binary.BigEndian.Uint32(payload[4:])),
			Z: int32(binary.BigEndian.Uint32(payload[8:])),
		}
		copy(p.Cells[:], payload[12:])
		return p, nil

	case SrvMonoChunk:
		if err := checkLen(id, payload, 13); err != nil {
			return nil, err
		}
		return MonoChunk{
			X:         int32(binary.BigEndian.Uint32(payload)),
			Y:         int32(binary.BigEndian.Uint32(payload[4:])),
			Z:         int32(binary.BigEndian.Uint32(payload[8:])),
			BlockType: int8(payload[12]),
		}, nil

	case SrvChat:
		if err := checkLen(id, payload, chatLen); err != nil {
			return nil, err
		}
		return Chat{Message: trimPadded(payload)}, nil

	case SrvEntityMetadata:
		if err := checkLen(id, payload, 4+nameLen); err != nil {
			return nil, err
		}
		return EntityMetadata{
			EntityID: binary.BigEndian.Uint32(payload),
			Name:     trimPadded(payload[4 : 4+nameLen]),
		}, nil
	}
	return nil, errors.New("unknown server packet id").WithTag("id", id)
}

// DecodeClient parses one client-to-server message.
func DecodeClient(data []byte) (Packet, error) {
	if len(data) == 0 {
		return nil, errors.New("empty packet")
	}
	id, payload := data[0], data[1:]
	switch id {
	case CliUpdateEntity:
		if err := checkLen(id, payload, 24); err != nil {
			return nil, err
		}
		p := ClientUpdateEntity{EntityID: binary.BigEndian.Uint32(payload)}
		getFloats(payload[4:], &p.X, &p.Y, &p.Z, &p.Yaw, &p.Pitch)
		return p, nil

	case CliUpdateBlock:
		if err := checkLen(id, payload, 13); err != nil {
			return nil, err
		}
		return getBlock(payload), nil

	case CliBlockBulkEdit:
		if len(payload) < 4 {
			return nil, errors.New("short bulk edit packet").WithTag("len", len(payload))
		}
		count := int(binary.BigEndian.Uint32(payload))
		if err := checkLen(id, payload, 4+13*count); err != nil {
			return nil, err
		}
		p := BlockBulkEdit{Blocks: make([]UpdateBlock, count)}
		for i := range p.Blocks {
			p.Blocks[i] = getBlock(payload[4+13*i:])
		}
		return p, nil

	case CliChat:
		if err := checkLen(id, payload, chatLen); err != nil {
			return nil, err
		}
		return ClientChat{Message: trimPadded(payload)}, nil

	case CliClientMetadata:
		if err := checkLen(id, payload, 1+nameLen); err != nil {
			return nil, err
		}
		return ClientMetadata{
			RenderDistance: payload[0],
			Name:           trimPadded(payload[1 : 1+nameLen]),
		}, nil
	}
	return nil, errors.New("unknown client packet id").WithTag("id", id)
}

func checkLen(id byte, payload []byte, want int) error {
	if len(payload) != want {
		return errors.New("packet payload length mismatch").
			WithTag("id", id).
			WithTag("want", want).
			WithTag("got", len(payload))
	}
	return nil
}

func putFloats(dst []byte, vals ...float32) {
	for i, v := range vals {
		binary.BigEndian.PutUint32(dst[4*i:], math.Float32bits(v))
	}
}

func getFloats(src []byte, vals ...*float32) {
	for i, v := range vals {
		*v = math.Float32frombits(binary.BigEndian.Uint32(src[4*i:]))
	}
}

func putBlock(dst []byte, b UpdateBlock) {
	dst[0] = b.BlockType
	binary.BigEndian.PutUint32(dst[1:], uint32(b.X))
	binary.BigEndian.PutUint32(dst[5:], uint32(b.Y))
	binary.BigEndian.PutUint32(dst[9:], uint32(b.Z))
}

func getBlock(src []byte) UpdateBlock {
	return UpdateBlock{
		BlockType: src[0],
		X:         int32(binary.BigEndian.Uint32(src[1:])),
		Y:         int32(binary.BigEndian.Uint32(src[5:])),
		Z:         int32(binary.BigEndian.Uint32(src[9:])),
	}
}

// putPadded writes a NUL-padded fixed-width string, truncating if
// necessary.
func putPadded(dst []byte, s string, width int) {
	copy(dst[:width], s)
}

func trimPadded(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
