package network

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkWireLayout(t *testing.T) {
	var c Chunk
	c.X, c.Y, c.Z = 1, -2, 3
	c.Cells[0] = 9
	c.Cells[ChunkVolume-1] = 7

	b := c.Encode()
	require.Len(t, b, 1+12+ChunkVolume) // id + 3 ints + 4096 cells
	require.Equal(t, SrvChunk, b[0])

	pkt, err := DecodeServer(b)
	require.NoError(t, err)
	require.Equal(t, c, pkt)
}

func TestMonoChunkWireLayout(t *testing.T) {
	m := MonoChunk{X: -1, Y: 0, Z: 7, BlockType: -3}
	b := m.Encode()
	require.Len(t, b, 14) // id + 3 ints + 1 byte

	pkt, err := DecodeServer(b)
	require.NoError(t, err)
	require.Equal(t, m, pkt)
}

func TestEntityPacketsRoundTrip(t *testing.T) {
	packets := []Packet{
		Identification{EntityID: 77},
		AddEntity{EntityID: 3, X: 1.5, Y: -2, Z: 8, Yaw: 60, Pitch: 12.5},
		RemoveEntity{EntityID: 3},
		UpdateEntity{EntityID: 3, X: 4, Y: 5, Z: 6, Yaw: -90, Pitch: 45},
		Chat{Message: "hello world"},
		EntityMetadata{EntityID: 9, Name: "renamed"},
	}
	for _, p := range packets {
		got, err := DecodeServer(p.Encode())
		require.NoError(t, err)
		require.Equal(t, p, got)
	}
}

func TestClientPacketsRoundTrip(t *testing.T) {
	packets := []Packet{
		ClientUpdateEntity{EntityID: 12, X: 31, Y: 16, Z: 32, Yaw: 60, Pitch: 12.5},
		UpdateBlock{BlockType: 4, X: -5, Y: 0, Z: 100},
		BlockBulkEdit{Blocks: []UpdateBlock{
			{BlockType: 1, X: 0, Y: 1, Z: 2},
			{BlockType: 2, X: 3, Y: 4, Z: 5},
		}},
		ClientChat{Message: "placing blocks"},
		ClientMetadata{RenderDistance: 8, Name: "voxelray"},
	}
	for _, p := range packets {
		got, err := DecodeClient(p.Encode())
		require.NoError(t, err)
		require.Equal(t, p, got)
	}
}

// All three entity pose packets share the same 25-byte frame: packet
// id, entity id, five floats. Peers depend on these exact widths.
func TestEntityFrameWidths(t *testing.T) {
	require.Len(t, AddEntity{EntityID: 1}.Encode(), 25)
	require.Len(t, UpdateEntity{EntityID: 1}.Encode(), 25)
	require.Len(t, ClientUpdateEntity{EntityID: 1}.Encode(), 25)
}

func TestEntityMetadataNameTruncated(t *testing.T) {
	b := EntityMetadata{EntityID: 2, Name: "n"}.Encode()
	require.Len(t, b, 1+4+64)

	// Names longer than the field truncate instead of overflowing
	long := EntityMetadata{EntityID: 2, Name: string(make([]byte, 100))}
	require.Len(t, long.Encode(), 1+4+64)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := DecodeServer(nil)
	require.Error(t, err)

	_, err = DecodeServer([]byte{SrvChunk, 1, 2, 3})
	require.Error(t, err)

	_, err = DecodeServer([]byte{0xFF})
	require.Error(t, err)

	_, err = DecodeClient([]byte{CliBlockBulkEdit, 0, 0})
	require.Error(t, err)

	// Bulk edit count not matching the payload
	bad := BlockBulkEdit{Blocks: []UpdateBlock{{BlockType: 1}}}.Encode()
	_, err = DecodeClient(bad[:len(bad)-1])
	require.Error(t, err)
}

func TestChatPadding(t *testing.T) {
	b := Chat{Message: "short"}.Encode()
	require.Len(t, b, 1+4096)

	got, err := DecodeServer(b)
	require.NoError(t, err)
	require.Equal(t, "short", got.(Chat).Message)
}
