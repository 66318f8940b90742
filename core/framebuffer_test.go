package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFramebufferOutOfRangeWritesSkipped(t *testing.T) {
	fb := NewFramebuffer(4, 3)

	c := RGBA{R: 1, A: 1}
	fb.SetPixel(-1, 0, c, 1)
	fb.SetPixel(0, -1, c, 1)
	fb.SetPixel(4, 0, c, 1)
	fb.SetPixel(0, 3, c, 1)

	for _, v := range fb.Color {
		require.Equal(t, RGBA{}, v)
	}
	for _, d := range fb.Depth {
		require.Zero(t, d)
	}

	fb.SetPixel(3, 2, c, 0.5)
	require.Equal(t, c, fb.ColorAt(3, 2))
	require.EqualValues(t, 0.5, fb.DepthAt(3, 2))
}
