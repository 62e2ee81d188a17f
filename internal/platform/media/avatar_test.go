// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodePNG renders a solid-color test image of the given dimensions.
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 40, B: 200, A: 255})
		}
	}

	var buffer bytes.Buffer
	require.NoError(t, png.Encode(&buffer, img))
	return buffer.Bytes()
}

func TestProcessAvatar_ResizesToCanonicalSize(t *testing.T) {
	testCases := []struct {
		name   string
		width  int
		height int
	}{
		{name: "landscape", width: 800, height: 600},
		{name: "portrait", width: 300, height: 900},
		{name: "square", width: 500, height: 500},
		{name: "tiny upscale", width: 64, height: 64},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			processed, err := ProcessAvatar(encodePNG(t, testCase.width, testCase.height))
			require.NoError(t, err)

			decoded, format, err := image.Decode(bytes.NewReader(processed))
			require.NoError(t, err)

			assert.Equal(t, "jpeg", format)
			assert.Equal(t, AvatarSize, decoded.Bounds().Dx())
			assert.Equal(t, AvatarSize, decoded.Bounds().Dy())
		})
	}
}

func TestProcessAvatar_RejectsGarbage(t *testing.T) {
	_, err := ProcessAvatar([]byte("not an image at all"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode avatar")
}
