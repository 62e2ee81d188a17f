// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	// register decoders for the upload formats we accept
	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Avatar output dimensions and encoding quality.
const (
	AvatarSize        = 500
	avatarJPEGQuality = 90
)

// AvatarContentType is the MIME type of every processed avatar.
const AvatarContentType = "image/jpeg"

/*
ProcessAvatar normalizes an uploaded image into the canonical avatar format.

The source is center-cropped to a square, scaled to AvatarSize x AvatarSize
with Catmull-Rom resampling, and re-encoded as JPEG. Re-encoding also strips
any metadata the upload carried.

# Parameters
  - payload: Raw upload bytes (JPEG, PNG or GIF).

# Returns
  - []byte: The processed JPEG bytes.
  - error: Decode failures for unsupported or corrupt input.
*/
func ProcessAvatar(payload []byte) ([]byte, error) {
	source, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("media: decode avatar: %w", err)
	}

	square := centerSquare(source.Bounds())
	target := image.NewRGBA(image.Rect(0, 0, AvatarSize, AvatarSize))
	xdraw.CatmullRom.Scale(target, target.Bounds(), source, square, xdraw.Over, nil)

	var buffer bytes.Buffer
	if err := jpeg.Encode(&buffer, target, &jpeg.Options{Quality: avatarJPEGQuality}); err != nil {
		return nil, fmt.Errorf("media: encode avatar: %w", err)
	}

	return buffer.Bytes(), nil
}

// centerSquare returns the largest centered square inside bounds.
func centerSquare(bounds image.Rectangle) image.Rectangle {
	width := bounds.Dx()
	height := bounds.Dy()

	side := width
	if height < side {
		side = height
	}

	offsetX := bounds.Min.X + (width-side)/2
	offsetY := bounds.Min.Y + (height-side)/2

	return image.Rect(offsetX, offsetY, offsetX+side, offsetY+side)
}
