package generator

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// EncodedImage is the canonical re-encoded form of one source file,
// plus the dimensions the upstream header carries.
type EncodedImage struct {
	PNG      []byte
	Width    int
	Height   int
	Channels int
}

// EncodePNG decodes path using the codec its extension implies and
// re-encodes it as canonical PNG. Channels is
// reported as 3 for any color model and 1 for grayscale, matching the
// original's OpenCV IMREAD_COLOR convention of always decoding to a
// 3-channel BGR/RGB frame — except sources that decode to a grayscale
// image (*image.Gray or *image.Gray16, e.g. a grayscale PNG, TIFF or
// JPEG), which are passed through as-is rather than upsampled.
func EncodePNG(path string) (EncodedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return EncodedImage{}, err
	}
	defer f.Close()

	img, err := decodeByExtension(f, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return EncodedImage{}, fmt.Errorf("decode %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return EncodedImage{}, fmt.Errorf("encode %s as png: %w", path, err)
	}

	bounds := img.Bounds()
	return EncodedImage{
		PNG:      buf.Bytes(),
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Channels: channelsOf(img),
	}, nil
}

func decodeByExtension(f *os.File, ext string) (image.Image, error) {
	switch ext {
	case ".png":
		return png.Decode(f)
	case ".jpg", ".jpeg":
		return jpeg.Decode(f)
	case ".bmp":
		return bmp.Decode(f)
	case ".tif", ".tiff":
		return tiff.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported extension %q", ext)
	}
}

func channelsOf(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	default:
		return 3
	}
}
