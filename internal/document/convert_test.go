package document

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func TestPrepareImage_PNGPassesThrough(t *testing.T) {
	data := pngBytes(t, 4, 4)
	out, mimeType, converted, err := PrepareImage(data, "image/png")
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.Equal(t, "image/png", mimeType)
	assert.False(t, converted)
}

func TestPrepareImage_ReencodesWhenTypeDiffers(t *testing.T) {
	// labeled JPEG but actually PNG: stdlib sniffs the real format
	data := pngBytes(t, 4, 4)
	out, mimeType, converted, err := PrepareImage(data, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.True(t, converted)

	w, h := ProbeDimensions(out)
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)
}

func TestPrepareImage_GarbageFails(t *testing.T) {
	_, _, _, err := PrepareImage([]byte("definitely not an image"), "image/jpeg")
	assert.Error(t, err)
}

func TestIsHEICFormat(t *testing.T) {
	heicHeader := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
	heicHeader = append(heicHeader, make([]byte, 8)...)
	assert.True(t, isHEICFormat(heicHeader))

	mif1 := append([]byte{0, 0, 0, 24}, []byte("ftypmif1")...)
	mif1 = append(mif1, make([]byte, 8)...)
	assert.True(t, isHEICFormat(mif1))

	assert.False(t, isHEICFormat(pngBytes(t, 1, 1)))
	assert.False(t, isHEICFormat([]byte("tiny")))
}

func TestProbeDimensions(t *testing.T) {
	w, h := ProbeDimensions(pngBytes(t, 7, 3))
	assert.Equal(t, 7, w)
	assert.Equal(t, 3, h)

	w, h = ProbeDimensions([]byte("junk"))
	assert.Zero(t, w)
	assert.Zero(t, h)
}
