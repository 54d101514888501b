package ocr_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/ocr"
)

// pngImage encodes a blank PNG of the given dimensions.
func pngImage(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func TestExtractBandsWithoutClient(t *testing.T) {
	svc := ocr.NewGoogleVisionBandOCRWithClient(nil)

	assert.False(t, svc.Available())

	bands := svc.ExtractBands(context.Background(), pngImage(t, 100, 100))
	assert.False(t, bands.Success)
	assert.True(t, bands.Empty())
}

func TestExtractBandsInvalidImage(t *testing.T) {
	svc := ocr.NewGoogleVisionBandOCRWithClient(&vision.ImageAnnotatorClient{})
	require.True(t, svc.Available())

	bands := svc.ExtractBands(context.Background(), []byte("not an image"))
	assert.False(t, bands.Success)
	assert.True(t, bands.Empty())
}

func TestExtractBandsImageTooSmall(t *testing.T) {
	svc := ocr.NewGoogleVisionBandOCRWithClient(&vision.ImageAnnotatorClient{})

	// A 4-pixel-high page leaves less than one pixel per band.
	bands := svc.ExtractBands(context.Background(), pngImage(t, 100, 4))
	assert.False(t, bands.Success)
	assert.True(t, bands.Empty())
}

func TestBandTextEmpty(t *testing.T) {
	assert.True(t, ocr.BandText{}.Empty())
	assert.False(t, ocr.BandText{Header: "MV Northern Star"}.Empty())
	assert.False(t, ocr.BandText{Footer: "CG (02-19)"}.Empty())
}
