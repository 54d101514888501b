package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"fleetdocs/internal/logger"
)

// GoogleVisionBandOCR implements RegionOCR using Google Cloud Vision
// document text detection on cropped page bands.
type GoogleVisionBandOCR struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewGoogleVisionBandOCR creates a band OCR service with credentials from
// the environment. It expects either GOOGLE_APPLICATION_CREDENTIALS path
// or GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVisionBandOCR(ctx context.Context) (RegionOCR, error) {
	const op = "NewGoogleVisionBandOCR"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &GoogleVisionBandOCR{
		client: client,
		log:    logger.WithComponent("band-ocr"),
	}, nil
}

// NewGoogleVisionBandOCRWithClient creates a band OCR service with an
// explicit client (for testing).
func NewGoogleVisionBandOCRWithClient(client *vision.ImageAnnotatorClient) RegionOCR {
	return &GoogleVisionBandOCR{
		client: client,
		log:    logger.WithComponent("band-ocr"),
	}
}

// Available reports whether the Vision client was constructed.
func (g *GoogleVisionBandOCR) Available() bool {
	return g != nil && g.client != nil
}

// ExtractBands extracts text from the top and bottom bands of a page image.
func (g *GoogleVisionBandOCR) ExtractBands(ctx context.Context, pageImage []byte) BandText {
	const op = "ExtractBands"

	if !g.Available() {
		g.log.Warn().Msg("Region OCR unavailable, skipping header/footer extraction")
		return BandText{}
	}

	img, _, err := image.Decode(bytes.NewReader(pageImage))
	if err != nil {
		g.log.Warn().Err(err).Msg("Failed to decode page image, skipping band OCR")
		return BandText{}
	}

	bounds := img.Bounds()
	height := bounds.Dy()
	bandHeight := int(float64(height) * BandRatio)
	if bandHeight < 1 {
		g.log.Warn().Int("height", height).Msg("Page image too small for band extraction")
		return BandText{}
	}

	headerRect := image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Min.Y+bandHeight)
	footerRect := image.Rect(bounds.Min.X, bounds.Max.Y-bandHeight, bounds.Max.X, bounds.Max.Y)

	// Each band is annotated independently so a failure in one does not
	// discard the other.
	headerText, headerErr := g.annotateBand(ctx, img, headerRect)
	footerText, footerErr := g.annotateBand(ctx, img, footerRect)

	if headerErr != nil && footerErr != nil {
		g.log.Warn().
			AnErr("header_err", headerErr).
			AnErr("footer_err", footerErr).
			Msg("Both band annotations failed")
		return BandText{}
	}

	result := BandText{
		Header:  strings.TrimSpace(headerText),
		Footer:  strings.TrimSpace(footerText),
		Success: true,
	}

	g.log.Debug().
		Int("header_len", len(result.Header)).
		Int("footer_len", len(result.Footer)).
		Msg("Band OCR completed")

	return result
}

// annotateBand crops one band out of the page image and runs document
// text detection on it.
func (g *GoogleVisionBandOCR) annotateBand(ctx context.Context, img image.Image, rect image.Rectangle) (string, error) {
	const op = "annotateBand"

	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, rect.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return "", WrapOCRError(op, ErrInvalidImage, "re-encoding cropped band")
	}

	// Prepare the request
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{
					Content: buf.Bytes(),
				},
				Features: []*visionpb.Feature{
					{
						Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION,
					},
				},
			},
		},
	}

	// Call the Vision API
	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return "", WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	imageResp := resp.Responses[0]
	if imageResp.Error != nil {
		return "", WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", imageResp.Error.Message))
	}
	if imageResp.FullTextAnnotation == nil {
		return "", nil // no text in band
	}

	return imageResp.FullTextAnnotation.Text, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionBandOCR) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
