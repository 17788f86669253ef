package processor

import (
	"fmt"

	"github.com/h2non/bimg"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
	"github.com/dontpanicw/ClinicMedia/internal/port"
	"github.com/dontpanicw/ClinicMedia/pkg/log"
)

var _ port.Transcoder = (*ImageProcessor)(nil)

var supportedInputs = map[string]bool{
	"jpeg": true,
	"png":  true,
	"webp": true,
	"gif":  true,
}

// ImageProcessor resizes with a cover fit and re-encodes everything to JPEG.
// PNG transparency is flattened onto white and only the first GIF frame is kept.
type ImageProcessor struct{}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{}
}

func (p *ImageProcessor) Transcode(data []byte, cfg domain.PresetConfig) (domain.TranscodeResult, error) {
	img := bimg.NewImage(data)

	format := img.Type()
	if !supportedInputs[format] {
		return domain.TranscodeResult{}, fmt.Errorf("%w: unrecognized format %q", domain.ErrDecode, format)
	}

	size, err := img.Size()
	if err != nil {
		return domain.TranscodeResult{}, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	if size.Width == 0 || size.Height == 0 {
		return domain.TranscodeResult{}, fmt.Errorf("%w: image has zero dimensions", domain.ErrDecode)
	}

	options := bimg.Options{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Crop:          true,
		Gravity:       bimg.GravityCentre,
		Enlarge:       true,
		Quality:       cfg.Quality,
		Type:          bimg.JPEG,
		Background:    bimg.Color{R: 255, G: 255, B: 255},
		StripMetadata: true,
	}

	out, err := img.Process(options)
	if err != nil {
		return domain.TranscodeResult{}, fmt.Errorf("%w: %v", domain.ErrTranscode, err)
	}

	outSize, err := bimg.NewImage(out).Size()
	if err != nil {
		return domain.TranscodeResult{}, fmt.Errorf("%w: reading output size: %v", domain.ErrTranscode, err)
	}

	log.WithFields(log.Fields{
		"source":  fmt.Sprintf("%s %dx%d", format, size.Width, size.Height),
		"output":  fmt.Sprintf("%dx%d", outSize.Width, outSize.Height),
		"quality": cfg.Quality,
	}).Debug("image transcoded")

	return domain.TranscodeResult{
		Data:       out,
		Dimensions: domain.Dimensions{Width: outSize.Width, Height: outSize.Height},
		MimeType:   domain.OutputMimeType,
	}, nil
}
