// Package media validates story uploads and brings oversized images down to
// the display bounds before they reach the blob store.
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"

	// registered for image.Decode
	_ "golang.org/x/image/webp"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
)

const (
	jpegQuality = 85

	// DefaultMaxPixels caps the decoded size of a single image or gif frame
	DefaultMaxPixels = 50_000_000
)

type allowedType struct {
	mediaType models.MediaType
	ext       string
}

var allowed = map[string]allowedType{
	"image/jpeg":      {models.MediaImage, "jpg"},
	"image/png":       {models.MediaImage, "png"},
	"image/gif":       {models.MediaImage, "gif"},
	"image/webp":      {models.MediaImage, "webp"},
	"video/mp4":       {models.MediaVideo, "mp4"},
	"video/quicktime": {models.MediaVideo, "mov"},
}

// Limits bounds what Prepare accepts
type Limits struct {
	MaxFileSizeBytes int64
	MaxWidth         int
	MaxHeight        int
	MaxPixels        int64
}

// Processor validates and normalises uploaded media
type Processor struct {
	limits Limits
}

// NewProcessor creates a new media processor
func NewProcessor(limits Limits) *Processor {
	if limits.MaxPixels <= 0 {
		limits.MaxPixels = DefaultMaxPixels
	}
	return &Processor{limits: limits}
}

// Prepared is an upload ready to be written to the blob store
type Prepared struct {
	Data        []byte
	ContentType string
	MediaType   models.MediaType
	Extension   string
	Width       int
	Height      int
	Resized     bool
}

// Size is the number of bytes that will be stored
func (p *Prepared) Size() int64 {
	return int64(len(p.Data))
}

// Prepare sniffs the content type, enforces the allow-list and size limit, and
// downscales images larger than the configured bounds, frame by frame for gifs.
func (p *Processor) Prepare(data []byte) (*Prepared, error) {
	if len(data) == 0 {
		return nil, apperrors.Validation("media file is empty")
	}
	if int64(len(data)) > p.limits.MaxFileSizeBytes {
		return nil, apperrors.Wrap(apperrors.KindValidation, apperrors.ErrFileTooLarge,
			"file size %d exceeds the %d byte limit", len(data), p.limits.MaxFileSizeBytes)
	}

	mtype := mimetype.Detect(data)
	var contentType string
	var kind allowedType
	for candidate, t := range allowed {
		if mtype.Is(candidate) {
			contentType, kind = candidate, t
			break
		}
	}
	if contentType == "" {
		return nil, apperrors.Wrap(apperrors.KindValidation, apperrors.ErrUnsupportedMedia,
			"unsupported media type %s", mtype.String())
	}

	out := &Prepared{
		Data:        data,
		ContentType: contentType,
		MediaType:   kind.mediaType,
		Extension:   kind.ext,
	}
	if kind.mediaType != models.MediaImage {
		return out, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Validation("failed to read image header: %v", err)
	}
	out.Width, out.Height = cfg.Width, cfg.Height

	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > p.limits.MaxPixels {
		return nil, apperrors.Wrap(apperrors.KindValidation, apperrors.ErrFileTooLarge,
			"image is %dx%d, more than %d pixels", cfg.Width, cfg.Height, p.limits.MaxPixels)
	}
	if !p.exceedsBounds(cfg.Width, cfg.Height) {
		return out, nil
	}

	w, h := FitWithin(cfg.Width, cfg.Height, p.limits.MaxWidth, p.limits.MaxHeight)
	var buf bytes.Buffer
	switch contentType {
	case "image/gif":
		anim, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, apperrors.Validation("failed to decode image: %v", err)
		}
		if err := gif.EncodeAll(&buf, scaleGIF(anim, w, h)); err != nil {
			return nil, fmt.Errorf("failed to encode resized image: %w", err)
		}
	default:
		src, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, apperrors.Validation("failed to decode image: %v", err)
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

		if contentType == "image/png" {
			err = png.Encode(&buf, dst)
		} else {
			err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
			out.ContentType, out.Extension = "image/jpeg", "jpg"
		}
		if err != nil {
			return nil, fmt.Errorf("failed to encode resized image: %w", err)
		}
	}

	out.Data = buf.Bytes()
	out.Width, out.Height = w, h
	out.Resized = true
	return out, nil
}

// scaleGIF renders every frame onto the logical screen, honouring the frame's
// disposal, and scales the composite to w x h. Output frames cover the whole
// screen and are cleared after display.
func scaleGIF(anim *gif.GIF, w, h int) *gif.GIF {
	screen := image.Rect(0, 0, anim.Config.Width, anim.Config.Height)
	canvas := image.NewRGBA(screen)
	target := image.Rect(0, 0, w, h)

	out := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(anim.Image)),
		Delay:     make([]int, 0, len(anim.Image)),
		Disposal:  make([]byte, 0, len(anim.Image)),
		LoopCount: anim.LoopCount,
	}
	for i, frame := range anim.Image {
		var saved *image.RGBA
		disposal := byte(gif.DisposalNone)
		if i < len(anim.Disposal) {
			disposal = anim.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			saved = image.NewRGBA(screen)
			draw.Draw(saved, screen, canvas, image.Point{}, draw.Src)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		scaled := image.NewRGBA(target)
		draw.CatmullRom.Scale(scaled, target, canvas, screen, draw.Src, nil)
		paletted := image.NewPaletted(target, frame.Palette)
		draw.FloydSteinberg.Draw(paletted, target, scaled, image.Point{})

		out.Image = append(out.Image, paletted)
		out.Delay = append(out.Delay, delayAt(anim, i))
		out.Disposal = append(out.Disposal, gif.DisposalBackground)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = saved
		}
	}
	return out
}

func delayAt(anim *gif.GIF, i int) int {
	if i < len(anim.Delay) {
		return anim.Delay[i]
	}
	return 0
}

func (p *Processor) exceedsBounds(w, h int) bool {
	return w > p.limits.MaxWidth || h > p.limits.MaxHeight
}

// FitWithin scales (w, h) down to fit inside (maxW, maxH), keeping the aspect ratio.
// Dimensions already inside the bounds are returned unchanged.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	return max(nw, 1), max(nh, 1)
}
