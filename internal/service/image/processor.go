package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

const (
	defaultMaxWidth     = 1280
	defaultMaxSizeBytes = 1 * 1024 * 1024
	defaultQuality      = 80
	// minSide ниже этой длинной стороны картинку больше не уменьшаем, дальше снижаем качество.
	minSide     = 320
	minQuality  = 20
	qualityStep = 10
)

// Prepared картинка, готовая к отправке в модель.
type Prepared struct {
	DataURL   string
	Width     int
	Height    int
	SizeBytes int
	MimeType  string
}

// Processor уменьшает картинку и перекодирует её в JPEG, чтобы запрос к модели был компактным.
type Processor struct {
	maxWidth    int
	maxSizeByte int
	quality     int
}

// NewProcessor создаёт процессор. Нулевые и отрицательные значения заменяются дефолтами.
func NewProcessor(maxWidth, maxSizeBytes, quality int) *Processor {
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	if maxSizeBytes <= 0 {
		maxSizeBytes = defaultMaxSizeBytes
	}
	if quality <= 0 {
		quality = defaultQuality
	}
	return &Processor{
		maxWidth:    maxWidth,
		maxSizeByte: maxSizeBytes,
		quality:     min(quality, 100),
	}
}

// Prepare ужимает картинку до maxWidth и maxSizeByte и возвращает data URL.
// Сначала уменьшает размеры на 10% за шаг, пока длинная сторона больше minSide, затем снижает качество JPEG.
func (p *Processor) Prepare(u *Upload) (Prepared, error) {
	if u == nil || u.Image == nil {
		return Prepared{}, errors.New("nil image")
	}

	origWidth := u.Width
	origHeight := u.Height
	if origWidth == 0 || origHeight == 0 {
		return Prepared{}, fmt.Errorf("invalid image size: %dx%d", origWidth, origHeight)
	}

	resizedWidth := min(origWidth, p.maxWidth)
	resizedHeight := max(1, origHeight*resizedWidth/origWidth)

	var (
		encoded []byte
		err     error
		quality = p.quality
	)
	for {
		resized := scale(u.Image, resizedWidth, resizedHeight)
		encoded, err = encodeJPEG(resized, quality)
		if err != nil {
			return Prepared{}, err
		}

		if len(encoded) <= p.maxSizeByte {
			break
		}

		// узкую длинную картинку (чек, скан) уменьшаем по длинной стороне, а не по ширине
		nextWidth := max(1, int(float64(resizedWidth)*0.9))
		if max(resizedWidth, resizedHeight) > minSide && nextWidth < resizedWidth {
			resizedWidth = nextWidth
			resizedHeight = max(1, origHeight*resizedWidth/origWidth)
			continue
		}

		if quality > minQuality {
			quality = max(minQuality, quality-qualityStep)
			continue
		}

		return Prepared{}, fmt.Errorf("image exceeds max size %d bytes even after downscale", p.maxSizeByte)
	}

	return Prepared{
		DataURL:   "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(encoded),
		Width:     resizedWidth,
		Height:    resizedHeight,
		SizeBytes: len(encoded),
		MimeType:  "image/jpeg",
	}, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// scale рисует src в новый RGBA на белом фоне: у JPEG нет альфа-канала.
func scale(src image.Image, width int, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
