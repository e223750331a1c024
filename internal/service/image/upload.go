package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	exif "github.com/dsoprea/go-exif/v3"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels предел пикселей для Decode.
const DefaultMaxPixels int64 = 50_000_000

var (
	// ErrEmptyImage — загружен пустой файл.
	ErrEmptyImage = errors.New("empty image payload")
	// ErrTooManyPixels — после распаковки картинка заняла бы слишком много памяти.
	ErrTooManyPixels = errors.New("image has too many pixels")
)

// Upload декодированная картинка пользователя вместе с исходными байтами.
type Upload struct {
	Data     []byte
	Image    image.Image
	Format   string // jpeg|png|gif|webp|bmp
	Width    int
	Height   int
	MimeType string
	// EXIF плоский список тегов (имя -> значение), пустой если метаданных нет.
	EXIF map[string]string
}

// Size возвращает размеры в виде WxH.
func (u *Upload) Size() string {
	return fmt.Sprintf("%dx%d", u.Width, u.Height)
}

// Decode разбирает загруженные байты в картинку с пределом DefaultMaxPixels.
func Decode(data []byte) (*Upload, error) {
	return DecodeLimit(data, DefaultMaxPixels)
}

// DecodeLimit разбирает загруженные байты в картинку. Формат определяется по содержимому, не по имени файла.
// Размеры читаются из заголовка до декодирования: маленький PNG может распаковаться в гигабайты.
func DecodeLimit(data []byte, maxPixels int64) (*Upload, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid image size: %dx%d", cfg.Width, cfg.Height)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d (max %d)", ErrTooManyPixels, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("invalid image size: %dx%d", b.Dx(), b.Dy())
	}

	format = strings.ToLower(format)
	return &Upload{
		Data:     data,
		Image:    img,
		Format:   format,
		Width:    b.Dx(),
		Height:   b.Dy(),
		MimeType: "image/" + format,
		EXIF:     readEXIF(data),
	}, nil
}

// readEXIF достаёт теги EXIF. Ошибки не важны: у большинства PNG/WebP метаданных просто нет.
func readEXIF(data []byte) (tags map[string]string) {
	tags = map[string]string{}
	// go-exif паникует на некоторых битых заголовках
	defer func() {
		if r := recover(); r != nil {
			tags = map[string]string{}
		}
	}()

	raw, err := exif.SearchAndExtractExif(data)
	if err != nil || raw == nil {
		return tags
	}
	entries, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return tags
	}
	for _, e := range entries {
		if e.TagName == "" {
			continue
		}
		tags[e.TagName] = e.Formatted
	}
	return tags
}
