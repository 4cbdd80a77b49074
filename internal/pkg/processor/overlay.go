package processor

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/promostudio/internal/entity"
	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	defaultTextSize   = 48
	defaultLogoScale  = 0.2
	minLogoScale      = 0.05
	maxLogoScale      = 0.8
	plateRadius       = 20
	platePadding      = 15
	defaultTextColor  = "white"
	defaultPlateColor = "red"
)

// ParseElements splits elements_json into individually decodable items.
// Blank input means no elements; anything but a JSON array is rejected.
func ParseElements(raw string) (entity.RawElements, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var elements entity.RawElements
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidElements, err)
	}
	return elements, nil
}

// Renderer draws overlay elements onto a canvas in sequence order.
type Renderer struct {
	fontPath string
	margin   int
}

// NewRenderer returns a renderer. fontPath is the TTF used when an element does
// not name a loadable font; empty means the built-in bitmap face.
func NewRenderer(fontPath string) *Renderer {
	return &Renderer{fontPath: fontPath, margin: DefaultMargin}
}

// Apply draws every element onto canvas in place. A failing element is logged
// and reported but never stops the remaining ones. logos may contain nil
// entries for uploads that could not be decoded.
func (r *Renderer) Apply(canvas *image.RGBA, elements entity.RawElements, logos []image.Image) []entity.ElementFailure {
	dc := gg.NewContextForRGBA(canvas)

	var failures []entity.ElementFailure
	for i, raw := range elements {
		var el entity.OverlayElement
		err := json.Unmarshal(raw, &el)
		if err == nil {
			err = r.safeApply(dc, canvas, el, logos)
		}
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"index": i,
				"type":  el.Type,
			}).Warnf("overlay element skipped: %v", err)
			failures = append(failures, entity.ElementFailure{Index: i, Type: el.Type, Error: err.Error()})
		}
	}
	return failures
}

func (r *Renderer) safeApply(dc *gg.Context, canvas *image.RGBA, el entity.OverlayElement, logos []image.Image) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while drawing: %v", p)
		}
	}()

	switch el.Type {
	case entity.ElementText:
		return r.drawText(dc, el, false)
	case entity.ElementBgText:
		return r.drawText(dc, el, true)
	case entity.ElementLogo:
		return r.pasteLogo(canvas, el, logos)
	default:
		return fmt.Errorf("unknown element type %q", el.Type)
	}
}

func (r *Renderer) drawText(dc *gg.Context, el entity.OverlayElement, plate bool) error {
	fg, err := ParseColor(el.Color, defaultTextColor)
	if err != nil {
		return err
	}
	var bg = fg
	if plate {
		if bg, err = ParseColor(el.BgColor, defaultPlateColor); err != nil {
			return err
		}
	}

	face := r.loadFace(el.Font, el.Size.Float(defaultTextSize))
	defer face.Close()
	dc.SetFontFace(face)

	x, y := Locate(el.Position, dc.Width(), dc.Height(), r.margin)
	fx, fy := float64(x), float64(y)

	if plate {
		w, h := dc.MeasureString(el.Text)
		dc.DrawRoundedRectangle(fx-w/2-platePadding, fy-h/2-platePadding, w+2*platePadding, h+2*platePadding, plateRadius)
		dc.SetColor(bg)
		dc.Fill()
	}

	dc.SetColor(fg)
	dc.DrawStringAnchored(el.Text, fx, fy, 0.5, 0.5)
	return nil
}

// loadFace tries the element font, then the configured font, then the
// built-in face.
func (r *Renderer) loadFace(path string, size float64) font.Face {
	if size <= 0 {
		size = defaultTextSize
	}
	for _, candidate := range []string{path, r.fontPath} {
		if candidate == "" {
			continue
		}
		face, err := gg.LoadFontFace(candidate, size)
		if err == nil {
			return face
		}
		logrus.WithField("font", candidate).Debugf("font not loaded, falling back: %v", err)
	}
	return basicfont.Face7x13
}

func (r *Renderer) pasteLogo(canvas *image.RGBA, el entity.OverlayElement, logos []image.Image) error {
	idx := int(el.LogoIndex.Float(0))
	if idx < 0 || idx >= len(logos) {
		return fmt.Errorf("logo index %d out of range (%d logos)", idx, len(logos))
	}
	logo := logos[idx]
	if logo == nil {
		return errors.New("logo upload could not be decoded")
	}
	lb := logo.Bounds()
	if lb.Empty() {
		return errors.New("logo is empty")
	}

	scale := min(maxLogoScale, max(minLogoScale, el.Scale.Float(defaultLogoScale)))
	cw, ch := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	logoW := max(1, int(float64(cw)*scale))
	logoH := max(1, int(float64(logoW)/float64(lb.Dx())*float64(lb.Dy())))
	resized := imaging.Resize(logo, logoW, logoH, imaging.Lanczos)

	position := el.Position
	if position == "" {
		position = "bottom-right"
	}
	x, y := Locate(position, cw, ch, r.margin)
	lx := int(float64(x) - float64(logoW)/2)
	ly := int(float64(y) - float64(logoH)/2)

	draw.Draw(canvas, image.Rect(lx, ly, lx+logoW, ly+logoH), resized, image.Point{}, draw.Over)
	return nil
}
