package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/topicless/hub/internal/models"
)

var (
	fontOnce     sync.Once
	parsedGoFont *opentype.Font
	parsedGoErr  error
)

// RenderPollPNG renders a 1200x630 share card for a poll: the question
// up top, one horizontal result bar per option.
func RenderPollPNG(poll models.Poll) ([]byte, error) {
	const width = 1200
	const height = 630
	const padding = 48
	const barHeight = 56
	const barGap = 24
	const headerBottom = 150

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{0xFA, 0xF9, 0xF7, 0xFF}}, image.Point{}, draw.Src)

	headerFace, err := newFontFace(40)
	if err != nil {
		return nil, err
	}
	defer func() { _ = headerFace.Close() }()

	barFace, err := newFontFace(22)
	if err != nil {
		return nil, err
	}
	defer func() { _ = barFace.Close() }()

	footerFace, err := newFontFace(18)
	if err != nil {
		return nil, err
	}
	defer func() { _ = footerFace.Close() }()

	headerRect := image.Rect(padding, padding, width-padding, headerBottom)
	headerLines := wrapText(headerFace, poll.Question, headerRect.Dx())
	headerLines = clampLines(headerFace, headerLines, 2, headerRect.Dx())
	drawWrappedText(img, headerFace, headerRect, headerLines, color.RGBA{0x2D, 0x2D, 0x2D, 0xFF})

	total := poll.VoteCount
	y := headerBottom + barGap
	for _, opt := range poll.Options {
		if y+barHeight > height-padding {
			break
		}

		share := 0.0
		if total > 0 {
			share = float64(opt.VoteCount) / float64(total)
		}

		track := image.Rect(padding, y, width-padding, y+barHeight)
		draw.Draw(img, track, &image.Uniform{C: color.RGBA{0xEC, 0xEA, 0xE4, 0xFF}}, image.Point{}, draw.Src)

		fillWidth := int(float64(track.Dx()) * share)
		if fillWidth > 0 {
			fill := image.Rect(track.Min.X, track.Min.Y, track.Min.X+fillWidth, track.Max.Y)
			draw.Draw(img, fill, &image.Uniform{C: color.RGBA{0xB9, 0xE2, 0xCB, 0xFF}}, image.Point{}, draw.Src)
		}
		drawBorder(img, track, 2, color.RGBA{0x3A, 0x3A, 0x3A, 0xFF})

		label := fmt.Sprintf("%s  -  %.0f%%", opt.Text, share*100)
		labelLines := clampLines(barFace, []string{label}, 1, track.Dx()-24)
		textY := track.Min.Y + (barHeight+barFace.Metrics().Ascent.Ceil()-barFace.Metrics().Descent.Ceil())/2
		drawText(img, barFace, track.Min.X+12, textY, labelLines[0], color.RGBA{0x2D, 0x2D, 0x2D, 0xFF})

		y += barHeight + barGap
	}

	footer := fmt.Sprintf("%d votes - topicless hub", total)
	drawText(img, footerFace, padding, height-padding/2, footer, color.RGBA{0x6B, 0x6B, 0x6B, 0xFF})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func newFontFace(size float64) (*opentype.Face, error) {
	fontOnce.Do(func() {
		parsedGoFont, parsedGoErr = opentype.Parse(goregular.TTF)
	})
	if parsedGoErr != nil {
		return nil, fmt.Errorf("parse font: %w", parsedGoErr)
	}
	face, err := opentype.NewFace(parsedGoFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("load font face: %w", err)
	}
	otFace, ok := face.(*opentype.Face)
	if !ok {
		return nil, fmt.Errorf("load font face: unexpected type")
	}
	return otFace, nil
}

func drawText(img draw.Image, face font.Face, x, y int, text string, clr color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(clr),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func drawBorder(img draw.Image, rect image.Rectangle, width int, clr color.Color) {
	border := image.NewUniform(clr)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+width), border, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Max.Y-width, rect.Max.X, rect.Max.Y), border, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+width, rect.Max.Y), border, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(rect.Max.X-width, rect.Min.Y, rect.Max.X, rect.Max.Y), border, image.Point{}, draw.Src)
}

func wrapText(face font.Face, text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	d := &font.Drawer{Face: face}
	lines := []string{}
	current := words[0]

	for _, word := range words[1:] {
		test := current + " " + word
		if d.MeasureString(test).Ceil() <= maxWidth {
			current = test
			continue
		}
		lines = append(lines, current)
		current = word
	}
	lines = append(lines, current)
	return lines
}

func clampLines(face font.Face, lines []string, maxLines int, maxWidth int) []string {
	if len(lines) == 0 {
		return []string{""}
	}
	d := &font.Drawer{Face: face}
	if len(lines) <= maxLines && d.MeasureString(lines[len(lines)-1]).Ceil() <= maxWidth {
		return lines
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	last := lines[len(lines)-1]
	ellipsis := "..."

	runes := []rune(last)
	for d.MeasureString(string(runes)+ellipsis).Ceil() > maxWidth && len(runes) > 0 {
		runes = runes[:len(runes)-1]
	}
	if len(runes) < len([]rune(last)) {
		lines[len(lines)-1] = strings.TrimSpace(string(runes)) + ellipsis
	}
	return lines
}

func drawWrappedText(img draw.Image, face font.Face, rect image.Rectangle, lines []string, clr color.Color) {
	if len(lines) == 0 {
		return
	}
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	startY := rect.Min.Y + metrics.Ascent.Ceil()

	for i, line := range lines {
		drawText(img, face, rect.Min.X, startY+i*lineHeight, line, clr)
	}
}
