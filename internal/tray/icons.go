package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const iconSize = 64

var (
	colorIdle       = color.RGBA{128, 128, 128, 255}
	colorRecording  = color.RGBA{220, 50, 50, 255}
	colorProcessing = color.RGBA{230, 160, 50, 255}
)

var icons = sync.OnceValue(func() map[State][]byte {
	return map[State][]byte{
		StateIdle:       drawIcon(colorIdle),
		StateRecording:  drawIcon(colorRecording),
		StateProcessing: drawIcon(colorProcessing),
	}
})

// drawIcon рисует упрощённый микрофон: круг и ножку. Возвращает PNG.
func drawIcon(c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))

	center := iconSize / 2
	const radius = 20

	for y := range iconSize {
		for x := range iconSize {
			dx, dy := x-center, y-center
			if dx*dx+dy*dy <= radius*radius {
				img.Set(x, y, c)
			}
		}
	}

	for y := center + radius; y < min(center+radius+10, iconSize); y++ {
		for x := center - 3; x <= center+3; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
