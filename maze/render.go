package maze

import (
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

const defaultCellSize = 16

// Image 绘制迷宫，每个格子 cellSize 像素；墙为深色，通道为浅色
func (m *Maze) Image(cellSize int) image.Image {
	if cellSize <= 0 {
		cellSize = defaultCellSize
	}
	dc := gg.NewContext(m.Width()*cellSize, m.Height()*cellSize)
	dc.SetRGB(0.12, 0.12, 0.14)
	dc.Clear()

	dc.SetRGB(0.93, 0.92, 0.88)
	size := float64(cellSize)
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.At(Pos{X: x, Y: y}) == Passage {
				dc.DrawRectangle(float64(x)*size, float64(y)*size, size, size)
			}
		}
	}
	dc.Fill()
	return dc.Image()
}

// WritePNG 编码为 PNG；maxSide > 0 时等比缩小到 maxSide×maxSide 以内
func (m *Maze) WritePNG(w io.Writer, maxSide int) error {
	img := m.Image(defaultCellSize)
	if maxSide > 0 {
		img = imaging.Fit(img, maxSide, maxSide, imaging.NearestNeighbor)
	}
	return imaging.Encode(w, img, imaging.PNG)
}
