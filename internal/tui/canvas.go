package tui

import (
	"math"
	"strings"

	"github.com/san-kum/fsim/internal/dynamo"
)

const (
	canvasWidth  = 60
	canvasHeight = 14
)

type point struct{ x, y int }

// canvas draws a schematic of the current state in plain runes.
type canvas struct {
	cells [][]rune
	trail []point
}

func newCanvas() *canvas {
	cells := make([][]rune, canvasHeight)
	for i := range cells {
		cells[i] = make([]rune, canvasWidth)
	}
	return &canvas{cells: cells, trail: make([]point, 0, 40)}
}

func (c *canvas) clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = ' '
		}
	}
}

func (c *canvas) resetTrail() { c.trail = c.trail[:0] }

func (c *canvas) set(x, y int, r rune) {
	if x >= 0 && x < canvasWidth && y >= 0 && y < canvasHeight {
		c.cells[y][x] = r
	}
}

func (c *canvas) line(x1, y1, x2, y2 int, r rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		c.set(x1, y1, r)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (c *canvas) draw(model string, x dynamo.State) string {
	c.clear()
	switch model {
	case "pendulum":
		c.drawPendulum(x)
	case "spring_mass":
		c.drawSpring(x)
	default:
		c.drawBars(x)
	}

	var b strings.Builder
	for _, row := range c.cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func (c *canvas) drawPendulum(x dynamo.State) {
	if len(x) < 2 {
		return
	}
	theta := x[0]
	px, py := canvasWidth/2, 1
	length := 10.0
	bx := px + int(length*math.Sin(theta)*2)
	by := py + int(length*math.Cos(theta))

	c.trail = append(c.trail, point{bx, by})
	if len(c.trail) > 40 {
		c.trail = c.trail[1:]
	}

	for i, pt := range c.trail {
		if i < len(c.trail)/2 {
			c.set(pt.x, pt.y, '.')
		} else {
			c.set(pt.x, pt.y, 'o')
		}
	}

	c.set(px, py, '+')
	c.line(px, py, bx, by, '|')
	c.set(bx, by, 'O')
}

// drawSpring shows the first mass of the chain.
func (c *canvas) drawSpring(x dynamo.State) {
	if len(x) < 2 {
		return
	}
	pos := x[0]
	cy := canvasHeight / 2

	for y := cy - 2; y <= cy+2; y++ {
		c.set(2, y, '#')
	}

	mx := 20 + int(pos*8)
	for i := 3; i < mx-2; i += 2 {
		c.set(i, cy, '~')
	}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c.set(mx+dx, cy+dy, '#')
		}
	}
}

func (c *canvas) drawBars(x dynamo.State) {
	cy := canvasHeight / 2
	for i := 2; i < canvasWidth-2; i++ {
		c.set(i, cy, '-')
	}

	if len(x) == 0 {
		return
	}

	bw := (canvasWidth - 10) / len(x)
	if bw < 3 {
		bw = 3
	}

	maxVal := 1.0
	for _, v := range x {
		if math.Abs(v) > maxVal {
			maxVal = math.Abs(v)
		}
	}

	for i, v := range x {
		bx := 5 + i*bw
		bh := int((v / maxVal) * float64(canvasHeight/2-1))
		if bh > 0 {
			for y := cy - 1; y >= cy-bh && y >= 0; y-- {
				c.set(bx, y, '#')
			}
		} else {
			for y := cy + 1; y <= cy-bh && y < canvasHeight; y++ {
				c.set(bx, y, '#')
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
