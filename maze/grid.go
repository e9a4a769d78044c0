package maze

import (
	"errors"
	"fmt"
)

// MaxDimension 单边最大格子数（奇数，取整后不会越过）
const MaxDimension = 1001

// ErrInvalidDimension 宽或高不在 1..MaxDimension 内
var ErrInvalidDimension = errors.New("maze dimension out of range")

// CheckDimensions 校验请求的迷宫尺寸
func CheckDimensions(width, height int) error {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: got %dx%d, want 1..%d", ErrInvalidDimension, width, height, MaxDimension)
	}
	return nil
}

// Cell 格子类型，线上编码为整数（0 墙，1 通道）
type Cell int

const (
	Wall Cell = iota
	Passage
)

// Pos 网格坐标
type Pos struct {
	X int
	Y int
}

// Grid 固定尺寸的格子矩阵，按行存储
type Grid struct {
	width  int
	height int
	cells  []Cell
}

// NewGrid 创建全部为墙的网格
func NewGrid(width, height int) (*Grid, error) {
	if err := CheckDimensions(width, height); err != nil {
		return nil, err
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height), // 零值即 Wall
	}, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// InBounds 判断坐标是否在网格内
func (g *Grid) InBounds(p Pos) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// At 返回格子类型，越界视为墙
func (g *Grid) At(p Pos) Cell {
	if !g.InBounds(p) {
		return Wall
	}
	return g.cells[p.Y*g.width+p.X]
}

// Set 设置格子类型，越界时忽略
func (g *Grid) Set(p Pos, c Cell) {
	if g.InBounds(p) {
		g.cells[p.Y*g.width+p.X] = c
	}
}

// Neighbors 返回上、右、下、左四个方向距离为 2 且在界内的坐标
func (g *Grid) Neighbors(p Pos) []Pos {
	candidates := [4]Pos{
		{X: p.X, Y: p.Y - 2},
		{X: p.X + 2, Y: p.Y},
		{X: p.X, Y: p.Y + 2},
		{X: p.X - 2, Y: p.Y},
	}
	out := make([]Pos, 0, len(candidates))
	for _, c := range candidates {
		if g.InBounds(c) {
			out = append(out, c)
		}
	}
	return out
}
