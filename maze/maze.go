package maze

import "strings"

const (
	wallChar    = "◼"
	passageChar = "◽"
)

// Maze 生成完成后只读；重新生成时整体替换，旧对象不会被修改
type Maze struct {
	grid *Grid
}

func (m *Maze) Width() int  { return m.grid.width }
func (m *Maze) Height() int { return m.grid.height }

// At 越界视为墙
func (m *Maze) At(p Pos) Cell { return m.grid.At(p) }

// Export 导出 [行][列] 矩阵副本，用于发送给客户端
func (m *Maze) Export() [][]Cell {
	rows := make([][]Cell, m.grid.height)
	for y := range rows {
		row := make([]Cell, m.grid.width)
		copy(row, m.grid.cells[y*m.grid.width:(y+1)*m.grid.width])
		rows[y] = row
	}
	return rows
}

// PassageCount 通道格子数量
func (m *Maze) PassageCount() int {
	n := 0
	for _, c := range m.grid.cells {
		if c == Passage {
			n++
		}
	}
	return n
}

// String 用方块字符渲染，控制台 MAZE 命令使用
func (m *Maze) String() string {
	var b strings.Builder
	for y := 0; y < m.grid.height; y++ {
		for x := 0; x < m.grid.width; x++ {
			if m.grid.At(Pos{X: x, Y: y}) == Wall {
				b.WriteString(wallChar)
			} else {
				b.WriteString(passageChar)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
