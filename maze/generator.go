package maze

import (
	"math/rand/v2"
)

// frame 深度优先栈中的一层：当前格子与尚未尝试的候选邻居
type frame struct {
	pos        Pos
	candidates []Pos
}

// Generate 以 (0,0) 为起点，用随机深度优先（回溯）算法生成完美迷宫。
// 偶数尺寸向上取奇数（w|1, h|1）。使用显式栈，迷宫再大也不会耗尽调用栈。
func Generate(width, height int, rng *rand.Rand) (*Maze, error) {
	if err := CheckDimensions(width, height); err != nil {
		return nil, err
	}
	grid, err := NewGrid(width|1, height|1)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	origin := Pos{}
	grid.Set(origin, Passage)
	stack := []frame{{pos: origin, candidates: grid.Neighbors(origin)}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if len(top.candidates) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		// 无论结果如何都移除本次选中的候选，保证每个格子最多尝试 4 次
		i := rng.IntN(len(top.candidates))
		next := top.candidates[i]
		top.candidates = append(top.candidates[:i], top.candidates[i+1:]...)
		if grid.At(next) != Wall {
			continue
		}

		bridge := Pos{X: (top.pos.X + next.X) / 2, Y: (top.pos.Y + next.Y) / 2}
		grid.Set(bridge, Passage)
		grid.Set(next, Passage)
		stack = append(stack, frame{pos: next, candidates: grid.Neighbors(next)})
	}

	return &Maze{grid: grid}, nil
}
