package solver

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Размеры count-min sketch.
const (
	SketchWidth = 1000
	SketchDepth = 7
)

// CountMinSketch — вероятностный счётчик частот.
//
// Оценка никогда не занижает реальную частоту.
type CountMinSketch struct {
	width int
	depth int
	seeds []uint64
	table [][]uint64
}

// NewCountMinSketch создаёт sketch шириной 1000 и глубиной 7.
//
// У каждой строки свой seed, поэтому хеш-функции строк независимы.
func NewCountMinSketch() *CountMinSketch {
	s := &CountMinSketch{
		width: SketchWidth,
		depth: SketchDepth,
		seeds: make([]uint64, SketchDepth),
		table: make([][]uint64, SketchDepth),
	}
	for i := range s.depth {
		s.seeds[i] = 0x9E3779B97F4A7C15 * uint64(i+1)
		s.table[i] = make([]uint64, s.width)
	}
	return s
}

// BuildCountMinSketch строит sketch по набору элементов.
func BuildCountMinSketch(items []string) *CountMinSketch {
	s := NewCountMinSketch()
	for _, item := range items {
		s.Add(item, 1)
	}
	return s
}

// Add увеличивает счётчик item на count.
func (s *CountMinSketch) Add(item string, count uint64) {
	for row := range s.depth {
		s.table[row][s.index(row, item)] += count
	}
}

// Estimate возвращает оценку частоты item (минимум по строкам).
func (s *CountMinSketch) Estimate(item string) uint64 {
	var est uint64
	for row := range s.depth {
		v := s.table[row][s.index(row, item)]
		if row == 0 || v < est {
			est = v
		}
	}
	return est
}

func (s *CountMinSketch) index(row int, item string) int {
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], s.seeds[row])

	d := xxhash.New()
	_, _ = d.Write(seed[:])
	_, _ = d.WriteString(item)

	return int(d.Sum64() % uint64(s.width))
}
