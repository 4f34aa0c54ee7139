package solver

import (
	"cmp"
	"math"
)

// Number — числовые типы, для которых определена интерполяция.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// SearchResult — результат поиска.
//
// Comparisons — число сравнений элемента массива с целевым значением
// (одно трёхстороннее сравнение на итерацию).
type SearchResult struct {
	Found       bool `json:"found"`
	Index       int  `json:"index"`
	Comparisons int  `json:"comparisons"`
}

func notFound(comparisons int) SearchResult {
	return SearchResult{Found: false, Index: -1, Comparisons: comparisons}
}

// BinarySearch ищет target в отсортированном по возрастанию массиве.
//
// Выполняет не более ⌊log₂ n⌋+1 сравнений.
func BinarySearch[T cmp.Ordered](sorted []T, target T) SearchResult {
	lo, hi := 0, len(sorted)-1
	comparisons := 0

	for lo <= hi {
		mid := lo + (hi-lo)/2
		comparisons++

		switch c := cmp.Compare(sorted[mid], target); {
		case c == 0:
			return SearchResult{Found: true, Index: mid, Comparisons: comparisons}
		case c < 0:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}

	return notFound(comparisons)
}

// JumpSearch ищет target прыжками по ⌊√n⌋ элементов,
// затем линейно внутри найденного блока.
func JumpSearch[T cmp.Ordered](sorted []T, target T) SearchResult {
	n := len(sorted)
	if n == 0 {
		return notFound(0)
	}

	block := int(math.Floor(math.Sqrt(float64(n))))
	if block < 1 {
		block = 1
	}

	comparisons := 0
	prev, next := 0, block

	// Прыгаем, пока последний элемент блока меньше target
	for {
		last := min(next, n) - 1
		comparisons++
		if cmp.Less(sorted[last], target) {
			prev = next
			next += block
			if prev >= n {
				return notFound(comparisons)
			}
			continue
		}
		break
	}

	for i := prev; i < min(next, n); i++ {
		comparisons++
		switch c := cmp.Compare(sorted[i], target); {
		case c == 0:
			return SearchResult{Found: true, Index: i, Comparisons: comparisons}
		case c > 0:
			return notFound(comparisons)
		}
	}

	return notFound(comparisons)
}

// InterpolationSearch оценивает позицию target линейной интерполяцией
// между значениями на концах диапазона.
//
// Если значения на концах совпадают, диапазон схлопывается до одного сравнения.
func InterpolationSearch[T Number](sorted []T, target T) SearchResult {
	lo, hi := 0, len(sorted)-1
	comparisons := 0

	for lo <= hi && target >= sorted[lo] && target <= sorted[hi] {
		if sorted[hi] == sorted[lo] {
			comparisons++
			if sorted[lo] == target {
				return SearchResult{Found: true, Index: lo, Comparisons: comparisons}
			}
			return notFound(comparisons)
		}

		span := float64(sorted[hi]) - float64(sorted[lo])
		offset := (float64(target) - float64(sorted[lo])) / span
		pos := lo + int(offset*float64(hi-lo))
		pos = max(lo, min(pos, hi))

		comparisons++
		switch {
		case sorted[pos] == target:
			return SearchResult{Found: true, Index: pos, Comparisons: comparisons}
		case sorted[pos] < target:
			lo = pos + 1
		default:
			hi = pos - 1
		}
	}

	return notFound(comparisons)
}
