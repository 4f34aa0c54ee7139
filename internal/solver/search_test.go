package solver

import (
	"math"
	"testing"
)

func TestBinarySearch_ComparisonBound(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 8, 100, 1000, 1025} {
		arr := make([]int, n)
		for i := range arr {
			arr[i] = i * 2
		}
		bound := int(math.Ceil(math.Log2(float64(n)))) + 1

		for i := range arr {
			res := BinarySearch(arr, arr[i])
			if !res.Found || res.Index != i {
				t.Fatalf("n=%d: expected index %d, got %+v", n, i, res)
			}
			if res.Comparisons > bound {
				t.Errorf("n=%d: %d comparisons exceed bound %d", n, res.Comparisons, bound)
			}
		}
	}
}

func TestBinarySearch_Missing(t *testing.T) {
	res := BinarySearch([]int{1, 3, 5}, 4)
	if res.Found || res.Index != -1 {
		t.Errorf("expected not found, got %+v", res)
	}

	res = BinarySearch([]int{}, 4)
	if res.Found || res.Comparisons != 0 {
		t.Errorf("empty array: expected 0 comparisons, got %+v", res)
	}
}

func TestJumpSearch(t *testing.T) {
	arr := []float64{1, 4, 9, 16, 25, 36, 49, 64, 81, 100}

	for i, v := range arr {
		res := JumpSearch(arr, v)
		if !res.Found || res.Index != i {
			t.Errorf("target %v: expected index %d, got %+v", v, i, res)
		}
	}

	// Значения между элементами, меньше минимума и больше максимума
	for _, v := range []float64{0, 5, 99, 101} {
		if res := JumpSearch(arr, v); res.Found {
			t.Errorf("target %v: expected not found, got %+v", v, res)
		}
	}
}

func TestInterpolationSearch(t *testing.T) {
	arr := []int{10, 20, 30, 40, 50, 60, 70, 80, 90}

	for i, v := range arr {
		res := InterpolationSearch(arr, v)
		if !res.Found || res.Index != i {
			t.Errorf("target %d: expected index %d, got %+v", v, i, res)
		}
	}

	if res := InterpolationSearch(arr, 35); res.Found {
		t.Errorf("expected not found, got %+v", res)
	}
}

func TestInterpolationSearch_CollapsedBounds(t *testing.T) {
	arr := []int{7, 7, 7, 7}

	res := InterpolationSearch(arr, 7)
	if !res.Found || res.Comparisons != 1 {
		t.Errorf("expected found with 1 comparison, got %+v", res)
	}

	if res := InterpolationSearch(arr, 8); res.Found {
		t.Errorf("expected not found, got %+v", res)
	}
}
