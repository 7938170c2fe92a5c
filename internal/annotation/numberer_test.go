package annotation

import (
	"slices"
	"testing"
)

func TestNumbererAssign(t *testing.T) {
	tests := []struct {
		name     string
		max      int
		original *int
		k        int
		want     []int
		wantMax  int
	}{
		{"inherit then continue", 5, IntPtr(5), 3, []int{5, 6, 7}, 7},
		{"no original", 0, nil, 2, []int{1, 2}, 2},
		{"no original above max", 4, nil, 3, []int{5, 6, 7}, 7},
		{"inherit lower number", 9, IntPtr(2), 2, []int{2, 10}, 10},
		{"single fragment keeps number", 3, IntPtr(3), 1, []int{3}, 3},
		{"zero fragments", 3, nil, 0, nil, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNumberer(tt.max)
			got := n.Assign(tt.original, tt.k)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Assign() = %v, want %v", got, tt.want)
			}
			if n.Max() != tt.wantMax {
				t.Errorf("Max() = %d, want %d", n.Max(), tt.wantMax)
			}
		})
	}
}

func TestNumbererNoCollisionAcrossAnnotations(t *testing.T) {
	n := NewNumberer(0)
	first := n.Assign(nil, 2)
	second := n.Assign(nil, 2)
	seen := map[int]bool{}
	for _, v := range append(first, second...) {
		if seen[v] {
			t.Fatalf("number %d handed out twice: %v %v", v, first, second)
		}
		seen[v] = true
	}
}
