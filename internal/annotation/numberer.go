package annotation

// Numberer hands out fragment numbers for one class during one commit pass.
//
// It is seeded with the largest number already present in the class and never
// returns a number at or below that seed unless it is inheriting one, so
// fragments from different source annotations in the same pass never collide.
type Numberer struct {
	max int
}

// NewNumberer starts a numberer above max. Pass Store.MaxNumber(class).
func NewNumberer(max int) *Numberer {
	return &Numberer{max: max}
}

// Max returns the largest number handed out or seen so far.
func (n *Numberer) Max() int { return n.max }

// Assign returns numbers for k fragments split from one annotation, in
// extractor order.
//
// The first fragment inherits original when it is non-nil, keeping the
// primary fragment's identity through the split; otherwise it takes the next
// free number. Every later fragment takes the next free number.
//
// With max 5 and original 5, a 3-way split yields 5, 6, 7.
func (n *Numberer) Assign(original *int, k int) []int {
	if k <= 0 {
		return nil
	}
	out := make([]int, k)
	if original != nil {
		out[0] = *original
		n.max = max(n.max, *original)
	} else {
		n.max++
		out[0] = n.max
	}
	for i := 1; i < k; i++ {
		n.max++
		out[i] = n.max
	}
	return out
}
