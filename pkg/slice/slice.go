package slice

// Partition splits s into at most n contiguous groups of len(s)/n elements each,
// with the last group absorbing the remainder of the division.
// n is clamped to [1, len(s)], so that no group is ever empty.
// An empty s yields no groups
func Partition[T any](s []T, n int) [][]T {
	if len(s) == 0 {
		return nil
	}
	n = max(n, 1)
	n = min(n, len(s))

	size := len(s) / n
	groups := make([][]T, 0, n)
	for i := range n {
		start := i * size
		end := start + size
		if i == n-1 {
			end = len(s)
		}
		groups = append(groups, s[start:end:end])
	}
	return groups
}
