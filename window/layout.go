package window

// Layout groups shard ids, given oldest first, into the windows of w. The
// newest shards fill the first windows; shards older than the last complete
// window form one final group. Each group is returned oldest first.
func Layout(w Windowing, shards []int64) [][]int64 {
	n := int64(len(shards))
	groups := make([][]int64, 0)
	end := n
	for _, size := range w.GetWindowsCoveringUpto(n) {
		groups = append(groups, shards[end-size:end])
		end -= size
	}
	if end > 0 {
		groups = append(groups, shards[:end])
	}
	return groups
}
