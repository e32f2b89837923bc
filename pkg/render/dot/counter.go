package dot

// Counter hands out sequential names for subgraphs and satellite nodes.
// One Counter is created per render and threaded through the writer, so
// repeated renders of the same input produce byte-identical output and
// independent renders never share state.
type Counter struct {
	n int
}

// NewCounter creates a counter starting at zero.
func NewCounter() *Counter {
	return &Counter{}
}

// Next returns the next sequence number, starting at 1.
func (c *Counter) Next() int {
	c.n++
	return c.n
}
