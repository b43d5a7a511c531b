package sequence

// Cursor tracks how much of one Sequence a single run has already applied.
// It is not safe for concurrent use; every run owns its own cursors.
type Cursor[T any] struct {
	seq  Sequence[T]
	last int
}

// NewCursor returns a cursor positioned at offset 0 of seq.
func NewCursor[T any](seq Sequence[T]) *Cursor[T] {
	return &Cursor[T]{seq: seq}
}

// LastOffset is the highest offset applied so far.
func (c *Cursor[T]) LastOffset() int {
	return c.last
}

// CanApply reports whether offset n exposes items that were not applied yet.
func (c *Cursor[T]) CanApply(n int) bool {
	if c.seq.Empty() {
		return false
	}
	return n > c.last
}

// Apply hands the unapplied slice [last, n) to fn and advances the cursor to n.
// Offsets at or below the last applied one are ignored.
func (c *Cursor[T]) Apply(n int, fn func(items []T) error) error {
	if n <= c.last {
		return nil
	}
	items := c.seq.Slice(c.last, n)
	c.last = n
	return fn(items)
}

// Skip advances the cursor to n without applying the items in between.
// Offsets at or below the last applied one are ignored.
func (c *Cursor[T]) Skip(n int) {
	if n > c.last {
		c.last = n
	}
}
