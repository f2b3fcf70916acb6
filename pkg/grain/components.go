package grain

// Component describes one plane (or packed unit) of a Video or
// CodedVideo grain's payload.
type Component struct {
	Width  uint32
	Height uint32
	Stride uint32
	Length uint32
}

// Components is an ordered sequence of Component; offsets are never
// stored, only derived, so mutating a Length is automatically
// reflected in every later Offset and in TotalLength.
type Components []Component

// Offset returns the byte offset of component i: the sum of the
// lengths of every component before it.
func (cs Components) Offset(i int) uint32 {
	var off uint32
	for _, c := range cs[:i] {
		off += c.Length
	}
	return off
}

// Offsets returns the offset of every component, in order.
func (cs Components) Offsets() []uint32 {
	offsets := make([]uint32, len(cs))
	var off uint32
	for i, c := range cs {
		offsets[i] = off
		off += c.Length
	}
	return offsets
}

// TotalLength returns the sum of every component's Length: the
// expected total payload length of the grain that owns this sequence.
func (cs Components) TotalLength() uint32 {
	var total uint32
	for _, c := range cs {
		total += c.Length
	}
	return total
}
