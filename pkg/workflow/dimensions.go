package workflow

// Block dimension defaults in canvas pixels.
const (
	DefaultBlockWidth = 350.0
	WideBlockWidth    = 480.0
	MinBlockHeight    = 100.0

	DefaultContainerWidth  = 500.0
	DefaultContainerHeight = 300.0
)

// Dimensions returns the stored size of a block.
//
// Containers use their explicit Data size, falling back to 500×300.
// Ordinary blocks are 350 wide (480 when wide) and at least 100 tall; a
// measured Data.Height above the minimum wins.
func Dimensions(b Block) Size {
	if b.IsContainer() {
		s := Size{Width: b.Data.Width, Height: b.Data.Height}
		if s.Width <= 0 {
			s.Width = DefaultContainerWidth
		}
		if s.Height <= 0 {
			s.Height = DefaultContainerHeight
		}
		return s
	}

	w := DefaultBlockWidth
	if b.IsWide {
		w = WideBlockWidth
	}
	h := b.Data.Height
	if h < MinBlockHeight {
		h = MinBlockHeight
	}
	return Size{Width: w, Height: h}
}
