package layout

import "github.com/matzehuels/canvaslayout/pkg/workflow"

// DetectOrientation infers the flow direction from the blocks' stored
// handle flags by majority vote. Blocks without a flag abstain; a tie or no
// votes at all yields horizontal.
func DetectOrientation(blocks []workflow.Block) Orientation {
	var horizontal, vertical int
	for _, b := range blocks {
		if b.HorizontalHandles == nil {
			continue
		}
		if *b.HorizontalHandles {
			horizontal++
		} else {
			vertical++
		}
	}
	if vertical > horizontal {
		return OrientationVertical
	}
	return OrientationHorizontal
}

func resolveOrientation(o Orientation, top []workflow.Block) Orientation {
	switch o {
	case OrientationHorizontal, OrientationVertical:
		return o
	default:
		return DetectOrientation(top)
	}
}
