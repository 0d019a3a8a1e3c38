package controller

// EasedLevel maps a slider drag position onto a volume level. Up to the
// pixel mark of the current level the mapping is linear. Past the mark
// the excess drag only counts half, which slows the ramp near the top.
// Dragging to the full extent or beyond snaps to maximum.
func EasedLevel(pos, height, current float64) float64 {
	if height <= 0 {
		return clampLevel(current)
	}
	if pos >= height {
		return 1
	}
	if pos <= 0 {
		return 0
	}

	mark := clampLevel(current) * height
	if pos <= mark {
		return clampLevel(pos / height)
	}

	eased := mark + (pos-mark)/2
	return clampLevel(eased / height)
}

func clampLevel(level float64) float64 {
	if level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}
