package views

// Refresh tells a view to re-read the store after its snapshot changed
type Refresh struct{}

// OpResult reports the outcome of a store operation started by a view
type OpResult struct {
	Op  string
	Err error
}

// BackToProjects signals to go back to project list
type BackToProjects struct{}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
