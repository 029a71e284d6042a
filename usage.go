package coursechat

// Usage reports token consumption for a single model call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Add returns the element-wise sum of two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}
