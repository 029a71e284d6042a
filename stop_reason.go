package coursechat

// StopReason indicates why the model stopped generating.
type StopReason string

const (
	StopEndTurn StopReason = "end_turn"
	StopToolUse StopReason = "tool_use"
	StopLength  StopReason = "length"
	StopError   StopReason = "error"
	StopUnknown StopReason = "unknown"
)
