package components

import (
	"github.com/valisehq/valise/internal/core"
)

// SendRequestMsg is sent when the user wants to execute an endpoint. The
// collection provides the variable scope for interpolation.
type SendRequestMsg struct {
	Endpoint   *core.Endpoint
	Collection *core.Collection
}

// ResponseReceivedMsg is sent when a response arrives.
type ResponseReceivedMsg struct {
	Response *core.Response
}

// RequestErrorMsg is sent when a request fails.
type RequestErrorMsg struct {
	Err error
}

// SaveRequestedMsg is sent when the user asks to persist a collection.
type SaveRequestedMsg struct {
	Collection *core.Collection
}

// CopyMsg is sent when content should be copied to the clipboard.
type CopyMsg struct {
	Content string
}

// FeedbackMsg is sent to display a transient notification to the user.
type FeedbackMsg struct {
	Message string
	IsError bool
}
