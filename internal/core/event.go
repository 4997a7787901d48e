package core

// EventContext is the read-only view of one triggered event handed to the dispatcher.
type EventContext struct {
	// Request holds the parameters of the inbound call.
	Request map[string]any `json:"request,omitempty"`

	// Response is the decoded outbound response body.
	Response map[string]any `json:"response,omitempty"`

	// Audit holds the audit data recorded for the current request.
	Audit map[string]any `json:"audit,omitempty"`

	// Options are the handler options configured for the selected action.
	Options Options `json:"options,omitempty"`
}
