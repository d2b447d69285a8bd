package clockdto

// DomainError is the error body returned by the clock API.
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "clock service error"
}

const (
	CodeBadRequest         = "bad_request"
	CodeNotFound           = "not_found"
	CodeNotOnMove          = "not_on_move"
	CodePaused             = "paused"
	CodeNotRunning         = "not_running"
	CodeFinished           = "match_finished"
	CodeCapacity           = "capacity"
	CodeInvalidBoard       = "invalid_board"
	CodeUnsupportedVersion = "unsupported_version"
	CodeInvalidPreset      = "invalid_preset"
	CodeInternal           = "internal"
)
