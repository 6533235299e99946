package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AppError carries a machine code, an operator message, a user-facing
// message, and a retryability flag that job handlers map onto queue
// semantics: retryable errors are redelivered, the rest are dropped or
// dead-lettered.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewValidationError marks a malformed or unsatisfiable request. Not
// retryable: redelivery cannot fix a bad payload.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: "Something looks off with that request.",
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

// NewDatabaseError marks a failed store transaction. Retryable: the job
// stays unacknowledged and the queue redelivers it.
func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("Database error: %s", underlyingMsg),
		UserMessage: "Temporary hiccup, please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewTelegramError marks a failed delivery to the Telegram API.
func NewTelegramError(cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     "Telegram API error",
		UserMessage: "Messaging is temporarily unavailable.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewQueueError marks a failed enqueue to the job queue.
func NewQueueError(cause error) *AppError {
	return &AppError{
		Code:        "E310",
		Message:     "Queue enqueue error",
		UserMessage: "Temporary hiccup, please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewStateError marks an operation that is illegal for the entity's
// current lifecycle state, such as settling a room that is not
// processing.
func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: "That action is not possible right now.",
		Severity:    SeverityMedium,
		Retryable:   false,
		cause:       nil,
	}
}
