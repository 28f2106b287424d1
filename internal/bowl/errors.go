package bowl

import "errors"

var (
	ErrInvalidFormat     = errors.New("invalid format")
	ErrDuplicateActive   = errors.New("bowl already active")
	ErrAlreadyReturned   = errors.New("bowl already returned")
	ErrAlreadyPrepared   = errors.New("bowl already prepared")
	ErrNotPrepared       = errors.New("bowl not prepared")
	ErrNotFound          = errors.New("bowl not found")
	ErrNoActiveContainer = errors.New("no active bowl")
	ErrMissingField      = errors.New("missing field")
	ErrDateParse         = errors.New("cannot parse date")
	ErrProcessing        = errors.New("processing error")
)

// RecordError ties a per-record failure in a batch to the bowl code it was
// raised for. Code is empty when the record had none.
type RecordError struct {
	Code string
	Err  error
}

func (e RecordError) Error() string {
	if e.Code == "" {
		return e.Err.Error()
	}
	return e.Code + ": " + e.Err.Error()
}

func (e RecordError) Unwrap() error {
	return e.Err
}
