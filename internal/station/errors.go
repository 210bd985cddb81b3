package station

import "fmt"

// InvalidParameterError reports a query argument outside its accepted range.
type InvalidParameterError struct {
	Param   string
	Message string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Message)
}

func NewInvalidParameterError(param, message string) *InvalidParameterError {
	return &InvalidParameterError{
		Param:   param,
		Message: message,
	}
}

// EmptyDatasetError is returned before the first snapshot has been published.
type EmptyDatasetError struct{}

func (e *EmptyDatasetError) Error() string {
	return "station data not yet available"
}
