// Package errors provides structured error types for better observability
// and programmatic error handling across the rig control service.
//
// Every error that can reach an HTTP client carries an ErrorCode which maps
// onto a status code with HTTPStatus. Validation failures from the device
// setters and the capture scheduler use ErrCodeInvalidRequest so they are
// reported as client errors before any state is touched.
//
// Example usage:
//
//	err := errors.NewWithContext(
//	    errors.ErrCodeInvalidRequest,
//	    "PWM period too low",
//	    map[string]any{
//	        "on_time":  onTime,
//	        "off_time": offTime,
//	    },
//	)
package errors
