package inference

import "errors"

var (
	ErrMissingModel       = errors.New("no artist selected")
	ErrMissingFile        = errors.New("no audio file uploaded")
	ErrFileTypeRejected   = errors.New("file is not a supported audio type")
	ErrConversionFailed   = errors.New("conversion failed")
	ErrSubmissionInFlight = errors.New("a conversion is already in progress")
)

// Message returns the text shown to the user for err.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingModel):
		return "Please select an artist"
	case errors.Is(err, ErrMissingFile):
		return "Please upload an audio file"
	case errors.Is(err, ErrFileTypeRejected):
		return "Please upload a valid audio file"
	case errors.Is(err, ErrSubmissionInFlight):
		return "Please wait for the current conversion to finish"
	default:
		return "Something went wrong"
	}
}
