package retry

import (
	"errors"

	"google.golang.org/genai"
)

// ClassifyGenAI applies the transient marker to Gemini API failures that are
// worth retrying: rate limits (429) and server-side errors (5xx). Auth and
// request errors stay permanent. Errors that don't carry an API status
// (transport-level failures) are treated as transient. The wrapped error is
// returned in all cases so callers keep their domain wrapper.
func ClassifyGenAI(wrapped, cause error) error {
	var apiErr genai.APIError
	if errors.As(cause, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code >= 500 {
			return MarkTransient(wrapped)
		}
		return wrapped
	}
	return MarkTransient(wrapped)
}
