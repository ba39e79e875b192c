package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *Error {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(field, reason string) *Error {
	return New(CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Content errors

func ContentReadFailed(path string, cause error) *Error {
	return Wrap(cause, CategoryContent, SeverityError, "failed to read article").
		WithContext("path", path)
}

func FrontMatterInvalid(path string, cause error) *Error {
	return Wrap(cause, CategoryContent, SeverityWarning, "invalid front matter").
		WithContext("path", path)
}

// Build errors

func OutputFailed(path string, cause error) *Error {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "failed to write output").
		WithContext("path", path)
}

// Webmention errors

func WebmentionSendFailed(source, target string, cause error) *Error {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "webmention send failed").
		WithContext("source", source).
		WithContext("target", target)
}

func WebmentionFetchFailed(url string, cause error) *Error {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "webmention fetch failed").
		WithContext("url", url)
}

// Storage errors

func StoreFailed(operation string, cause error) *Error {
	return Wrap(cause, CategoryStorage, SeverityError, "store operation failed").
		WithContext("operation", operation)
}
