package http

const (
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidJSON      = "INVALID_JSON"
	CodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	CodeValidationFailed = "VALIDATION_FAILED"
)
