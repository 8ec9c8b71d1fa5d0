package errors

// ErrorCode is the numeric application error code returned in API bodies
type ErrorCode int32

const (
	ErrorCode_HTTP_OK           ErrorCode = 0
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_PERMISSION_DENIED ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED   ErrorCode = 1005
	ErrorCode_FORBIDDEN         ErrorCode = 1006
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1007

	// Auth
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2000
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 2001

	// Lecture
	ErrorCode_LECTURE_NOT_FOUND      ErrorCode = 3000
	ErrorCode_LECTURE_NOT_READY      ErrorCode = 3001
	ErrorCode_LECTURE_ALREADY_QUEUED ErrorCode = 3002
	ErrorCode_UNSUPPORTED_AUDIO      ErrorCode = 3003
	ErrorCode_UPLOAD_NOT_FOUND       ErrorCode = 3004
	ErrorCode_UPLOAD_NO_CHUNKS       ErrorCode = 3005
	ErrorCode_TRANSCRIPT_NOT_FOUND   ErrorCode = 3006

	// AI
	ErrorCode_AI_SUMMARY_FAILED      ErrorCode = 4001
	ErrorCode_AI_CHAT_FAILED         ErrorCode = 4002
	ErrorCode_AI_SERVICE_UNAVAILABLE ErrorCode = 4003
	ErrorCode_AI_INDEX_FAILED        ErrorCode = 4004

	// Integration
	ErrorCode_INTEGRATION_STORAGE_FAILED ErrorCode = 5000
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                    "HTTP_OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_PERMISSION_DENIED:          "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:            "UNAUTHENTICATED",
	ErrorCode_FORBIDDEN:                  "FORBIDDEN",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:         "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:         "AUTH_TOKEN_EXPIRED",
	ErrorCode_LECTURE_NOT_FOUND:          "LECTURE_NOT_FOUND",
	ErrorCode_LECTURE_NOT_READY:          "LECTURE_NOT_READY",
	ErrorCode_LECTURE_ALREADY_QUEUED:     "LECTURE_ALREADY_QUEUED",
	ErrorCode_UNSUPPORTED_AUDIO:          "UNSUPPORTED_AUDIO",
	ErrorCode_UPLOAD_NOT_FOUND:           "UPLOAD_NOT_FOUND",
	ErrorCode_UPLOAD_NO_CHUNKS:           "UPLOAD_NO_CHUNKS",
	ErrorCode_TRANSCRIPT_NOT_FOUND:       "TRANSCRIPT_NOT_FOUND",
	ErrorCode_AI_SUMMARY_FAILED:          "AI_SUMMARY_FAILED",
	ErrorCode_AI_CHAT_FAILED:             "AI_CHAT_FAILED",
	ErrorCode_AI_SERVICE_UNAVAILABLE:     "AI_SERVICE_UNAVAILABLE",
	ErrorCode_AI_INDEX_FAILED:            "AI_INDEX_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
