/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request or event parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates that a request body or websocket frame is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrUnsupportedEventType indicates that a websocket frame carried an unknown event type.
	ErrUnsupportedEventType = 1008
)

// 2xxx: Chat Business Logic Errors
const (
	// ErrMessageContentTooLong indicates that the message body exceeded the maximum length limit.
	ErrMessageContentTooLong = 2201

	// ErrUnknownSender indicates that an action was attempted by a connection that has not joined.
	ErrUnknownSender = 2301
)

// 4xxx: Storage Errors
const (
	// ErrHistoryPersistFailed indicates that the message history could not be written to stable storage.
	ErrHistoryPersistFailed = 4001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
