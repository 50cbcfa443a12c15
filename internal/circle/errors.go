package circle

import "fmt"

// Kind classifies an expected failure so transports can map it to a status.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindConflict
	KindRateLimited
	KindValidation
	KindConfig
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindUnauthorized:
		return "Unauthorized"
	case KindForbidden:
		return "Forbidden"
	case KindConflict:
		return "Conflict"
	case KindRateLimited:
		return "RateLimited"
	case KindValidation:
		return "Validation"
	case KindConfig:
		return "Config"
	case KindUnavailable:
		return "Unavailable"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is an expected, user-facing failure. Two errors match under
// errors.Is when their codes are equal.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrSessionNotFound = newError(KindNotFound, "NotFound", "session not found")
	ErrRoomNotFound    = newError(KindNotFound, "NotFound", "room not found")
	ErrRequestNotFound = newError(KindNotFound, "NotFound", "no pending join request")
	ErrMemberNotFound  = newError(KindNotFound, "NotFound", "member not found")

	ErrNotRoomOwner = newError(KindUnauthorized, "Unauthorized", "only the room owner can do this")

	ErrWrongPassphrase = newError(KindForbidden, "WrongPassphrase", "passphrase does not match")
	ErrJoinRejected    = newError(KindForbidden, "JoinRejected", "join request was rejected")
	ErrNotAMember      = newError(KindForbidden, "NotAMember", "not a member of this session")
	ErrMuted           = newError(KindForbidden, "Muted", "you are muted in this session")
	ErrNotBreakTime    = newError(KindForbidden, "NotBreakTime", "messages can only be posted during a break")

	ErrRoomExists   = newError(KindConflict, "AlreadyExists", "room already exists")
	ErrAlreadyEnded = newError(KindConflict, "AlreadyEnded", "session has already ended")

	ErrTooFrequent = newError(KindRateLimited, "TooFrequent", "please wait a moment before sending again")
	ErrRateLimited = newError(KindRateLimited, "RateLimited", "too many stamps, slow down")

	ErrPassphraseRequired  = newError(KindValidation, "PassphraseRequired", "a passphrase is required")
	ErrPassphraseTooLong   = newError(KindValidation, "TooLong", "passphrase is too long")
	ErrUseEndSession       = newError(KindValidation, "InvalidState", "use the end session operation to end a session")
	ErrInvalidState        = newError(KindValidation, "InvalidState", "state must be working or break")
	ErrInvalidRoomName     = newError(KindValidation, "Validation", "room name must be 1 to 50 characters")
	ErrInvalidNameMode     = newError(KindValidation, "Validation", "unknown display name mode")
	ErrInvalidCategory     = newError(KindValidation, "InvalidCategory", "unknown work category")
	ErrShortTextTooLong    = newError(KindValidation, "TooLong", "short text must be 50 characters or fewer")
	ErrInvalidStampType    = newError(KindValidation, "InvalidStampType", "unknown stamp type")
	ErrEmptyContent        = newError(KindValidation, "EmptyContent", "message is empty")
	ErrContentTooLong      = newError(KindValidation, "TooLong", "message must be 30 characters or fewer")
	ErrNewlineNotAllowed   = newError(KindValidation, "NewlineNotAllowed", "message must be a single line")
	ErrInvalidAmount       = newError(KindValidation, "Validation", "amount must be positive")
	ErrSupportTooLong      = newError(KindValidation, "TooLong", "support message must be 100 characters or fewer")
	ErrInvalidMuteDuration = newError(KindValidation, "Validation", "mute duration must not be negative")

	ErrPassphraseNotSet = newError(KindConfig, "ConfigError", "session requires a passphrase but none is configured")

	ErrCodeExhausted  = newError(KindUnavailable, "CodeGenerationExhausted", "could not allocate a session code")
	ErrJoinContention = newError(KindUnavailable, "Unavailable", "join request is still being processed, try again")
)
