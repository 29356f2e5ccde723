package domain

import "errors"

// Kind is a stable tag clients can switch on.
type Kind string

const (
	KindEmptyFilter          Kind = "empty_filter"
	KindNoQuestionsAvailable Kind = "no_questions_available"
	KindNoActiveSession      Kind = "no_active_session"
	KindIndexOutOfRange      Kind = "index_out_of_range"
	KindUnknownQuestion      Kind = "unknown_question"
	KindInvalidChoice        Kind = "invalid_choice"
	KindDuplicateSession     Kind = "duplicate_session"
	KindInvalidSampleSize    Kind = "invalid_sample_size"
	KindInvalidRequest       Kind = "invalid_request"
	KindInvalidQuestion      Kind = "invalid_question"
	KindEssayTooShort        Kind = "essay_too_short"
	KindUnknownPrompt        Kind = "unknown_prompt"
	KindGraderUnavailable    Kind = "grader_unavailable"
	KindGraderFailed         Kind = "grader_failed"
	KindInternal             Kind = "internal"
)

// Error carries a Kind next to its message.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

var (
	// ErrEmptyFilter is returned when an exam is requested without subjects.
	ErrEmptyFilter = newError(KindEmptyFilter, "no subjects selected")
	// ErrNoQuestionsAvailable is returned when the subject filter matches nothing.
	ErrNoQuestionsAvailable = newError(KindNoQuestionsAvailable, "no questions available for the selected subjects")
	// ErrNoActiveSession is returned when the user has no exam in progress.
	ErrNoActiveSession = newError(KindNoActiveSession, "no active exam session")
	// ErrIndexOutOfRange is returned for a question index outside the session.
	ErrIndexOutOfRange = newError(KindIndexOutOfRange, "question index out of range")
	// ErrUnknownQuestion is returned when the question is not part of the session.
	ErrUnknownQuestion = newError(KindUnknownQuestion, "question not part of the active session")
	// ErrInvalidChoice is returned when the letter is not one of the alternatives.
	ErrInvalidChoice = newError(KindInvalidChoice, "letter is not one of the question alternatives")
	// ErrDuplicateSession is returned when the history already holds the session id.
	ErrDuplicateSession = newError(KindDuplicateSession, "session already recorded in history")
	// ErrInvalidSampleSize is returned when the requested size is outside 1..200.
	ErrInvalidSampleSize = newError(KindInvalidSampleSize, "number of questions must be between 1 and 200")
	// ErrInvalidRequest is returned for malformed client payloads.
	ErrInvalidRequest = newError(KindInvalidRequest, "invalid request")
	// ErrInvalidQuestion marks bank rows that break question invariants.
	ErrInvalidQuestion = newError(KindInvalidQuestion, "invalid question")
	// ErrEssayTooShort is returned when an essay is below the minimum length.
	ErrEssayTooShort = newError(KindEssayTooShort, "essay text is too short")
	// ErrUnknownPrompt is returned for an essay prompt id that does not exist.
	ErrUnknownPrompt = newError(KindUnknownPrompt, "essay prompt not found")
	// ErrGraderUnavailable is returned when no grading backend is configured.
	ErrGraderUnavailable = newError(KindGraderUnavailable, "essay grader is not configured")
	// ErrGraderFailed wraps failures of the grading backend.
	ErrGraderFailed = newError(KindGraderFailed, "essay grading failed")
)

// KindOf resolves the kind of a possibly wrapped error; anything unknown is internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
