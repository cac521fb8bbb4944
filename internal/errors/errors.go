package errors

import "fmt"

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrPatientNotFound    = &AppError{Code: "PATIENT_001", Message: "patient not found"}
	ErrMedicationNotFound = &AppError{Code: "PATIENT_002", Message: "medication not found"}

	ErrCaretakerNotFound = &AppError{Code: "CARE_001", Message: "Caretaker ID not found"}
	ErrAlreadyLinked     = &AppError{Code: "CARE_002", Message: "Already linked to this caretaker"}

	ErrInvalidCredentials = &AppError{Code: "AUTH_001", Message: "Invalid email or password"}
	ErrEmailRegistered    = &AppError{Code: "AUTH_002", Message: "Email already registered"}
	ErrNoActiveSession    = &AppError{Code: "AUTH_003", Message: "no active session"}

	ErrDuplicateDose = &AppError{Code: "LOG_001", Message: "dose already logged for this time"}

	ErrStoreRead  = &AppError{Code: "STORE_001", Message: "failed to read from store"}
	ErrStoreWrite = &AppError{Code: "STORE_002", Message: "failed to write to store"}

	ErrConversationNotFound = &AppError{Code: "CHAT_001", Message: "conversation not found"}

	ErrNotFound   = &AppError{Code: "GEN_001", Message: "resource not found"}
	ErrBadRequest = &AppError{Code: "GEN_002", Message: "bad request"}
	ErrInternal   = &AppError{Code: "GEN_003", Message: "internal error"}
)

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}
