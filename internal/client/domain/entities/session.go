package entities

// SessionEndReason - причина завершения сессии.
type SessionEndReason string

const (
	SessionLoggedOut     SessionEndReason = "logged_out"
	SessionRefreshFailed SessionEndReason = "refresh_failed"
)

// SessionEvent передается слушателям при завершении сессии.
// Message предназначено для показа пользователю на экране входа.
type SessionEvent struct {
	Reason  SessionEndReason
	Message string
	Err     error
}
