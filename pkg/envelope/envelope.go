package envelope

import "time"

// Response is the body of every successful or business-error API response.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func OK(message string, data interface{}) Response {
	return Response{Success: true, Message: message, Data: data}
}

func Fail(message string) Response {
	return Response{Success: false, Message: message}
}

// ErrorMessage is the body returned for unhandled errors.
type ErrorMessage struct {
	StatusCode  int       `json:"status_code"`
	Timestamp   time.Time `json:"timestamp"`
	Message     string    `json:"message"`
	Description string    `json:"description"`
}

func NewErrorMessage(status int, message, path string) ErrorMessage {
	return ErrorMessage{
		StatusCode:  status,
		Timestamp:   time.Now().UTC(),
		Message:     message,
		Description: "uri=" + path,
	}
}
