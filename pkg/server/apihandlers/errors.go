package apihandlers

const OKResponse = "OK"

// APIError represents an error response. Used for swagger documentation.
type APIError struct {
	Message string `json:"message"`
}
