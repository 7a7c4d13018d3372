package models

// CachedResponse is a finished unary call stored under its idempotency key.
type CachedResponse struct {
	// grpc status code of the first call
	Code    uint32 `json:"code"`
	Message string `json:"message,omitempty"`
	// proto encoded response message, empty for errors
	Body []byte `json:"body,omitempty"`
	// fingerprint of method and request, a key reused for another request never replays
	RequestHash string `json:"request_hash"`
}
