package model

// AppError is the error payload shared by the CLI and the HTTP surface.
// Every stage wraps its failures into one of these so callers can dispatch on
// Code/Stage without string matching.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage"`

	URL     string `json:"url,omitempty"`
	Path    string `json:"path,omitempty"`
	Line    int    `json:"line,omitempty"`    // 1-based; 0 means "not set"
	Snippet string `json:"snippet,omitempty"` // truncated to 200 bytes
	Hint    string `json:"hint,omitempty"`
}

type ErrorResponse struct {
	Error AppError `json:"error"`
}

// Sentinel policies understood by every Clash core.
const (
	Direct = "DIRECT"
	Reject = "REJECT"
)

// IsSentinel reports whether name is one of the built-in policies.
func IsSentinel(name string) bool {
	return name == Direct || name == Reject
}
