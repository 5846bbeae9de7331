package core

// error_messages.go turns technical errors into messages for API clients.
//
// # Error Codes Reference
//
// Users can quote a code to support for faster diagnosis.
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Malformed CSV: header missing, too few lines or no valid rows
//	         Action: the hint attached to the error, or check the file layout
//	         Match: ErrImport
//
//	IMP002 - System busy: another import is still running
//	         Action: Please wait a moment and try again
//	         Match: ErrTooManyImports
//
//	IMP003 - File too large: upload exceeds IMPORT_MAX_FILE_SIZE
//	         Patterns: "file too large", "request body too large"
//
//	IMP004 - No file: request carried no file or body
//	         Patterns: "no file provided", "empty file"
//
// # Remote Errors (REM001-REM099)
//
//	REM001 - Remote rejected the request; message carries the upstream reason
//	         Match: ErrRemote
//
//	REM002 - Remote sync is not configured
//	         Patterns: "remote not configured"
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Saving to the backing store failed; the in-memory state may be
//	         ahead of what is persisted
//	         Match: ErrPersist
//
// # Other
//
//	NF001  - Product not found (ErrNotFound)
//	VAL001 - Request rejected by validation (ErrValidation)
//	REQ001 - Request was cancelled ("context canceled")
//	REQ002 - Request timed out ("context deadline exceeded")
//	ERR000 - Unknown error; check the logs for the original error
//
// Sentinel matches are checked first, then patterns case-insensitively with
// strings.Contains. The first match wins.

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorKind maps a marked error category to a code. When detail is set the
// error's own text is shown, since it already names the problem.
type errorKind struct {
	sentinel error
	msg      UserMessage
	detail   bool
}

var errorKinds = []errorKind{
	{
		sentinel: ErrTooManyImports,
		msg: UserMessage{
			Message: "Another import is still running",
			Action:  "Please wait a moment and try again",
			Code:    "IMP002",
		},
	},
	{
		sentinel: ErrImport,
		msg: UserMessage{
			Action: "Check the file layout and try again",
			Code:   "IMP001",
		},
		detail: true,
	},
	{
		sentinel: ErrRemote,
		msg: UserMessage{
			Action: "Reload products from the remote and try again",
			Code:   "REM001",
		},
		detail: true,
	},
	{
		sentinel: ErrPersist,
		msg: UserMessage{
			Message: "Changes could not be saved",
			Action:  "Please try again; reload if the problem persists",
			Code:    "STO001",
		},
	},
	{
		sentinel: ErrNotFound,
		msg: UserMessage{
			Message: "Product not found",
			Action:  "Verify the product id",
			Code:    "NF001",
		},
	},
	{
		sentinel: ErrValidation,
		msg: UserMessage{
			Action: "Correct the request and try again",
			Code:   "VAL001",
		},
		detail: true,
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "IMP003",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "IMP003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was provided",
			Action:  "Attach a CSV or XLSX file",
			Code:    "IMP004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with data rows",
			Code:    "IMP004",
		},
	},
	{
		pattern: "remote not configured",
		msg: UserMessage{
			Message: "Remote sync is not configured",
			Action:  "Set REMOTE_BASE_URL to enable sync",
			Code:    "REM002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "REQ002",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range errorKinds {
		if !errors.Is(err, k.sentinel) {
			continue
		}
		msg := k.msg
		if k.detail {
			msg.Message = err.Error()
		}
		if hints := errors.GetAllHints(err); len(hints) > 0 {
			msg.Action = hints[0]
		}
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
