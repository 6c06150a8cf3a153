package speech

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ErrorKind string

const (
	KindNone                 ErrorKind = ""
	KindUnsupported          ErrorKind = "unsupported"
	KindPermissionDenied     ErrorKind = "permission-denied"
	KindNoSpeech             ErrorKind = "no-speech"
	KindCaptureFailure       ErrorKind = "capture-failure"
	KindNetwork              ErrorKind = "network"
	KindTimeout              ErrorKind = "timeout"
	KindLanguageNotSupported ErrorKind = "language-not-supported"
	KindUnknown              ErrorKind = "unknown"
)

var messages = map[ErrorKind]string{
	KindUnsupported:          "Speech recognition is not available. Use text input instead.",
	KindPermissionDenied:     "Microphone access denied. Please allow microphone access and try again.",
	KindNoSpeech:             "No speech detected. Try speaking more clearly.",
	KindCaptureFailure:       "No microphone found. Please check your microphone and try again.",
	KindNetwork:              "Network error. Please try again.",
	KindTimeout:              "Didn't catch that in time. Please try again.",
	KindLanguageNotSupported: "Language not supported. Use text input instead.",
	KindUnknown:              "Speech recognition error. Please try again.",
}

func (k ErrorKind) Message() string {
	return messages[k]
}

// Event is the machine event an error of this kind produces. Language
// problems cannot be retried, so they disable speech input altogether.
func (k ErrorKind) Event() Event {
	switch k {
	case KindTimeout:
		return EventTimeout
	case KindUnsupported, KindLanguageNotSupported:
		return EventUnsupported
	}
	return EventFail
}

// ParseErrorCode maps the error codes browsers report from their speech API.
func ParseErrorCode(code string) ErrorKind {
	switch code {
	case "":
		return KindNone
	case "not-allowed", "service-not-allowed":
		return KindPermissionDenied
	case "no-speech":
		return KindNoSpeech
	case "audio-capture":
		return KindCaptureFailure
	case "network":
		return KindNetwork
	case "bad-grammar", "language-not-supported":
		return KindLanguageNotSupported
	case "timeout":
		return KindTimeout
	case "unsupported":
		return KindUnsupported
	}
	return KindUnknown
}

// Classify maps a recognizer error to a kind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	switch status.Code(err) {
	case codes.DeadlineExceeded:
		return KindTimeout
	case codes.PermissionDenied, codes.Unauthenticated:
		return KindPermissionDenied
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return KindNetwork
	case codes.InvalidArgument:
		return KindCaptureFailure
	case codes.Unimplemented:
		return KindUnsupported
	}
	return KindUnknown
}
