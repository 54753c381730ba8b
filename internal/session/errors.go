package session

import "errors"

var (
	// ErrDeviceUnavailable wraps capture failures reported by the transcriber.
	ErrDeviceUnavailable = errors.New("audio input unavailable")
	// ErrRecognizerUnavailable wraps recognizer connection and stream failures.
	ErrRecognizerUnavailable = errors.New("speech recognizer unavailable")
	// ErrNotRecording is returned by a stop request outside the recording state.
	ErrNotRecording = errors.New("not recording")
	// ErrPersistence wraps history append failures.
	ErrPersistence = errors.New("history persistence failed")
)
