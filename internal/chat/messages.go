package chat

import (
	"chatd/internal/artifact"
	"chatd/internal/manager"
)

// Fixed user-facing messages by error kind. Internal failure text stays out
// of the chat surface; the capability verdict is the one deliberate
// exception because it names the measured memory.
var kindMessages = map[string]string{
	manager.KindInit:         "The model could not be initialized. Please try again.",
	manager.KindNotReady:     "The model is not ready yet. Please try again in a moment.",
	manager.KindTimeout:      "The model took too long to respond. Please try again.",
	manager.KindExhausted:    "The device ran out of memory. Close other apps and try again.",
	manager.KindBusy:         "A response is already being generated. Please wait and try again.",
	manager.KindEngine:       "Something went wrong while generating a response.",
	manager.KindUnclassified: "Something went wrong while generating a response.",
}

const (
	msgArtifactMissing   = "The model file is missing. Reinstall or download the model, then try again."
	msgArtifactCorrupted = "The model file appears to be corrupted. Re-download the model, then try again."
	msgCanceled          = "Request canceled."
)

// UserMessage renders err as a sentence fit for the chat surface.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	kind := manager.Kind(err)
	switch kind {
	case manager.KindCapability:
		return err.Error()
	case manager.KindCanceled:
		return msgCanceled
	case manager.KindInit:
		switch {
		case artifact.IsNotFound(err):
			return msgArtifactMissing
		case artifact.IsCorrupted(err):
			return msgArtifactCorrupted
		}
	}
	if msg, ok := kindMessages[kind]; ok {
		return msg
	}
	return kindMessages[manager.KindUnclassified]
}
