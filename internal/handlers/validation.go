package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxMessageLength   = 2000
	MaxSessionIDLength = 64
)

// sendMessageInput is the validated, trimmed form of a send request.
type sendMessageInput struct {
	Message   string
	SessionID string
}

// rawSendMessage defers decoding so a wrongly typed field becomes a field
// error instead of a body error.
type rawSendMessage struct {
	Message   json.RawMessage `json:"message"`
	SessionID json.RawMessage `json:"sessionId"`
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func validateSendMessage(raw rawSendMessage) (sendMessageInput, map[string]string) {
	var in sendMessageInput
	fields := map[string]string{}

	if isAbsent(raw.Message) {
		fields["message"] = "Message is required"
	} else if err := json.Unmarshal(raw.Message, &in.Message); err != nil {
		fields["message"] = "Message must be a string"
	} else {
		in.Message = strings.TrimSpace(in.Message)
		switch {
		case in.Message == "":
			fields["message"] = "Message cannot be empty"
		case utf8.RuneCountInString(in.Message) > MaxMessageLength:
			fields["message"] = fmt.Sprintf("Message cannot exceed %d characters", MaxMessageLength)
		}
	}

	if !isAbsent(raw.SessionID) {
		if err := json.Unmarshal(raw.SessionID, &in.SessionID); err != nil {
			fields["sessionId"] = "SessionId must be a string"
		} else {
			in.SessionID = strings.TrimSpace(in.SessionID)
			switch {
			case in.SessionID == "":
				fields["sessionId"] = "SessionId cannot be empty"
			case len(in.SessionID) > MaxSessionIDLength:
				fields["sessionId"] = fmt.Sprintf("SessionId cannot exceed %d characters", MaxSessionIDLength)
			}
		}
	}

	if len(fields) > 0 {
		return sendMessageInput{}, fields
	}
	return in, nil
}
