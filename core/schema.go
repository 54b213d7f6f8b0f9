package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	MaxPayloadBytes = 1024
	MaxCodeLen      = 100
)

// VerifyRequest is the body accepted by the chat linking endpoint.
type VerifyRequest struct {
	VerificationCode string `json:"verification_code"`
}

// VerifyResponse is returned after a successful link.
type VerifyResponse struct {
	ChatID    int64 `json:"chat_id"`
	AccountID int64 `json:"account_id"`
}

// ValidateVerifyRequest decodes and checks a linking request body.
func ValidateVerifyRequest(data []byte) (*VerifyRequest, error) {
	if len(data) > MaxPayloadBytes {
		return nil, fmt.Errorf("payload exceeds %d byte limit", MaxPayloadBytes)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var req VerifyRequest
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	req.VerificationCode = strings.TrimSpace(req.VerificationCode)
	if req.VerificationCode == "" {
		return nil, fmt.Errorf("verification_code is required")
	}
	if len(req.VerificationCode) > MaxCodeLen {
		return nil, fmt.Errorf("verification_code exceeds %d character limit", MaxCodeLen)
	}

	return &req, nil
}
