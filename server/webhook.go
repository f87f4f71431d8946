package server

import (
	"encoding/json"
)

// Inbound webhook payload shapes. The gateway forwards Meta-style payloads
// (entry → changes → value → messages) and its own flattened data list; both
// are normalized into a single message slice before processing.

// InboundMessage is one normalized inbound message.
type InboundMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
	Gateway struct {
		Direction string `json:"direction"`
	} `json:"kapso"`
}

type webhookPayload struct {
	// Flattened gateway format.
	Data []struct {
		PhoneNumberID string          `json:"phone_number_id"`
		Message       *InboundMessage `json:"message"`
	} `json:"data"`

	// Meta webhook format.
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []InboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundBatch struct {
	PhoneNumberID string
	Message       InboundMessage
}

// normalizeWebhook extracts all inbound messages from a raw webhook body.
// Unknown shapes yield an empty batch, not an error: the webhook must be
// acknowledged regardless.
func normalizeWebhook(raw []byte, defaultPhoneNumberID string) ([]inboundBatch, error) {
	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	var batches []inboundBatch
	for _, item := range payload.Data {
		if item.Message == nil {
			continue
		}
		phoneNumberID := item.PhoneNumberID
		if phoneNumberID == "" {
			phoneNumberID = defaultPhoneNumberID
		}
		batches = append(batches, inboundBatch{PhoneNumberID: phoneNumberID, Message: *item.Message})
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			phoneNumberID := change.Value.Metadata.PhoneNumberID
			if phoneNumberID == "" {
				phoneNumberID = defaultPhoneNumberID
			}
			for _, message := range change.Value.Messages {
				batches = append(batches, inboundBatch{PhoneNumberID: phoneNumberID, Message: message})
			}
		}
	}

	return batches, nil
}
