package handler

import (
	"time"

	"custos/internal/compliance"
	audit "custos/pkg/platform/audit"
)

type decisionResponse struct {
	Allowed    bool   `json:"allowed"`
	ReasonCode uint8  `json:"reasonCode"`
	Reason     string `json:"reason"`
	Spender    string `json:"spender"`
	From       string `json:"from"`
	To         string `json:"to"`
	Value      uint64 `json:"value"`
}

func newDecisionResponse(d compliance.Decision) decisionResponse {
	return decisionResponse{
		Allowed:    d.Allowed,
		ReasonCode: uint8(d.Reason),
		Reason:     d.Reason.String(),
		Spender:    d.Spender.String(),
		From:       d.From.String(),
		To:         d.To.String(),
		Value:      d.Amount,
	}
}

type balanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

type eventResponse struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	Action     string `json:"action"`
	Allowed    bool   `json:"allowed"`
	ReasonCode uint8  `json:"reasonCode"`
	Spender    string `json:"spender,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Value      uint64 `json:"value"`
	Actor      string `json:"actor,omitempty"`
	Detail     string `json:"detail,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
}

type eventsResponse struct {
	Events []eventResponse `json:"events"`
}

func newEventsResponse(events []audit.Event) eventsResponse {
	resp := eventsResponse{Events: make([]eventResponse, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, eventResponse{
			ID:         e.ID.String(),
			Timestamp:  e.Timestamp.UTC().Format(time.RFC3339Nano),
			Action:     string(e.Action),
			Allowed:    e.Allowed,
			ReasonCode: e.ReasonCode,
			Spender:    e.Spender.String(),
			From:       e.From.String(),
			To:         e.To.String(),
			Value:      e.Value,
			Actor:      e.Actor.String(),
			Detail:     e.Detail,
			RequestID:  e.RequestID,
		})
	}
	return resp
}
