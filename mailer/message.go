// Package mailer sends notification emails about proof requests: an
// acknowledgement when a request is picked up, a completion notice, or an
// error report. Delivery goes through a relay endpoint; rendering uses
// html/template.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Message is an email to be sent through the relay.
type Message struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Reference string `json:"reference,omitempty"`
	ReplyTo   string `json:"reply_to,omitempty"`
	BodyPlain string `json:"body_plain"`
	BodyHTML  string `json:"body_html"`
}

var (
	ackTemplate = template.Must(template.New("ack").Parse(
		`<p>Hi {{.Address}}!</p><p>Your email with the request {{.Request}} was received.</p>`))
	completionTemplate = template.Must(template.New("completion").Parse(
		`<p>Your request {{.RequestID}} is now complete.</p>`))
	errorTemplate = template.Must(template.New("error").Parse(
		`<p>An error occurred while processing your request.</p><p>Error: {{.Error}}</p>`))
)

// Acknowledgement builds the reply confirming a request was received.
func Acknowledgement(addr, request, originalSubject, originalMessageID string) (Message, error) {
	html, err := render(ackTemplate, map[string]string{"Address": addr, "Request": request})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:        addr,
		Subject:   "Re: " + originalSubject,
		Reference: originalMessageID,
		ReplyTo:   originalMessageID,
		BodyPlain: fmt.Sprintf("Hi %s!\nYour email with the request %s was received.", addr, request),
		BodyHTML:  html,
	}, nil
}

// Completion builds the notice sent once a proof request finished.
func Completion(addr, requestID, originalSubject, originalMessageID string) (Message, error) {
	html, err := render(completionTemplate, map[string]string{"RequestID": requestID})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:        addr,
		Subject:   "Re: " + originalSubject,
		Reference: originalMessageID,
		ReplyTo:   originalMessageID,
		BodyPlain: fmt.Sprintf("Your request %s is now complete.", requestID),
		BodyHTML:  html,
	}, nil
}

// ErrorNotice builds the report sent when a request failed.
func ErrorNotice(addr, errText, originalSubject string) (Message, error) {
	html, err := render(errorTemplate, map[string]string{"Error": errText})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:        addr,
		Subject:   "Re: " + originalSubject,
		BodyPlain: "An error occurred while processing your request. Error: " + errText,
		BodyHTML:  html,
	}, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
