package email

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedEmail       = errors.New("malformed email: no header/body boundary")
	ErrMissingSignature     = errors.New("no DKIM-Signature header found")
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")
)

const sigHeaderName = "DKIM-Signature"

// Header is a single message header with its original bytes preserved.
// Value keeps the folding whitespace exactly as received; Raw is the full
// header including name, colon and terminating CRLF.
type Header struct {
	Key   string
	Value string
	Raw   string
}

// Signature holds the parsed DKIM-Signature tag list.
type Signature struct {
	Domain                 string
	Selector               string
	Algorithm              string
	HeaderCanonicalization string
	BodyCanonicalization   string
	SignedHeaders          []string
	BodyHashB64            string
	SignatureB64           string

	// The header the tags were parsed from. Needed again during header
	// canonicalization, where it is hashed last with b= emptied.
	Header Header
}

// Message is the parse result: ordered headers, the raw body before any
// canonicalization, and the signature selected for processing.
type Message struct {
	Headers   []Header
	Body      []byte
	Signature *Signature
}

// Parse splits a raw message into headers and body and extracts the DKIM
// signature parameters. When several DKIM-Signature headers are present the
// first syntactically valid one wins.
func Parse(raw []byte) (*Message, error) {
	headers, body, err := splitMessage(raw)
	if err != nil {
		return nil, err
	}

	msg := &Message{Headers: headers, Body: body}

	var lastErr error
	seen := false
	for _, h := range headers {
		if !strings.EqualFold(h.Key, sigHeaderName) {
			continue
		}
		seen = true
		sig, err := parseSignature(h)
		if err != nil {
			lastErr = err
			continue
		}
		msg.Signature = sig
		return msg, nil
	}

	if !seen {
		return nil, ErrMissingSignature
	}
	return nil, lastErr
}

// splitMessage separates the header block from the body at the first empty
// line and unfolds nothing: each Header keeps its received bytes.
func splitMessage(raw []byte) ([]Header, []byte, error) {
	boundary, bodyStart := findBoundary(raw)
	if boundary < 0 {
		return nil, nil, ErrMalformedEmail
	}

	headerBlock := raw[:boundary]
	body := raw[bodyStart:]

	var headers []Header
	lines := splitLines(headerBlock)
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			// Folded continuation of the previous header.
			if len(headers) == 0 {
				return nil, nil, fmt.Errorf("%w: continuation line before first header", ErrMalformedEmail)
			}
			last := &headers[len(headers)-1]
			last.Value += "\r\n" + string(line)
			last.Raw += string(line) + "\r\n"
			continue
		}
		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			return nil, nil, fmt.Errorf("%w: header line without colon", ErrMalformedEmail)
		}
		headers = append(headers, Header{
			Key:   string(line[:colon]),
			Value: string(line[colon+1:]),
			Raw:   string(line) + "\r\n",
		})
	}
	return headers, body, nil
}

// findBoundary locates the blank line separating headers from body. Returns
// the header block end and the body start, or (-1, -1). Both CRLF and bare LF
// delimited messages are accepted; headers are re-terminated with CRLF.
func findBoundary(raw []byte) (int, int) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return i, i + 4
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return i, i + 2
	}
	return -1, -1
}

// splitLines splits on CRLF or LF without keeping the terminators.
func splitLines(b []byte) [][]byte {
	var lines [][]byte
	for len(b) > 0 {
		i := bytes.IndexByte(b, '\n')
		if i < 0 {
			lines = append(lines, b)
			break
		}
		line := b[:i]
		line = bytes.TrimSuffix(line, []byte("\r"))
		lines = append(lines, line)
		b = b[i+1:]
	}
	return lines
}

// parseSignature parses the tag=value list of a DKIM-Signature header per
// RFC 6376 §3.5. Folding whitespace inside tag values is discarded.
func parseSignature(h Header) (*Signature, error) {
	sig := &Signature{
		HeaderCanonicalization: ModeSimple,
		BodyCanonicalization:   ModeSimple,
		Header:                 h,
	}

	tags := map[string]string{}
	for _, part := range strings.Split(h.Value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: bad signature tag %q", ErrMalformedEmail, part)
		}
		tags[strings.TrimSpace(k)] = stripFWS(v)
	}

	if tags["v"] != "1" {
		return nil, fmt.Errorf("%w: unsupported signature version %q", ErrMalformedEmail, tags["v"])
	}
	for _, required := range []string{"a", "d", "s", "h", "bh", "b"} {
		if tags[required] == "" {
			return nil, fmt.Errorf("%w: signature missing %s= tag", ErrMalformedEmail, required)
		}
	}

	switch tags["a"] {
	case "rsa-sha256", "ed25519-sha256":
		sig.Algorithm = tags["a"]
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, tags["a"])
	}

	if c, ok := tags["c"]; ok {
		hdr, body, found := strings.Cut(c, "/")
		sig.HeaderCanonicalization = hdr
		if found {
			sig.BodyCanonicalization = body
		}
		if !validMode(sig.HeaderCanonicalization) || !validMode(sig.BodyCanonicalization) {
			return nil, fmt.Errorf("%w: c=%s", ErrUnsupportedMode, c)
		}
	}

	sig.Domain = tags["d"]
	sig.Selector = tags["s"]
	sig.BodyHashB64 = tags["bh"]
	sig.SignatureB64 = tags["b"]
	for _, name := range strings.Split(tags["h"], ":") {
		name = strings.TrimSpace(name)
		if name != "" {
			sig.SignedHeaders = append(sig.SignedHeaders, name)
		}
	}
	return sig, nil
}

// stripFWS removes all folding whitespace from a tag value.
func stripFWS(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
}
