package email

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DKIM canonicalization modes, RFC 6376 §3.4.
const (
	ModeSimple  = "simple"
	ModeRelaxed = "relaxed"
)

var ErrUnsupportedMode = errors.New("unsupported canonicalization mode")

func validMode(mode string) bool {
	return mode == ModeSimple || mode == ModeRelaxed
}

// bTagRe matches the b= tag value only: the separator and any folding
// whitespace before the tag are captured and kept, since simple mode must
// preserve every byte of the header except the signature data itself.
var bTagRe = regexp.MustCompile(`((^|;)[ \t\r\n]*b=)[^;]*`)

// CanonicalizeHeaders produces the canonical header block covered by the
// signature: the h= listed headers in order, then the DKIM-Signature header
// itself with its b= value emptied and without a trailing CRLF.
//
// Per RFC 6376 §5.4.2, when a header name occurs more than once the instances
// are consumed bottom-up; names with no remaining instance contribute nothing.
func CanonicalizeHeaders(headers []Header, mode string, sig *Signature) ([]byte, error) {
	if !validMode(mode) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}

	used := make([]bool, len(headers))
	var buf bytes.Buffer
	for _, name := range sig.SignedHeaders {
		for i := len(headers) - 1; i >= 0; i-- {
			if used[i] || !strings.EqualFold(headers[i].Key, name) {
				continue
			}
			used[i] = true
			buf.Write(canonicalHeader(headers[i], mode))
			break
		}
	}

	// The signature header is hashed last, with the signature data removed
	// and no terminating CRLF.
	unsigned := sig.Header
	unsigned.Value = bTagRe.ReplaceAllString(unsigned.Value, "${1}")
	colon := strings.IndexByte(unsigned.Raw, ':')
	unsigned.Raw = unsigned.Raw[:colon+1] + bTagRe.ReplaceAllString(unsigned.Raw[colon+1:], "${1}")
	line := canonicalHeader(unsigned, mode)
	buf.Write(bytes.TrimSuffix(line, []byte("\r\n")))

	return buf.Bytes(), nil
}

func canonicalHeader(h Header, mode string) []byte {
	if mode == ModeSimple {
		return []byte(h.Raw)
	}
	// Relaxed: lower-case the name, unfold, collapse whitespace runs to a
	// single space, drop leading/trailing whitespace.
	name := strings.ToLower(h.Key)
	value := collapseWSP(h.Value)
	return []byte(name + ":" + value + "\r\n")
}

// CanonicalizeBody applies DKIM body canonicalization.
//
// Simple: trailing empty lines are reduced to a single CRLF. Relaxed:
// whitespace runs within each line collapse to a single space, trailing
// whitespace on each line is removed, trailing empty lines are removed, and a
// non-empty body ends with exactly one CRLF. Both transforms are idempotent.
func CanonicalizeBody(body []byte, mode string) ([]byte, error) {
	switch mode {
	case ModeSimple:
		return simpleBody(body), nil
	case ModeRelaxed:
		return relaxedBody(body), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
}

func simpleBody(body []byte) []byte {
	body = normalizeCRLF(body)
	for bytes.HasSuffix(body, []byte("\r\n\r\n")) {
		body = body[:len(body)-2]
	}
	if len(body) == 0 {
		return []byte("\r\n")
	}
	if !bytes.HasSuffix(body, []byte("\r\n")) {
		body = append(body, '\r', '\n')
	}
	return body
}

func relaxedBody(body []byte) []byte {
	lines := splitLines(normalizeCRLF(body))
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(strings.TrimRight(collapseWSP(string(line)), " "))
		buf.WriteString("\r\n")
	}
	out := buf.Bytes()
	for bytes.HasSuffix(out, []byte("\r\n\r\n")) {
		out = out[:len(out)-2]
	}
	if bytes.Equal(out, []byte("\r\n")) {
		return nil
	}
	return out
}

// normalizeCRLF rewrites bare LF line endings to CRLF so that messages saved
// with unix line endings canonicalize the same as wire-format ones.
func normalizeCRLF(b []byte) []byte {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(b, []byte("\n"), []byte("\r\n"))
}

// collapseWSP unfolds and reduces every whitespace run to one space, then
// trims the ends.
func collapseWSP(s string) string {
	var b strings.Builder
	inWSP := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			inWSP = true
		default:
			if inWSP && b.Len() > 0 {
				b.WriteByte(' ')
			}
			inWSP = false
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
