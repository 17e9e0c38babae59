package email_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/mailproof/mailproof/email"
)

func TestParseSignedMessage(t *testing.T) {
	raw := signedFixture(t, "Hello Bob\r\n", "relaxed/relaxed")

	msg, err := email.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := len(msg.Headers); got != 5 {
		t.Errorf("got %d headers, want 5", got)
	}
	if string(msg.Body) != "Hello Bob\r\n" {
		t.Errorf("body = %q", msg.Body)
	}

	sig := msg.Signature
	if sig == nil {
		t.Fatal("no signature parsed")
	}
	if sig.Domain != "example.com" || sig.Selector != "mail" {
		t.Errorf("domain/selector = %s/%s", sig.Domain, sig.Selector)
	}
	if sig.Algorithm != "rsa-sha256" {
		t.Errorf("algorithm = %s", sig.Algorithm)
	}
	if sig.HeaderCanonicalization != email.ModeRelaxed || sig.BodyCanonicalization != email.ModeRelaxed {
		t.Errorf("canonicalization = %s/%s", sig.HeaderCanonicalization, sig.BodyCanonicalization)
	}
	want := []string{"from", "to", "subject", "date"}
	if len(sig.SignedHeaders) != len(want) {
		t.Fatalf("signed headers = %v", sig.SignedHeaders)
	}
	for i, name := range want {
		if sig.SignedHeaders[i] != name {
			t.Errorf("signed header %d = %s, want %s", i, sig.SignedHeaders[i], name)
		}
	}
}

func TestParseMissingSignature(t *testing.T) {
	raw := []byte("From: a@example.com\r\nTo: b@example.com\r\n\r\nbody\r\n")

	_, err := email.Parse(raw)
	if !errors.Is(err, email.ErrMissingSignature) {
		t.Fatalf("err = %v, want ErrMissingSignature", err)
	}
}

func TestParseNoBoundary(t *testing.T) {
	_, err := email.Parse([]byte("From: a@example.com\r\nTo: b@example.com\r\n"))
	if !errors.Is(err, email.ErrMalformedEmail) {
		t.Fatalf("err = %v, want ErrMalformedEmail", err)
	}
}

func TestParseUnsupportedAlgorithm(t *testing.T) {
	raw := signedFixture(t, "hi\r\n", "relaxed/relaxed")
	bad := strings.Replace(string(raw), "a=rsa-sha256", "a=rsa-sha1", 1)

	_, err := email.Parse([]byte(bad))
	if !errors.Is(err, email.ErrUnsupportedAlgorithm) {
		t.Fatalf("err = %v, want ErrUnsupportedAlgorithm", err)
	}
}

func TestParseFirstValidSignatureWins(t *testing.T) {
	raw := string(signedFixture(t, "hi\r\n", "relaxed/relaxed"))
	// Prepend a syntactically broken signature; the valid one below must win.
	raw = "DKIM-Signature: v=1; a=rsa-sha256\r\n" + raw

	msg, err := email.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.Signature.Domain != "example.com" {
		t.Errorf("picked wrong signature: d=%s", msg.Signature.Domain)
	}
}

func TestParseDefaultsToSimple(t *testing.T) {
	raw := string(signedFixture(t, "hi\r\n", "relaxed/relaxed"))
	raw = strings.Replace(raw, "c=relaxed/relaxed; ", "", 1)

	msg, err := email.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.Signature.HeaderCanonicalization != email.ModeSimple {
		t.Errorf("header mode = %s, want simple", msg.Signature.HeaderCanonicalization)
	}
	if msg.Signature.BodyCanonicalization != email.ModeSimple {
		t.Errorf("body mode = %s, want simple", msg.Signature.BodyCanonicalization)
	}
}
