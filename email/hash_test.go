package email_test

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/mailproof/mailproof/email"
)

func TestVerifyBodyHash(t *testing.T) {
	canonical, err := email.CanonicalizeBody([]byte("Hello Bob\r\n"), email.ModeRelaxed)
	if err != nil {
		t.Fatal(err)
	}
	digest := email.BodyHash(canonical)

	if err := email.VerifyBodyHash(digest, base64.StdEncoding.EncodeToString(digest)); err != nil {
		t.Fatalf("matching hash rejected: %v", err)
	}

	other := email.BodyHash([]byte("tampered"))
	err = email.VerifyBodyHash(digest, base64.StdEncoding.EncodeToString(other))
	if !errors.Is(err, email.ErrBodyHashMismatch) {
		t.Fatalf("err = %v, want ErrBodyHashMismatch", err)
	}
}

func TestVerifyBodyHashBadEncoding(t *testing.T) {
	if err := email.VerifyBodyHash(make([]byte, 32), "!!not-base64!!"); err == nil {
		t.Fatal("expected error for undecodable bh=")
	}
}

func TestLocateSelector(t *testing.T) {
	body := []byte("preamble\r\n--marker--\r\npayload\r\n--marker--\r\n")

	m, err := email.LocateSelector(body, `--marker--`)
	if err != nil {
		t.Fatal(err)
	}
	if string(body[m.Start:m.End]) != "--marker--" {
		t.Errorf("match = %q", body[m.Start:m.End])
	}
	if m.Start != 10 {
		t.Errorf("first occurrence must win, start = %d", m.Start)
	}

	// Deterministic: same input, same offsets.
	again, err := email.LocateSelector(body, `--marker--`)
	if err != nil {
		t.Fatal(err)
	}
	if again != m {
		t.Errorf("non-deterministic match: %v != %v", again, m)
	}
}

func TestLocateSelectorNotFound(t *testing.T) {
	_, err := email.LocateSelector([]byte("nothing here"), `--marker--`)
	if !errors.Is(err, email.ErrSelectorNotFound) {
		t.Fatalf("err = %v, want ErrSelectorNotFound", err)
	}
}

func TestLocateSelectorBadRule(t *testing.T) {
	_, err := email.LocateSelector([]byte("x"), `([`)
	if err == nil {
		t.Fatal("expected compile error for bad rule")
	}
}

func TestDecodeQuotedPrintable(t *testing.T) {
	out, err := email.DecodeQuotedPrintable([]byte("caf=C3=A9=20au=20lait\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "café au lait\r\n" {
		t.Errorf("decoded = %q", out)
	}
}

func TestHeaderIndex(t *testing.T) {
	block := []byte("from:alice@example.com\r\nto:bob@example.com\r\nsubject:Hi there\r\ndate:now")

	if got := email.HeaderIndex(block, "Subject"); got != 44 {
		t.Errorf("subject index = %d, want 44", got)
	}
	if got := email.HeaderIndex(block, "from"); got != 0 {
		t.Errorf("from index = %d, want 0", got)
	}
	if got := email.HeaderIndex(block, "cc"); got != -1 {
		t.Errorf("missing header index = %d, want -1", got)
	}
}
