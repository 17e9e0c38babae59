package email_test

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mailproof/mailproof/email"
)

// signedFixture builds a wire-format message whose bh= tag is computed over
// the canonical body, so body-hash verification passes. The b= value is a
// fixed placeholder: signature bytes are carried into the witness, never
// verified natively.
func signedFixture(t interface{ Fatalf(string, ...any) }, body string, canon string) []byte {
	canonical, err := email.CanonicalizeBody([]byte(body), strings.Split(canon, "/")[1])
	if err != nil {
		t.Fatalf("canonicalize fixture body: %v", err)
	}
	bh := base64.StdEncoding.EncodeToString(email.BodyHash(canonical))
	b := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("\x2a", 64)))

	headers := strings.Join([]string{
		"From: Alice <alice@example.com>\r\n",
		"To: relayer@example.org\r\n",
		"Subject: Confirm account recovery\r\n",
		"Date: Mon, 02 Jan 2023 15:04:05 +0000\r\n",
		fmt.Sprintf("DKIM-Signature: v=1; a=rsa-sha256; c=%s; d=example.com;\r\n"+
			"\ts=mail; h=from:to:subject:date;\r\n"+
			"\tbh=%s;\r\n"+
			"\tb=%s\r\n", canon, bh, b),
	}, "")

	return []byte(headers + "\r\n" + body)
}
