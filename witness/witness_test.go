package witness_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/mailproof/mailproof/email"
	"github.com/mailproof/mailproof/witness"
)

func TestEncodeFixedRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 31, 64} {
		in := bytes.Repeat([]byte{0xAB}, n)
		for i := range in {
			in[i] = byte(i * 7)
		}

		fields, err := witness.EncodeFixed(in, 64)
		if err != nil {
			t.Fatalf("len %d: %v", n, err)
		}
		if len(fields) != 64 {
			t.Fatalf("array size = %d, want 64", len(fields))
		}
		out, err := witness.DecodeFixed(fields, n)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out, in) {
			t.Errorf("round trip failed for len %d", n)
		}
		for _, f := range fields[n:] {
			if f != "0" {
				t.Fatalf("padding slot = %q, want 0", f)
			}
		}
	}
}

func TestEncodeFixedCapacityExceeded(t *testing.T) {
	_, err := witness.EncodeFixed(make([]byte, 65), 64)
	if !errors.Is(err, witness.ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
}

func TestParseAccountCode(t *testing.T) {
	code, err := witness.ParseAccountCode("0x01ab")
	if err != nil {
		t.Fatal(err)
	}
	if code.Int64() != 0x1ab {
		t.Errorf("code = %v", code)
	}

	if _, err := witness.ParseAccountCode("zzz"); err == nil {
		t.Error("non-hex code accepted")
	}
	if _, err := witness.ParseAccountCode(""); err == nil {
		t.Error("empty code accepted")
	}
	// One above the BN254 scalar field modulus.
	over := "30644e72e131a029b85045b68181585d2833e84879b9709143e1f593f0000002"
	if _, err := witness.ParseAccountCode(over); err == nil {
		t.Error("out-of-field code accepted")
	}
}

func TestAccountCommitmentDeterministic(t *testing.T) {
	code := big.NewInt(123456789)
	a := witness.AccountCommitment(code)
	b := witness.AccountCommitment(code)
	if a.Cmp(b) != 0 {
		t.Error("commitment not deterministic")
	}
	if a.Sign() == 0 {
		t.Error("commitment is zero")
	}
	if a.Cmp(witness.AccountCommitment(big.NewInt(987))) == 0 {
		t.Error("distinct codes collide")
	}
}

func testBinding() witness.Binding {
	return witness.Binding{
		AccountCode: big.NewInt(42),
		Pubkey:      bytes.Repeat([]byte{1}, 256),
		Signature:   bytes.Repeat([]byte{2}, 256),
	}
}

func TestAssembleHeaderOnly(t *testing.T) {
	in, err := witness.AssembleHeaderOnly(witness.HeaderArtifacts{
		Canonical: []byte("from:alice@example.com\r\nsubject:hi"),
		MaxLength: 1024,
	}, testBinding())
	if err != nil {
		t.Fatal(err)
	}

	if len(in.EmailHeader) != 1024 {
		t.Errorf("header array = %d, want 1024", len(in.EmailHeader))
	}
	if in.EmailHeaderLength != "34" {
		t.Errorf("header length = %s", in.EmailHeaderLength)
	}
	if in.HasBody() {
		t.Error("header-only witness carries body fields")
	}
	if in.SubjectIndex != "" {
		t.Error("subjectIndex present in header-only variant")
	}
	if in.AccountCommitment == "" || in.AccountCommitment == "0" {
		t.Error("missing account commitment")
	}
}

func TestAssembleHeaderBody(t *testing.T) {
	body := []byte("payload with --marker-- inside\r\n")
	in, err := witness.AssembleHeaderBody(
		witness.HeaderArtifacts{Canonical: []byte("subject:hi"), MaxLength: 64},
		witness.BodyArtifacts{
			Content:      body,
			MaxLength:    128,
			Selector:     &email.Match{Start: 13, End: 23},
			SubjectIndex: 0,
		},
		testBinding(),
	)
	if err != nil {
		t.Fatal(err)
	}

	if len(in.EmailBody) != 128 {
		t.Errorf("body array = %d, want 128", len(in.EmailBody))
	}
	if in.PaddedBodyLength != "128" {
		t.Errorf("paddedBodyLength = %s", in.PaddedBodyLength)
	}
	if in.SelectorStart != "13" || in.SelectorEnd != "23" {
		t.Errorf("selector = [%s,%s)", in.SelectorStart, in.SelectorEnd)
	}
	if in.SubjectIndex != "0" {
		t.Errorf("subjectIndex = %s", in.SubjectIndex)
	}
}

func TestAssembleMissingFields(t *testing.T) {
	h := witness.HeaderArtifacts{Canonical: []byte("subject:hi"), MaxLength: 64}

	_, err := witness.AssembleHeaderBody(h, witness.BodyArtifacts{MaxLength: 64}, testBinding())
	if !errors.Is(err, witness.ErrMissingField) {
		t.Errorf("nil body: err = %v", err)
	}

	bind := testBinding()
	bind.Pubkey = nil
	_, err = witness.AssembleHeaderOnly(h, bind)
	if !errors.Is(err, witness.ErrMissingField) {
		t.Errorf("nil pubkey: err = %v", err)
	}

	bind = testBinding()
	bind.AccountCode = nil
	_, err = witness.AssembleHeaderOnly(h, bind)
	if !errors.Is(err, witness.ErrMissingField) {
		t.Errorf("nil account code: err = %v", err)
	}
}

func TestAssembleSelectorBounds(t *testing.T) {
	_, err := witness.AssembleHeaderBody(
		witness.HeaderArtifacts{Canonical: []byte("subject:hi"), MaxLength: 64},
		witness.BodyArtifacts{
			Content:      []byte("short"),
			MaxLength:    64,
			Selector:     &email.Match{Start: 2, End: 99},
			SubjectIndex: -1,
		},
		testBinding(),
	)
	if err == nil {
		t.Fatal("out-of-range selector accepted")
	}
}

func TestAssembleDeterministicJSON(t *testing.T) {
	h := witness.HeaderArtifacts{Canonical: []byte("subject:hi"), MaxLength: 64}

	a, err := witness.AssembleHeaderOnly(h, testBinding())
	if err != nil {
		t.Fatal(err)
	}
	b, err := witness.AssembleHeaderOnly(h, testBinding())
	if err != nil {
		t.Fatal(err)
	}

	aj, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	bj, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(aj, bj) {
		t.Error("witness JSON not byte-identical across runs")
	}
}
