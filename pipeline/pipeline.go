package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mailproof/mailproof/email"
	"github.com/mailproof/mailproof/witness"
)

// Pipeline transforms raw emails into circuit inputs. It holds no per-email
// state: Generate may be called concurrently for distinct emails.
type Pipeline struct {
	keys KeyProvider
	log  *slog.Logger
}

func New(keys KeyProvider, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{keys: keys, log: log}
}

// Generate runs the full transformation for one email. Every failure is
// attributed to its stage; nothing is retried.
func (p *Pipeline) Generate(ctx context.Context, raw []byte, accountCode string, cfg Config) (*witness.CircuitInput, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	code, err := witness.ParseAccountCode(accountCode)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	msg, err := email.Parse(raw)
	if err != nil {
		return nil, stageErr(StageParse, err)
	}
	sig := msg.Signature

	canonicalHeader, err := email.CanonicalizeHeaders(msg.Headers, sig.HeaderCanonicalization, sig)
	if err != nil {
		return nil, stageErr(StageCanonicalize, err)
	}

	pubkey, err := p.keys.PublicKey(ctx, sig.Domain, sig.Selector)
	if err != nil {
		return nil, stageErr(StageKey, err)
	}
	sigBytes, err := base64.StdEncoding.DecodeString(sig.SignatureB64)
	if err != nil {
		return nil, stageErr(StageParse, fmt.Errorf("bad b= encoding: %w", err))
	}

	bind := witness.Binding{AccountCode: code, Pubkey: pubkey, Signature: sigBytes}
	header := witness.HeaderArtifacts{Canonical: canonicalHeader, MaxLength: maxHeaderLength(cfg)}

	switch c := cfg.(type) {
	case HeaderOnlyConfig:
		// The body never reaches the witness, but the declared bh= must
		// still hold for the signature to mean anything.
		if _, err := p.verifiedBody(msg, c.IgnoreBodyHashCheck); err != nil {
			return nil, err
		}
		in, err := witness.AssembleHeaderOnly(header, bind)
		return in, assembleErr(err)

	case HeaderAndBodyConfig:
		body, err := p.prepareBody(msg, c)
		if err != nil {
			return nil, err
		}
		body.SubjectIndex = email.HeaderIndex(canonicalHeader, "subject")
		in, err := witness.AssembleHeaderBody(header, *body, bind)
		return in, assembleErr(err)
	}
	return nil, fmt.Errorf("config: unknown variant %T", cfg)
}

// assembleErr splits capacity failures out of the assembly stage so callers
// see which limit was hit.
func assembleErr(err error) error {
	if errors.Is(err, witness.ErrCapacityExceeded) {
		return stageErr(StageEncode, err)
	}
	return stageErr(StageAssemble, err)
}

// verifiedBody canonicalizes the body and checks it against the declared
// bh= digest. Only the explicit ignore flag downgrades a mismatch to a
// warning.
func (p *Pipeline) verifiedBody(msg *email.Message, ignore bool) ([]byte, error) {
	sig := msg.Signature

	canonical, err := email.CanonicalizeBody(msg.Body, sig.BodyCanonicalization)
	if err != nil {
		return nil, stageErr(StageCanonicalize, err)
	}

	if err := email.VerifyBodyHash(email.BodyHash(canonical), sig.BodyHashB64); err != nil {
		if !ignore {
			return nil, stageErr(StageHash, err)
		}
		p.log.Warn("body hash mismatch ignored", "domain", sig.Domain, "error", err)
	}
	return canonical, nil
}

// prepareBody verifies the canonical body, then applies transport decoding
// and selector matching.
func (p *Pipeline) prepareBody(msg *email.Message, cfg HeaderAndBodyConfig) (*witness.BodyArtifacts, error) {
	canonical, err := p.verifiedBody(msg, cfg.IgnoreBodyHashCheck)
	if err != nil {
		return nil, err
	}

	content := canonical
	if cfg.DecodeQuotedPrintable {
		content, err = email.DecodeQuotedPrintable(canonical)
		if err != nil {
			return nil, stageErr(StageCanonicalize, err)
		}
	}

	artifacts := &witness.BodyArtifacts{
		Content:   content,
		MaxLength: cfg.MaxBodyLength,
	}
	if cfg.SelectorRule != "" {
		match, err := email.LocateSelector(content, cfg.SelectorRule)
		if err != nil {
			return nil, stageErr(StageSelect, err)
		}
		artifacts.Selector = &match
	}
	return artifacts, nil
}

func maxHeaderLength(cfg Config) int {
	switch c := cfg.(type) {
	case HeaderOnlyConfig:
		return c.MaxHeaderLength
	case HeaderAndBodyConfig:
		return c.MaxHeaderLength
	}
	return 0
}
