// Package pipeline drives the email-to-witness transformation: parse,
// canonicalize, hash, select, encode and assemble.
package pipeline

import "fmt"

// Config selects the circuit variant and its limits. Exactly two
// implementations exist; the variant decides which witness fields are
// produced, so the choice is explicit rather than a bag of optional fields.
type Config interface {
	validate() error
	variant() string
}

// HeaderOnlyConfig authenticates the signed headers without exposing any
// body content to the circuit.
type HeaderOnlyConfig struct {
	MaxHeaderLength     int
	IgnoreBodyHashCheck bool
}

func (c HeaderOnlyConfig) variant() string { return "email-auth" }

func (c HeaderOnlyConfig) validate() error {
	if c.MaxHeaderLength <= 0 {
		return fmt.Errorf("max header length must be positive, got %d", c.MaxHeaderLength)
	}
	return nil
}

// HeaderAndBodyConfig additionally exposes the canonical body, an optional
// transport decoding step and an optional selector region.
type HeaderAndBodyConfig struct {
	MaxHeaderLength       int
	MaxBodyLength         int
	IgnoreBodyHashCheck   bool
	DecodeQuotedPrintable bool

	// SelectorRule, when non-empty, is a regular expression locating the
	// body region to expose. The first match wins.
	SelectorRule string
}

func (c HeaderAndBodyConfig) variant() string { return "email-auth-body" }

func (c HeaderAndBodyConfig) validate() error {
	if c.MaxHeaderLength <= 0 {
		return fmt.Errorf("max header length must be positive, got %d", c.MaxHeaderLength)
	}
	if c.MaxBodyLength <= 0 {
		return fmt.Errorf("max body length must be positive, got %d", c.MaxBodyLength)
	}
	return nil
}

// CircuitName returns the name of the circuit variant a config targets.
func CircuitName(cfg Config) string { return cfg.variant() }
