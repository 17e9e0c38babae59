package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strings"
)

var ErrNoKeyRecord = errors.New("no DKIM key record")

// KeyProvider supplies the signing domain's public key material. Injected so
// the pipeline can run offline in tests and against pinned keys.
type KeyProvider interface {
	PublicKey(ctx context.Context, domain, selector string) ([]byte, error)
}

// DNSKeyProvider resolves the conventional TXT record at
// <selector>._domainkey.<domain> and returns the decoded p= value.
type DNSKeyProvider struct {
	Resolver *net.Resolver
}

func (p *DNSKeyProvider) PublicKey(ctx context.Context, domain, selector string) ([]byte, error) {
	resolver := p.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	name := fmt.Sprintf("%s._domainkey.%s", selector, domain)
	records, err := resolver.LookupTXT(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", name, err)
	}

	for _, record := range records {
		for _, tag := range strings.Split(record, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(tag), "=")
			if !ok || strings.TrimSpace(k) != "p" {
				continue
			}
			key, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(v, " ", ""))
			if err != nil {
				return nil, fmt.Errorf("bad p= value in %s: %w", name, err)
			}
			if len(key) == 0 {
				// An empty p= means the key was revoked.
				return nil, fmt.Errorf("%w: key at %s is revoked", ErrNoKeyRecord, name)
			}
			return key, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoKeyRecord, name)
}

// StaticKeyProvider returns a fixed key for every domain. Used in tests and
// for offline invocations with a caller-supplied key file.
type StaticKeyProvider struct {
	Key []byte
}

func (p *StaticKeyProvider) PublicKey(ctx context.Context, domain, selector string) ([]byte, error) {
	if len(p.Key) == 0 {
		return nil, ErrNoKeyRecord
	}
	return p.Key, nil
}
