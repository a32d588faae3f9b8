package http

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopdial/loopdial/internal/resolver"
)

// recordingDialer remembers every address it was asked to dial and fails the
// dial so no real connection is attempted.
type recordingDialer struct {
	addrs []string
}

func (d *recordingDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	d.addrs = append(d.addrs, addr)
	return nil, errors.New("recording dialer")
}

// deadLookuper fails every lookup, forcing the resolver onto its loopback
// candidates.
type deadLookuper struct{}

func (deadLookuper) LookupHost(ctx context.Context, host string) ([]string, error) {
	return nil, errors.New("no such host")
}

func TestNewDialContext_NonLocalhostPassesThrough(t *testing.T) {
	base := &recordingDialer{}
	r := resolver.New(
		resolver.WithLookuper(deadLookuper{}),
		resolver.WithDialFunc(base.DialContext),
		resolver.WithLogger(quietLogger()),
	)
	dial := NewDialContext(r, base.DialContext, quietLogger())

	_, err := dial(context.Background(), "tcp", "example.com:80")
	require.Error(t, err)

	// The hook never consulted the resolver: exactly one dial, to the
	// original address.
	assert.Equal(t, []string{"example.com:80"}, base.addrs)
}

func TestNewDialContext_LocalhostIsSubstituted(t *testing.T) {
	base := &recordingDialer{}
	r := resolver.New(
		resolver.WithLookuper(deadLookuper{}),
		resolver.WithDialFunc(base.DialContext),
		resolver.WithLogger(quietLogger()),
	)
	dial := NewDialContext(r, base.DialContext, quietLogger())

	_, err := dial(context.Background(), "tcp", "sub.localhost:9000")
	require.Error(t, err)

	// Lookup failed and the ::1 probe failed, so the connection goes to the
	// unprobed IPv4 fallback.
	require.NotEmpty(t, base.addrs)
	assert.Equal(t, "127.0.0.1:9000", base.addrs[len(base.addrs)-1])
	assert.NotContains(t, base.addrs, "sub.localhost:9000")
}

func TestNewDialContext_MalformedAddressPassesThrough(t *testing.T) {
	base := &recordingDialer{}
	r := resolver.New(resolver.WithLogger(quietLogger()))
	dial := NewDialContext(r, base.DialContext, quietLogger())

	_, err := dial(context.Background(), "tcp", "noport")
	require.Error(t, err)
	assert.Equal(t, []string{"noport"}, base.addrs)
}
