package resolver

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLocalHost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"localhost", true},
		{"sub.localhost", true},
		{"a.b.c.localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"[::1]", true},
		{"example.com", false},
		{"localhost.example.com", false},
		{"notlocalhost", false},
		{"LOCALHOST", false},
		{"sub.LOCALHOST", false},
		{"127.0.0.2", false},
		{"::2", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLocalHost(tt.host))
		})
	}
}

func TestPortForURL(t *testing.T) {
	tests := []struct {
		rawURL   string
		expected int
	}{
		{"http://localhost:8080/x", 8080},
		{"https://localhost:8443/", 8443},
		{"http://localhost/", 80},
		{"https://localhost/", 443},
		{"http://sub.localhost", 80},
		{"ftp://localhost", 80},
	}

	for _, tt := range tests {
		t.Run(tt.rawURL, func(t *testing.T) {
			u, err := url.Parse(tt.rawURL)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, PortForURL(u))
		})
	}
}

// fakeLookuper returns a fixed answer for every host.
type fakeLookuper struct {
	addrs []string
	err   error
}

func (f *fakeLookuper) LookupHost(ctx context.Context, host string) ([]string, error) {
	return f.addrs, f.err
}

// fakeDialer succeeds only for addresses in its live set and counts every
// dial attempt per address.
type fakeDialer struct {
	live  map[string]bool
	dials map[string]int
}

func newFakeDialer(live ...string) *fakeDialer {
	d := &fakeDialer{
		live:  make(map[string]bool),
		dials: make(map[string]int),
	}
	for _, addr := range live {
		d.live[addr] = true
	}
	return d
}

func (d *fakeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.dials[address]++
	if d.live[address] {
		client, server := net.Pipe()
		go server.Close()
		return client, nil
	}
	return nil, errors.New("connection refused")
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		lookup   *fakeLookuper
		live     []string
		port     int
		expected Resolution
	}{
		{
			name:     "lookup address has a live listener",
			lookup:   &fakeLookuper{addrs: []string{"127.0.0.1"}},
			live:     []string{"127.0.0.1:8080"},
			port:     8080,
			expected: Resolution{Addr: "127.0.0.1", Family: 4},
		},
		{
			name:     "lookup returns IPv6 with a live listener",
			lookup:   &fakeLookuper{addrs: []string{"::1"}},
			live:     []string{"[::1]:8080"},
			port:     8080,
			expected: Resolution{Addr: "::1", Family: 6},
		},
		{
			name:     "lookup address dead, IPv6 loopback listens",
			lookup:   &fakeLookuper{addrs: []string{"127.0.0.1"}},
			live:     []string{"[::1]:9000"},
			port:     9000,
			expected: Resolution{Addr: "::1", Family: 6},
		},
		{
			name:     "lookup fails, IPv6 loopback listens",
			lookup:   &fakeLookuper{err: errors.New("no such host")},
			live:     []string{"[::1]:9000"},
			port:     9000,
			expected: Resolution{Addr: "::1", Family: 6},
		},
		{
			name:     "lookup fails, nothing listens, unprobed IPv4 fallback",
			lookup:   &fakeLookuper{err: errors.New("no such host")},
			live:     nil,
			port:     7777,
			expected: Resolution{Addr: "127.0.0.1", Family: 4},
		},
		{
			name:     "lookup empty, nothing listens",
			lookup:   &fakeLookuper{addrs: []string{}},
			live:     nil,
			port:     7777,
			expected: Resolution{Addr: "127.0.0.1", Family: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialer := newFakeDialer(tt.live...)
			r := New(
				WithLookuper(tt.lookup),
				WithDialFunc(dialer.DialContext),
				WithLogger(quietLogger()),
			)

			got := r.Resolve(context.Background(), "localhost", tt.port)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveFinalFallbackNotProbed(t *testing.T) {
	dialer := newFakeDialer() // nothing live
	r := New(
		WithLookuper(&fakeLookuper{err: errors.New("no such host")}),
		WithDialFunc(dialer.DialContext),
		WithLogger(quietLogger()),
	)

	got := r.Resolve(context.Background(), "localhost", 7777)
	assert.Equal(t, Resolution{Addr: "127.0.0.1", Family: 4}, got)

	// Only ::1 was probed; the 127.0.0.1 fallback is returned blind.
	assert.Equal(t, 1, dialer.dials["[::1]:7777"])
	assert.Zero(t, dialer.dials["127.0.0.1:7777"])
}

func TestProbeCachesSuccesses(t *testing.T) {
	dialer := newFakeDialer("127.0.0.1:8080")
	r := New(
		WithDialFunc(dialer.DialContext),
		WithLogger(quietLogger()),
	)

	require.True(t, r.Probe(context.Background(), "127.0.0.1", 8080))
	require.True(t, r.Probe(context.Background(), "127.0.0.1", 8080))

	// Second call is served from the cache without a new connection attempt.
	assert.Equal(t, 1, dialer.dials["127.0.0.1:8080"])
	assert.Equal(t, 1, r.Cache().Len())
}

func TestProbeNeverCachesFailures(t *testing.T) {
	dialer := newFakeDialer()
	r := New(
		WithDialFunc(dialer.DialContext),
		WithLogger(quietLogger()),
	)

	require.False(t, r.Probe(context.Background(), "127.0.0.1", 8080))
	require.False(t, r.Probe(context.Background(), "127.0.0.1", 8080))

	// Each failed probe performs a fresh connection attempt.
	assert.Equal(t, 2, dialer.dials["127.0.0.1:8080"])
	assert.Zero(t, r.Cache().Len())

	// Once the service comes up, the next probe succeeds and is cached.
	dialer.live["127.0.0.1:8080"] = true
	require.True(t, r.Probe(context.Background(), "127.0.0.1", 8080))
	require.True(t, r.Probe(context.Background(), "127.0.0.1", 8080))
	assert.Equal(t, 3, dialer.dials["127.0.0.1:8080"])
}

func TestProbeAgainstRealListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	r := New(
		WithProbeTimeout(2*time.Second),
		WithLogger(quietLogger()),
	)

	assert.True(t, r.Probe(context.Background(), "127.0.0.1", port))

	// Closing the listener does not invalidate the cached success.
	ln.Close()
	assert.True(t, r.Probe(context.Background(), "127.0.0.1", port))
}

func TestResolveAgainstRealListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	r := New(WithLogger(quietLogger()))

	// Whether the system resolves localhost to 127.0.0.1 (probe succeeds) or
	// to ::1 first (probe fails, ::1 re-probe fails, final fallback), only
	// the IPv4 listener exists, so the answer is the same.
	got := r.Resolve(context.Background(), "localhost", port)
	assert.Equal(t, Resolution{Addr: "127.0.0.1", Family: 4}, got)

	conn, err := net.Dial("tcp", net.JoinHostPort(got.Addr, strconv.Itoa(port)))
	require.NoError(t, err)
	conn.Close()
}
