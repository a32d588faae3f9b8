package resolver

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultProbeTimeout bounds each connectivity probe so a resolution can
// never stall longer than the probes it performs. Three seconds is generous
// for a loopback connect, which either succeeds or is refused within
// microseconds; the bound only matters for pathological hosts-file entries
// that point somewhere unroutable.
const DefaultProbeTimeout = 3 * time.Second

// Resolution is the outcome of a localhost-family lookup: a literal IP
// address and the address family it belongs to (4 or 6).
type Resolution struct {
	Addr   string
	Family int
}

// Lookuper performs a system name lookup. net.DefaultResolver satisfies it;
// tests substitute fakes.
type Lookuper interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DialFunc opens a network connection. It matches the signature of
// net.Dialer.DialContext so the default just delegates there.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Resolver decides, for a hostname in the localhost family, which loopback
// address to actually connect to. A hosts-file entry may map localhost to an
// address whose family has no listener (e.g. the name resolves to 127.0.0.1
// but the server only listens on ::1), so a successful name lookup alone is
// not trusted: candidates are probed for TCP reachability before being
// returned.
type Resolver struct {
	lookup  Lookuper
	dial    DialFunc
	cache   *ProbeCache
	timeout time.Duration
	log     *logrus.Logger
}

// Option is a function that configures a Resolver.
type Option func(*Resolver)

// New creates a Resolver with the given options. With no options it uses the
// system resolver, a plain TCP dialer, a fresh probe cache and the default
// probe timeout.
func New(options ...Option) *Resolver {
	r := &Resolver{
		lookup:  net.DefaultResolver,
		cache:   NewProbeCache(),
		timeout: DefaultProbeTimeout,
		log:     logrus.StandardLogger(),
	}

	for _, option := range options {
		option(r)
	}

	if r.dial == nil {
		dialer := &net.Dialer{}
		r.dial = dialer.DialContext
	}

	return r
}

// WithLookuper replaces the system name lookup.
func WithLookuper(l Lookuper) Option {
	return func(r *Resolver) {
		r.lookup = l
	}
}

// WithDialFunc replaces the dialer used for connectivity probes.
func WithDialFunc(dial DialFunc) Option {
	return func(r *Resolver) {
		r.dial = dial
	}
}

// WithCache supplies an explicit probe cache, letting callers share one
// across resolvers or reset it between tests.
func WithCache(cache *ProbeCache) Option {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// WithProbeTimeout overrides the per-probe connect timeout.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = timeout
	}
}

// WithLogger sets the logger used for resolution traces.
func WithLogger(log *logrus.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// Cache returns the resolver's probe cache.
func (r *Resolver) Cache() *ProbeCache {
	return r.cache
}

// IsLocalHost reports whether a hostname belongs to the localhost family:
// its top-level label (the part after the last dot, or the whole name) is
// "localhost", or the host is the literal loopback address 127.0.0.1 or ::1.
// The label match is case-sensitive. Bracketed IPv6 literals are accepted
// because callers may pass hosts straight out of a host:port split.
func IsLocalHost(host string) bool {
	if h := strings.TrimSuffix(strings.TrimPrefix(host, "["), "]"); h == "127.0.0.1" || h == "::1" {
		return true
	}

	label := host
	if i := strings.LastIndexByte(host, '.'); i >= 0 {
		label = host[i+1:]
	}
	return label == "localhost"
}

// PortForURL returns the port a request to u will connect to: the explicit
// port when present, otherwise 443 for https and 80 for everything else.
func PortForURL(u *url.URL) int {
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			return n
		}
	}
	if u.Scheme == "https" {
		return 443
	}
	return 80
}

// Resolve maps a localhost-family hostname to a literal address for the given
// port. It never fails:
//
//  1. The host is looked up with the system resolver. If that yields an
//     address with a live listener on the target port, that address wins.
//  2. Otherwise ::1 is probed and returned if something listens there.
//  3. Otherwise 127.0.0.1 is returned without probing. The caller needs an
//     address to attempt regardless of probe outcomes; a genuine connection
//     failure surfaces from the actual connect, not from resolution.
func (r *Resolver) Resolve(ctx context.Context, host string, port int) Resolution {
	addrs, err := r.lookup.LookupHost(ctx, host)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"host": host,
		}).WithError(err).Debug("system lookup failed, trying loopback candidates")
	} else if len(addrs) > 0 {
		addr := addrs[0]
		if r.Probe(ctx, addr, port) {
			res := Resolution{Addr: addr, Family: familyOf(addr)}
			r.log.WithFields(logrus.Fields{
				"host":   host,
				"addr":   res.Addr,
				"family": res.Family,
			}).Debug("resolved via system lookup")
			return res
		}
		r.log.WithFields(logrus.Fields{
			"host": host,
			"addr": addr,
			"port": port,
		}).Debug("no listener on looked-up address, trying loopback candidates")
	}

	if r.Probe(ctx, "::1", port) {
		r.log.WithFields(logrus.Fields{
			"host": host,
			"port": port,
		}).Debug("resolved to ::1")
		return Resolution{Addr: "::1", Family: 6}
	}

	// Final fallback, deliberately unprobed.
	return Resolution{Addr: "127.0.0.1", Family: 4}
}

// Probe reports whether a TCP connection to (host, port) can be opened within
// the probe timeout. The connection is closed immediately on success. A
// success is cached for the life of the cache; a failure is never cached,
// since a previously-down service may come up later (common during process
// startup when servers race each other).
func (r *Resolver) Probe(ctx context.Context, host string, port int) bool {
	key := net.JoinHostPort(host, strconv.Itoa(port))
	if r.cache.Hit(key) {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	conn, err := r.dial(ctx, "tcp", key)
	if err != nil {
		return false
	}
	conn.Close()

	r.cache.Put(key)
	return true
}

// familyOf classifies a literal IP address as 4 or 6. Anything unparseable is
// reported as 4; the subsequent connect will fail loudly on its own.
func familyOf(addr string) int {
	if ip := net.ParseIP(addr); ip != nil && ip.To4() == nil {
		return 6
	}
	return 4
}
