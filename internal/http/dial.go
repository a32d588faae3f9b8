package http

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loopdial/loopdial/internal/resolver"
)

// NewDialContext returns a dial function for http.Transport that inspects
// every outgoing connection's target host. Hosts in the localhost family are
// resolved through the localhost-aware resolver and dialed at the literal
// address it picks; all other hosts fall through to base unchanged, keeping
// default name resolution. A nil base gets a plain net.Dialer.
func NewDialContext(r *resolver.Resolver, base resolver.DialFunc, log *logrus.Logger) resolver.DialFunc {
	if base == nil {
		dialer := &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}
		base = dialer.DialContext
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return base(ctx, network, addr)
		}
		if !resolver.IsLocalHost(host) {
			return base(ctx, network, addr)
		}
		portNum, err := strconv.Atoi(port)
		if err != nil {
			return base(ctx, network, addr)
		}

		res := r.Resolve(ctx, host, portNum)
		log.WithFields(logrus.Fields{
			"host":   host,
			"addr":   res.Addr,
			"family": res.Family,
			"port":   portNum,
		}).Debug("dialing localhost-family host via resolved address")

		return base(ctx, network, net.JoinHostPort(res.Addr, port))
	}
}
