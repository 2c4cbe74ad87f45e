// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"time"

	"github.com/bassosimone/dnscodec"
	"github.com/bassosimone/minest"
	"github.com/bassosimone/runtimex"
	"github.com/bassosimone/safeconn"
	"github.com/miekg/dns"
)

// NewDNSResolver returns a new [*DNSResolver] querying server.
//
// The cfg argument contains the common configuration for handoff operations.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewDNSResolver(cfg *Config, server netip.AddrPort, logger SLogger) *DNSResolver {
	runtimex.Assert(server.IsValid())
	return &DNSResolver{
		Dialer:        cfg.Dialer,
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		Server:        server,
		TimeNow:       cfg.TimeNow,
	}
}

// DNSResolver is a [Resolver] sending A and AAAA queries over UDP to an
// explicit DNS server, bypassing the system resolver configuration.
//
// Use it as [Config.Resolver] when the successor generation runs where the
// system configuration is missing or not trusted (e.g., inside a chroot).
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with calls to [LookupNetIP].
type DNSResolver struct {
	// Dialer is the [Dialer] to use.
	//
	// Set by [NewDNSResolver] from [Config.Dialer].
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewDNSResolver] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewDNSResolver] to the user-provided logger.
	Logger SLogger

	// Server is the address of the DNS server.
	//
	// Set by [NewDNSResolver] to the user-provided value.
	Server netip.AddrPort

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewDNSResolver] from [Config.TimeNow].
	TimeNow func() time.Time
}

var _ Resolver = &DNSResolver{}

// LookupNetIP implements [Resolver].
//
// The network must be "ip" (AAAA then A), "ip6" (AAAA) or "ip4" (A). A failed
// query is ignored when the other one returns addresses.
func (r *DNSResolver) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	var qtypes []uint16
	switch network {
	case "ip":
		qtypes = []uint16{dns.TypeAAAA, dns.TypeA}
	case "ip6":
		qtypes = []uint16{dns.TypeAAAA}
	case "ip4":
		qtypes = []uint16{dns.TypeA}
	default:
		return nil, net.UnknownNetworkError(network)
	}

	var (
		addrs []netip.Addr
		errs  []error
	)
	for _, qtype := range qtypes {
		found, err := r.exchange(ctx, host, qtype)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		addrs = append(addrs, found...)
	}
	if len(addrs) == 0 {
		if !dnsAllNotFound(errs) {
			return nil, errors.Join(errs...)
		}
		return nil, &net.DNSError{Err: "no such host", Name: host, Server: r.Server.String(), IsNotFound: true}
	}
	return addrs, nil
}

// dnsAllNotFound returns whether every error says the name has no records.
func dnsAllNotFound(errs []error) bool {
	for _, err := range errs {
		if !errors.Is(err, dnscodec.ErrNoData) && !errors.Is(err, dnscodec.ErrNoName) {
			return false
		}
	}
	return true
}

// exchange sends a single query and returns the addresses in the answer.
func (r *DNSResolver) exchange(ctx context.Context, host string, qtype uint16) ([]netip.Addr, error) {
	txp := minest.NewDNSOverUDPTransport(r.Dialer, r.Server)
	conn, err := txp.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	// The transport only honors deadlines: close the conn on cancel.
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	t0 := r.TimeNow()
	deadline, _ := ctx.Deadline()
	var rqr []byte
	lc := &dnsExchangeLogContext{
		ErrClassifier: r.ErrClassifier,
		LocalAddr:     safeconn.LocalAddr(conn),
		Logger:        r.Logger,
		QueryName:     dns.Fqdn(host),
		QueryType:     dns.TypeToString[qtype],
		RemoteAddr:    safeconn.RemoteAddr(conn),
		TimeNow:       r.TimeNow,
	}
	txp.ObserveRawQuery = lc.makeQueryObserver(t0, &rqr)
	txp.ObserveRawResponse = lc.makeResponseObserver(t0, &rqr)

	lc.logStart(t0, deadline)
	resp, err := txp.ExchangeWithConn(ctx, conn, dnscodec.NewQuery(host, qtype))
	lc.logDone(t0, deadline, err)
	if err != nil {
		return nil, err
	}
	return dnsResponseAddrs(resp, qtype)
}

// dnsResponseAddrs returns the A or AAAA addresses of a validated response.
func dnsResponseAddrs(resp *dnscodec.Response, qtype uint16) ([]netip.Addr, error) {
	records := resp.RecordsA
	if qtype == dns.TypeAAAA {
		records = resp.RecordsAAAA
	}
	values, err := records()
	if err != nil {
		return nil, err
	}
	addrs := make([]netip.Addr, 0, len(values))
	for _, value := range values {
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr.Unmap())
	}
	return addrs, nil
}
