// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"log/slog"
	"time"
)

// dnsExchangeLogContext holds the logging state of one DNS exchange
// performed by [*DNSResolver].
type dnsExchangeLogContext struct {
	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// LocalAddr is the local address of the connection.
	LocalAddr string

	// Logger is the SLogger to use.
	Logger SLogger

	// QueryName is the queried name.
	QueryName string

	// QueryType is the queried record type (e.g., "A", "AAAA").
	QueryType string

	// RemoteAddr is the address of the DNS server.
	RemoteAddr string

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time
}

// logStart logs the start of a DNS exchange.
func (lc *dnsExchangeLogContext) logStart(t0 time.Time, deadline time.Time) {
	lc.Logger.Info(
		"dnsExchangeStart",
		slog.Time("deadline", deadline),
		slog.String("dnsQueryName", lc.QueryName),
		slog.String("dnsQueryType", lc.QueryType),
		slog.String("localAddr", lc.LocalAddr),
		slog.String("protocol", "udp"),
		slog.String("remoteAddr", lc.RemoteAddr),
		slog.Time("t", t0),
	)
}

// logDone logs the completion of a DNS exchange.
func (lc *dnsExchangeLogContext) logDone(t0 time.Time, deadline time.Time, err error) {
	lc.Logger.Info(
		"dnsExchangeDone",
		slog.Time("deadline", deadline),
		slog.String("dnsQueryName", lc.QueryName),
		slog.String("dnsQueryType", lc.QueryType),
		slog.Any("err", err),
		slog.String("errClass", lc.ErrClassifier.Classify(err)),
		slog.String("localAddr", lc.LocalAddr),
		slog.String("protocol", "udp"),
		slog.String("remoteAddr", lc.RemoteAddr),
		slog.Time("t0", t0),
		slog.Time("t", lc.TimeNow()),
	)
}

// makeQueryObserver returns a hook logging the raw query sent to the server.
//
// The hook stores the raw query into rqr for the response hook.
func (lc *dnsExchangeLogContext) makeQueryObserver(t0 time.Time, rqr *[]byte) func([]byte) {
	return func(rawQuery []byte) {
		lc.Logger.Info(
			"dnsQuery",
			slog.Any("dnsRawQuery", rawQuery),
			slog.String("localAddr", lc.LocalAddr),
			slog.String("protocol", "udp"),
			slog.String("remoteAddr", lc.RemoteAddr),
			slog.Time("t", t0),
		)
		*rqr = rawQuery
	}
}

// makeResponseObserver returns a hook logging the raw response together
// with the query stored in rqr by the query hook.
func (lc *dnsExchangeLogContext) makeResponseObserver(t0 time.Time, rqr *[]byte) func([]byte) {
	return func(rawResp []byte) {
		lc.Logger.Info(
			"dnsResponse",
			slog.Any("dnsRawQuery", *rqr),
			slog.Any("dnsRawResponse", rawResp),
			slog.String("localAddr", lc.LocalAddr),
			slog.String("protocol", "udp"),
			slog.String("remoteAddr", lc.RemoteAddr),
			slog.Time("t0", t0),
			slog.Time("t", lc.TimeNow()),
		)
	}
}
