// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"context"
	"log/slog"
	"net"
	"net/netip"
	"testing"

	"github.com/bassosimone/netstub"
	"github.com/bassosimone/slogstub"
	"github.com/stretchr/testify/require"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// recordMessages returns the messages of the captured records.
func recordMessages(records []slog.Record) []string {
	var messages []string
	for _, record := range records {
		messages = append(messages, record.Message)
	}
	return messages
}

// recordAttr returns the value of the named attribute of record.
func recordAttr(record slog.Record, name string) (slog.Value, bool) {
	var (
		value slog.Value
		found bool
	)
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == name {
			value, found = attr.Value, true
			return false
		}
		return true
	})
	return value, found
}

// platformStub is a [Platform] with fixed capabilities.
type platformStub struct {
	dualStack bool
	reusePort bool
}

var _ Platform = platformStub{}

func (p platformStub) DualStackSupported() bool {
	return p.dualStack
}

func (p platformStub) ReusePortSupported() bool {
	return p.reusePort
}

// newTestConfig returns a [*Config] using the given platform and a resolver
// failing the test when invoked.
func newTestConfig(t *testing.T, platform Platform) *Config {
	cfg := NewConfig()
	cfg.Platform = platform
	cfg.Resolver = ResolverFunc(func(ctx context.Context, network, host string) ([]netip.Addr, error) {
		t.Fatalf("unexpected resolution of %q", host)
		return nil, nil
	})
	return cfg
}

// mustTCP4Loopback returns a TCP resource bound to 127.0.0.1 on an ephemeral port.
func mustTCP4Loopback(t *testing.T) TCPResource {
	res, err := NewTCPResource(context.Background(), NewConfig(), "127.0.0.1", 0, StackDefault)
	require.NoError(t, err)
	return res
}

// mustUDP4Loopback returns a UDP resource bound to 127.0.0.1 on an ephemeral port.
func mustUDP4Loopback(t *testing.T) UDPResource {
	res, err := NewUDPResource(context.Background(), NewConfig(), "127.0.0.1", 0, StackDefault)
	require.NoError(t, err)
	return res
}

// newMinimalConn returns a [*netstub.FuncConn] with only LocalAddrFunc and
// RemoteAddrFunc set. This is the minimum needed for code that calls
// [safeconn.LocalAddr] and [safeconn.RemoteAddr] during construction.
func newMinimalConn() *netstub.FuncConn {
	return &netstub.FuncConn{
		LocalAddrFunc:  func() net.Addr { return &net.UDPAddr{} },
		RemoteAddrFunc: func() net.Addr { return &net.UDPAddr{} },
	}
}
