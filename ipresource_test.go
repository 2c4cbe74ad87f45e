// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewIPResource deduces family and dual-stack setting from host, request and platform.
func TestNewIPResource(t *testing.T) {
	tests := []struct {
		// name describes what this test case verifies.
		name string

		// platform is the platform to simulate.
		platform platformStub

		// host is the host argument.
		host string

		// request is the requested stack mode.
		request StackMode

		// wantFamily is the expected family.
		wantFamily Family

		// wantMode is the expected stack mode.
		wantMode StackMode

		// wantErr is the expected error, if any.
		wantErr error
	}{
		{
			name:       "wildcard on dual-stack platform",
			platform:   platformStub{dualStack: true},
			host:       "",
			request:    StackDefault,
			wantFamily: FamilyIPv6,
			wantMode:   StackDual,
		},

		{
			name:       "wildcard on single-stack platform",
			platform:   platformStub{dualStack: false},
			host:       "",
			request:    StackDefault,
			wantFamily: FamilyIPv4,
			wantMode:   StackSingle,
		},

		{
			name:       "wildcard with explicit single-stack request",
			platform:   platformStub{dualStack: true},
			host:       "",
			request:    StackSingle,
			wantFamily: FamilyIPv4,
			wantMode:   StackSingle,
		},

		{
			name:       "wildcard with dual-stack request on dual-stack platform",
			platform:   platformStub{dualStack: true},
			host:       "",
			request:    StackDual,
			wantFamily: FamilyIPv6,
			wantMode:   StackDual,
		},

		{
			name:     "wildcard with dual-stack request on single-stack platform",
			platform: platformStub{dualStack: false},
			host:     "",
			request:  StackDual,
			wantErr:  ErrUnsupportedOption,
		},

		{
			name:       "IPv4 literal ignores the dual-stack request",
			platform:   platformStub{dualStack: true},
			host:       "10.0.0.1",
			request:    StackDual,
			wantFamily: FamilyIPv4,
			wantMode:   StackSingle,
		},

		{
			name:     "IPv4 literal with dual-stack request on single-stack platform",
			platform: platformStub{dualStack: false},
			host:     "10.0.0.1",
			request:  StackDual,
			wantErr:  ErrUnsupportedOption,
		},

		{
			name:       "IPv6 literal is single-stack by default",
			platform:   platformStub{dualStack: true},
			host:       "::1",
			request:    StackDefault,
			wantFamily: FamilyIPv6,
			wantMode:   StackSingle,
		},

		{
			name:       "IPv6 literal with dual-stack request",
			platform:   platformStub{dualStack: true},
			host:       "::",
			request:    StackDual,
			wantFamily: FamilyIPv6,
			wantMode:   StackDual,
		},

		{
			name:     "IPv6 literal with dual-stack request on single-stack platform",
			platform: platformStub{dualStack: false},
			host:     "::",
			request:  StackDual,
			wantErr:  ErrUnsupportedOption,
		},

		{
			name:       "IPv4-mapped IPv6 literal is IPv6",
			platform:   platformStub{dualStack: true},
			host:       "::ffff:10.0.0.1",
			request:    StackDefault,
			wantFamily: FamilyIPv6,
			wantMode:   StackSingle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(t, tt.platform)

			res, err := NewIPResource(context.Background(), cfg, SocketStream, ProtocolTCP, tt.host, 8080, tt.request)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFamily, res.Family)
			assert.Equal(t, tt.wantMode, res.DualStack)
			assert.Equal(t, SocketStream, res.Type)
			assert.Equal(t, ProtocolTCP, res.Protocol)
			assert.Equal(t, uint16(8080), res.Addr.Port())
		})
	}
}

// NewIPResource resolves names, preferring IPv6 results.
func TestNewIPResourceResolution(t *testing.T) {
	tests := []struct {
		// name describes what this test case verifies.
		name string

		// addrs is what the resolver returns.
		addrs []netip.Addr

		// err is the error the resolver returns.
		err error

		// want is the expected host, if no error is expected.
		want netip.Addr

		// wantFamily is the expected family.
		wantFamily Family
	}{
		{
			name:       "IPv6 preferred over an earlier IPv4",
			addrs:      []netip.Addr{netip.MustParseAddr("10.0.0.1"), netip.MustParseAddr("2001:db8::1")},
			want:       netip.MustParseAddr("2001:db8::1"),
			wantFamily: FamilyIPv6,
		},

		{
			name:       "IPv4 when there is no IPv6",
			addrs:      []netip.Addr{netip.MustParseAddr("10.0.0.1"), netip.MustParseAddr("10.0.0.2")},
			want:       netip.MustParseAddr("10.0.0.1"),
			wantFamily: FamilyIPv4,
		},

		{
			name:       "IPv4-mapped results are unmapped",
			addrs:      []netip.Addr{netip.MustParseAddr("::ffff:10.0.0.1")},
			want:       netip.MustParseAddr("10.0.0.1"),
			wantFamily: FamilyIPv4,
		},

		{
			name:  "no results",
			addrs: nil,
		},

		{
			name: "resolver failure",
			err:  errors.New("mocked error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Platform = platformStub{dualStack: true}
			var gotNetwork, gotHost string
			cfg.Resolver = ResolverFunc(func(ctx context.Context, network, host string) ([]netip.Addr, error) {
				gotNetwork, gotHost = network, host
				return tt.addrs, tt.err
			})

			res, err := NewIPResource(context.Background(), cfg, SocketDatagram, ProtocolUDP, "example.com", 53, StackDefault)

			assert.Equal(t, "ip", gotNetwork)
			assert.Equal(t, "example.com", gotHost)
			if !tt.want.IsValid() {
				require.ErrorIs(t, err, ErrResolution)
				if tt.err != nil {
					require.ErrorIs(t, err, tt.err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Addr.Addr())
			assert.Equal(t, tt.wantFamily, res.Family)
		})
	}
}

// CheckIPv4 and CheckIPv6 substitute the wildcard and reject the other family.
func TestCheckFamily(t *testing.T) {
	t.Run("CheckIPv4", func(t *testing.T) {
		got, err := CheckIPv4(netip.AddrPortFrom(netip.Addr{}, 80))
		require.NoError(t, err)
		assert.Equal(t, netip.MustParseAddrPort("0.0.0.0:80"), got)

		got, err = CheckIPv4(netip.MustParseAddrPort("10.0.0.1:80"))
		require.NoError(t, err)
		assert.Equal(t, netip.MustParseAddrPort("10.0.0.1:80"), got)

		_, err = CheckIPv4(netip.MustParseAddrPort("[::1]:80"))
		require.ErrorIs(t, err, ErrFamilyMismatch)
	})

	t.Run("CheckIPv6", func(t *testing.T) {
		got, err := CheckIPv6(netip.AddrPortFrom(netip.Addr{}, 80))
		require.NoError(t, err)
		assert.Equal(t, netip.MustParseAddrPort("[::]:80"), got)

		got, err = CheckIPv6(netip.MustParseAddrPort("[::1]:80"))
		require.NoError(t, err)
		assert.Equal(t, netip.MustParseAddrPort("[::1]:80"), got)

		_, err = CheckIPv6(netip.MustParseAddrPort("10.0.0.1:80"))
		require.ErrorIs(t, err, ErrFamilyMismatch)
	})
}

// socketOptionsRecorder records the options set by ConfigureSocket.
type socketOptionsRecorder struct {
	calls        []string
	reusePortErr error
}

func (r *socketOptionsRecorder) SetReuseAddr() error {
	r.calls = append(r.calls, "SO_REUSEADDR")
	return nil
}

func (r *socketOptionsRecorder) SetReusePort() error {
	r.calls = append(r.calls, "SO_REUSEPORT")
	return r.reusePortErr
}

func (r *socketOptionsRecorder) SetV6Only(v6only bool) error {
	if v6only {
		r.calls = append(r.calls, "IPV6_V6ONLY=1")
	} else {
		r.calls = append(r.calls, "IPV6_V6ONLY=0")
	}
	return nil
}

// ConfigureSocket sets IPV6_V6ONLY, then SO_REUSEPORT, then SO_REUSEADDR.
func TestIPResourceConfigureSocket(t *testing.T) {
	tests := []struct {
		// name describes what this test case verifies.
		name string

		// res is the resource to configure.
		res IPResource

		// reuse is the reuse argument.
		reuse bool

		// want is the expected sequence of options.
		want []string
	}{
		{
			name: "IPv4",
			res:  IPResource{SocketResource: SocketResource{Family: FamilyIPv4}, DualStack: StackSingle},
			want: []string{"SO_REUSEADDR"},
		},

		{
			name:  "IPv4 with reuse",
			res:   IPResource{SocketResource: SocketResource{Family: FamilyIPv4}, DualStack: StackSingle},
			reuse: true,
			want:  []string{"SO_REUSEPORT", "SO_REUSEADDR"},
		},

		{
			name: "IPv6 dual-stack",
			res:  IPResource{SocketResource: SocketResource{Family: FamilyIPv6}, DualStack: StackDual},
			want: []string{"IPV6_V6ONLY=0", "SO_REUSEADDR"},
		},

		{
			name:  "IPv6 single-stack with reuse",
			res:   IPResource{SocketResource: SocketResource{Family: FamilyIPv6}, DualStack: StackSingle},
			reuse: true,
			want:  []string{"IPV6_V6ONLY=1", "SO_REUSEPORT", "SO_REUSEADDR"},
		},

		{
			name: "IPv6 with undecided stack mode",
			res:  IPResource{SocketResource: SocketResource{Family: FamilyIPv6}, DualStack: StackDefault},
			want: []string{"SO_REUSEADDR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &socketOptionsRecorder{}
			require.NoError(t, tt.res.ConfigureSocket(recorder, tt.reuse))
			assert.Equal(t, tt.want, recorder.calls)
		})
	}
}

// ConfigureSocket stops at the first failing option.
func TestIPResourceConfigureSocketReusePortError(t *testing.T) {
	recorder := &socketOptionsRecorder{reusePortErr: ErrUnsupportedOption}
	res := IPResource{SocketResource: SocketResource{Family: FamilyIPv4}, DualStack: StackSingle}

	err := res.ConfigureSocket(recorder, true)

	require.ErrorIs(t, err, ErrUnsupportedOption)
	assert.Equal(t, []string{"SO_REUSEPORT"}, recorder.calls)
}

// EncodeAddr emits the stack marker only for a decided stack mode.
func TestIPResourceEncodeAddr(t *testing.T) {
	res := IPResource{
		SocketResource: SocketResource{Addr: netip.MustParseAddrPort("10.0.0.1:80")},
		DualStack:      StackSingle,
	}
	assert.Equal(t, []string{"10.0.0.1", "80", "single"}, res.EncodeAddr())

	res = IPResource{SocketResource: SocketResource{Addr: netip.AddrPortFrom(netip.Addr{}, 8080)}}
	assert.Equal(t, []string{"", "8080"}, res.EncodeAddr())
}
