// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"time"
)

// NewSockets returns a new [*Sockets] with default configuration.
//
// The cfg argument contains the common configuration for handoff operations.
//
// The logger argument is the [SLogger] to use for structured logging.
func NewSockets(cfg *Config, logger SLogger) *Sockets {
	return &Sockets{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		Platform:      cfg.Platform,
		TimeNow:       cfg.TimeNow,
	}
}

// Sockets creates, destroys, encodes and decodes the handles of resources.
//
// The operations are generic over [Resource]: the resource provides the
// socket attributes and the options to set before bind.
//
// All fields are safe to modify after construction but before first use.
// Fields must not be mutated concurrently with method calls.
type Sockets struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewSockets] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use (configurable for testing or custom logging).
	//
	// Set by [NewSockets] to the user-provided logger.
	Logger SLogger

	// Platform tells whether port reuse is available.
	//
	// Set by [NewSockets] from [Config.Platform].
	Platform Platform

	// TimeNow is the function to get the current time (configurable for testing).
	//
	// Set by [NewSockets] from [Config.TimeNow].
	TimeNow func() time.Time
}

// Create opens a socket for res, marks it inheritable and binds it.
//
// The socket always gets SO_REUSEADDR. When reuse is true it also gets
// SO_REUSEPORT, failing with [ErrUnsupportedOption] if the platform lacks it.
//
// Returns either a valid [*Handle] or an error, never both.
func (s *Sockets) Create(res Resource, reuse bool) (*Handle, error) {
	sock := res.Socket()
	spec := EncodeResourceSpec(res)
	t0 := s.TimeNow()
	s.logCreateStart(spec, sock, reuse, t0)
	handle, err := s.create(res, sock, reuse)
	s.logCreateDone(spec, sock, reuse, t0, handle, err)
	return handle, err
}

func (s *Sockets) create(res Resource, sock SocketResource, reuse bool) (*Handle, error) {
	fd, err := sysSocket(sock)
	if err != nil {
		return nil, err
	}
	if err := s.setup(fd, res, sock, reuse); err != nil {
		sysClose(fd)
		return nil, err
	}
	return newHandle(fd), nil
}

func (s *Sockets) setup(fd int, res Resource, sock SocketResource, reuse bool) error {
	if err := SetInheritable(fd, true); err != nil {
		return err
	}
	if err := res.ConfigureSocket(newSocketOptions(fd, s.Platform), reuse); err != nil {
		return err
	}
	return sysBind(fd, sock)
}

func (s *Sockets) logCreateStart(spec string, sock SocketResource, reuse bool, t0 time.Time) {
	s.Logger.Info(
		"createStart",
		slog.String("family", sock.Family.String()),
		slog.String("protocol", sock.Protocol.String()),
		slog.String("resource", spec),
		slog.Bool("reuse", reuse),
		slog.Time("t", t0),
	)
}

func (s *Sockets) logCreateDone(spec string, sock SocketResource,
	reuse bool, t0 time.Time, handle *Handle, err error) {
	s.Logger.Info(
		"createDone",
		slog.Any("err", err),
		slog.String("errClass", s.ErrClassifier.Classify(err)),
		slog.String("family", sock.Family.String()),
		slog.String("localAddr", handleLocalAddr(handle)),
		slog.String("protocol", sock.Protocol.String()),
		slog.String("resource", spec),
		slog.Bool("reuse", reuse),
		slog.Time("t0", t0),
		slog.Time("t", s.TimeNow()),
	)
}

// Destroy closes the handle of res.
//
// A close failure is logged and otherwise ignored, so that destroying
// one handle never prevents destroying the others.
func (s *Sockets) Destroy(res Resource, handle *Handle) {
	spec := EncodeResourceSpec(res)
	laddr := handleLocalAddr(handle)
	t0 := s.TimeNow()
	s.Logger.Info(
		"closeStart",
		slog.String("localAddr", laddr),
		slog.String("protocol", res.Socket().Protocol.String()),
		slog.String("resource", spec),
		slog.Time("t", t0),
	)

	err := handle.Close()

	s.Logger.Info(
		"closeDone",
		slog.Any("err", err),
		slog.String("errClass", s.ErrClassifier.Classify(err)),
		slog.String("localAddr", laddr),
		slog.String("protocol", res.Socket().Protocol.String()),
		slog.String("resource", spec),
		slog.Time("t0", t0),
		slog.Time("t", s.TimeNow()),
	)
}

// Encode returns the text form of the handle of res: the number of an
// inheritable duplicate of its descriptor (see [EncodeFD]).
func (s *Sockets) Encode(res Resource, handle *Handle) (string, error) {
	spec := EncodeResourceSpec(res)
	laddr := handleLocalAddr(handle)
	t0 := s.TimeNow()
	s.Logger.Info(
		"encodeStart",
		slog.String("localAddr", laddr),
		slog.String("resource", spec),
		slog.Time("t", t0),
	)

	value, err := encodeHandle(handle)

	s.Logger.Info(
		"encodeDone",
		slog.Any("err", err),
		slog.String("errClass", s.ErrClassifier.Classify(err)),
		slog.String("localAddr", laddr),
		slog.String("resource", spec),
		slog.Time("t0", t0),
		slog.Time("t", s.TimeNow()),
		slog.String("value", value),
	)
	return value, err
}

// Decode recovers the handle of res from the text produced by [*Sockets.Encode]
// in the previous generation.
//
// It returns ok == false, and never an error, when value is not a number,
// does not name an open descriptor, or names a socket whose type, family or
// bound address differ from res. The caller should then create a fresh
// handle using [*Sockets.Create].
//
// On success the returned handle owns a duplicate of the inherited descriptor
// and the inherited descriptor itself is closed.
func (s *Sockets) Decode(res Resource, value string) (*Handle, bool) {
	spec := EncodeResourceSpec(res)
	t0 := s.TimeNow()
	s.Logger.Info(
		"decodeStart",
		slog.String("resource", spec),
		slog.Time("t", t0),
		slog.String("value", value),
	)

	handle, err := s.decode(res, value)

	s.Logger.Info(
		"decodeDone",
		slog.Any("err", err),
		slog.String("errClass", s.ErrClassifier.Classify(err)),
		slog.String("localAddr", handleLocalAddr(handle)),
		slog.String("resource", spec),
		slog.Time("t0", t0),
		slog.Time("t", s.TimeNow()),
		slog.String("value", value),
	)
	return handle, err == nil
}

func encodeHandle(handle *Handle) (string, error) {
	if handle.closed.Load() {
		return "", net.ErrClosed
	}
	return EncodeFD(handle.fd)
}

func (s *Sockets) decode(res Resource, value string) (*Handle, error) {
	fd, ok := DecodeFD(value)
	if !ok {
		return nil, errNotOpen(value)
	}
	if err := validateSocket(fd, res.Socket()); err != nil {
		s.Logger.Debug("decodeMismatch", slog.Any("err", err), slog.String("value", value))
		sysClose(fd)
		return nil, err
	}
	// DecodeFD succeeded, hence value is a valid number.
	orig, _ := strconv.Atoi(value)
	sysClose(orig)
	return newHandle(fd), nil
}

// Probe checks the descriptor named by value against res, as [*Sockets.Decode]
// does, and returns its bound address.
//
// Unlike Decode, it does not take ownership: the descriptor stays open and
// can still be decoded afterward.
func (s *Sockets) Probe(res Resource, value string) (netip.AddrPort, error) {
	fd, ok := DecodeFD(value)
	if !ok {
		return netip.AddrPort{}, errNotOpen(value)
	}
	defer sysClose(fd)
	if err := validateSocket(fd, res.Socket()); err != nil {
		s.Logger.Debug("probeMismatch", slog.Any("err", err), slog.String("value", value))
		return netip.AddrPort{}, err
	}
	_, addr, err := sysLocalAddr(fd)
	return addr, err
}

func errNotOpen(value string) error {
	return fmt.Errorf("handoff: %q is not an open descriptor", value)
}

// validateSocket checks that fd is a socket of the type and family of want,
// bound to the address of want. A zero port in want matches any port and a
// wildcard host matches only the unspecified address.
func validateSocket(fd int, want SocketResource) error {
	sotype, err := sysSocketType(fd)
	if err != nil {
		return err
	}
	if sotype != want.Type {
		return fmt.Errorf("handoff: socket type is %s, want %s", sotype, want.Type)
	}
	family, addr, err := sysLocalAddr(fd)
	if err != nil {
		return err
	}
	if family != want.Family {
		return fmt.Errorf("handoff: socket family is %s, want %s", family, want.Family)
	}
	if !boundAddrMatches(want.Addr, addr) {
		return fmt.Errorf("handoff: socket bound to %s, want %s", addr, want.Addr)
	}
	return nil
}

// boundAddrMatches reports whether got satisfies want.
func boundAddrMatches(want, got netip.AddrPort) bool {
	if want.Port() != 0 && want.Port() != got.Port() {
		return false
	}
	host := want.Addr()
	if !host.IsValid() {
		return got.Addr().IsUnspecified()
	}
	return host.WithZone("") == got.Addr().WithZone("")
}
