package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"syscall"
)

// failureKind is the closed set of transport failure categories. HTTP
// responses with error codes are not failures at this level; they surface
// their own status code.
type failureKind int

const (
	failTimeout failureKind = iota
	failConnection
	failRequest
)

func (k failureKind) sentinel() string {
	switch k {
	case failTimeout:
		return StatusTimeout
	case failConnection:
		return StatusConnectionError
	default:
		return StatusRequestError
	}
}

func (k failureKind) message() string {
	switch k {
	case failTimeout:
		return "Request timed out"
	case failConnection:
		return "Connection failed"
	default:
		return "Request failed"
	}
}

// classifyError maps a transport error onto a failure category. Timeouts
// are checked first since deadline errors often also satisfy the
// connection-level predicates.
func classifyError(err error) failureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return failTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return failConnection
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return failConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return failConnection
	}

	return failRequest
}

// looksLikeTLSError reports whether the error text or type suggests a TLS
// handshake or certificate problem.
func looksLikeTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuthErr x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthErr) {
		return true
	}
	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:") ||
		strings.Contains(msg, "certificate")
}
