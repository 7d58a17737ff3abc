package checker

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected failureKind
	}{
		{
			name:     "context deadline",
			err:      context.DeadlineExceeded,
			expected: failTimeout,
		},
		{
			name:     "wrapped deadline",
			err:      &url.Error{Op: "Get", URL: "http://example.com", Err: os.ErrDeadlineExceeded},
			expected: failTimeout,
		},
		{
			name:     "dns failure",
			err:      &url.Error{Op: "Get", URL: "http://nx.example", Err: &net.DNSError{Err: "no such host", Name: "nx.example", IsNotFound: true}},
			expected: failConnection,
		},
		{
			name:     "connection refused",
			err:      &url.Error{Op: "Get", URL: "http://localhost:1", Err: &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}},
			expected: failConnection,
		},
		{
			name:     "connection reset",
			err:      fmt.Errorf("read failed: %w", syscall.ECONNRESET),
			expected: failConnection,
		},
		{
			name:     "generic transport error",
			err:      errors.New("malformed HTTP response"),
			expected: failRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, classifyError(tc.err))
		})
	}
}

func TestFailureKindSentinels(t *testing.T) {
	assert.Equal(t, StatusTimeout, failTimeout.sentinel())
	assert.Equal(t, StatusConnectionError, failConnection.sentinel())
	assert.Equal(t, StatusRequestError, failRequest.sentinel())
}

func TestLooksLikeTLSError(t *testing.T) {
	assert.True(t, looksLikeTLSError(x509.UnknownAuthorityError{}))
	assert.True(t, looksLikeTLSError(errors.New("tls: handshake failure")))
	assert.True(t, looksLikeTLSError(errors.New("x509: certificate signed by unknown authority")))
	assert.False(t, looksLikeTLSError(errors.New("connection refused")))
}
