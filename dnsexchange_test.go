// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"errors"
	"testing"
	"time"

	"github.com/bassosimone/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLogContext returns a dnsExchangeLogContext wired to a capturing
// logger with fixed metadata, suitable for verifying log output.
func newTestLogContext(logger SLogger) *dnsExchangeLogContext {
	return &dnsExchangeLogContext{
		ErrClassifier: DefaultErrClassifier,
		LocalAddr:     "127.0.0.1:54321",
		Logger:        logger,
		QueryName:     "example.com.",
		QueryType:     "AAAA",
		RemoteAddr:    "8.8.8.8:53",
		TimeNow:       time.Now,
	}
}

// logStart emits a dnsExchangeStart event carrying the question.
func TestDNSExchangeLogContextLogStart(t *testing.T) {
	logger, records := newCapturingLogger()
	lc := newTestLogContext(logger)

	t0 := time.Now()
	lc.logStart(t0, t0.Add(5*time.Second))

	require.Len(t, *records, 1)
	assert.Equal(t, "dnsExchangeStart", (*records)[0].Message)
	name, found := recordAttr((*records)[0], "dnsQueryName")
	require.True(t, found)
	assert.Equal(t, "example.com.", name.String())
	qtype, found := recordAttr((*records)[0], "dnsQueryType")
	require.True(t, found)
	assert.Equal(t, "AAAA", qtype.String())
}

// logDone emits a dnsExchangeDone event with error classification.
func TestDNSExchangeLogContextLogDone(t *testing.T) {
	tests := []struct {
		// name describes what this test case verifies.
		name string

		// err is the error passed to logDone.
		err error

		// wantClass is the expected errClass attribute.
		wantClass string
	}{
		{
			name:      "success",
			err:       nil,
			wantClass: "",
		},

		{
			name:      "failure",
			err:       errors.New("mocked error"),
			wantClass: errclass.EGENERIC,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, records := newCapturingLogger()
			lc := newTestLogContext(logger)

			t0 := time.Now()
			lc.logDone(t0, t0.Add(5*time.Second), tt.err)

			require.Len(t, *records, 1)
			assert.Equal(t, "dnsExchangeDone", (*records)[0].Message)
			gotErr, found := recordAttr((*records)[0], "err")
			require.True(t, found)
			assert.Equal(t, tt.err, gotErr.Any())
			gotClass, found := recordAttr((*records)[0], "errClass")
			require.True(t, found)
			assert.Equal(t, tt.wantClass, gotClass.String())
		})
	}
}

// The observers carry the raw messages and correlate the query.
func TestDNSExchangeLogContextObservers(t *testing.T) {
	logger, records := newCapturingLogger()
	lc := newTestLogContext(logger)

	rawQuery := []byte{0x01, 0x02}
	rawResp := []byte{0x03, 0x04}
	t0 := time.Now()
	var rqr []byte
	lc.makeQueryObserver(t0, &rqr)(rawQuery)
	lc.makeResponseObserver(t0, &rqr)(rawResp)

	assert.Equal(t, rawQuery, rqr)
	require.Equal(t, []string{"dnsQuery", "dnsResponse"}, recordMessages(*records))
	got, found := recordAttr((*records)[0], "dnsRawQuery")
	require.True(t, found)
	assert.Equal(t, rawQuery, got.Any())
	got, found = recordAttr((*records)[1], "dnsRawQuery")
	require.True(t, found)
	assert.Equal(t, rawQuery, got.Any())
	got, found = recordAttr((*records)[1], "dnsRawResponse")
	require.True(t, found)
	assert.Equal(t, rawResp, got.Any())
}
