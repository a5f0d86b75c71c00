package signer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestSigner(c *clock) *Signer {
	return New("test-secret", "reset-password", time.Hour, WithClock(c.now))
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	s := newTestSigner(c)

	tok, _, err := s.Issue("a@spu.ac.ke")
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "a@spu.ac.ke", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, c.t.Equal(claims.IssuedAt))
}

func TestVerifyAge(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"fresh", 0, nil},
		{"just inside", 3600 * time.Second, nil},
		{"one second too old", 3601 * time.Second, ErrExpired},
		{"a day old", 24 * time.Hour, ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &clock{t: time.Unix(1_700_000_000, 0)}
			s := newTestSigner(c)
			tok, _, err := s.Issue("a@spu.ac.ke")
			require.NoError(t, err)

			c.t = c.t.Add(tt.elapsed)
			_, err = s.Verify(tok)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerifyAge_SubSecondClock(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"under max age", 3599*time.Second + 700*time.Millisecond, nil},
		{"max age with fraction", 3600*time.Second + 50*time.Millisecond, nil},
		{"past max age", 3601 * time.Second, ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &clock{t: time.Unix(1_700_000_000, 900*int64(time.Millisecond))}
			s := newTestSigner(c)
			tok, _, err := s.Issue("a@spu.ac.ke")
			require.NoError(t, err)

			c.t = c.t.Add(tt.elapsed)
			_, err = s.Verify(tok)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	s := newTestSigner(c)
	tok, _, err := s.Issue("a@spu.ac.ke")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	// flip one character of the payload
	payload := []byte(parts[1])
	if payload[5] == 'A' {
		payload[5] = 'B'
	} else {
		payload[5] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = s.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRejectsOtherSecretAndPurpose(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	s := newTestSigner(c)
	tok, _, err := s.Issue("a@spu.ac.ke")
	require.NoError(t, err)

	other := New("another-secret", "reset-password", time.Hour, WithClock(c.now))
	_, err = other.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalid)

	sessions := New("test-secret", "session", time.Hour, WithClock(c.now))
	_, err = sessions.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestIssueUniqueIDs(t *testing.T) {
	s := New("test-secret", "session", time.Hour)
	a, issuedA, err := s.Issue("1")
	require.NoError(t, err)
	b, _, err := s.Issue("1")
	require.NoError(t, err)

	ca, err := s.Verify(a)
	require.NoError(t, err)
	cb, err := s.Verify(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
	assert.Equal(t, issuedA.ID, ca.ID)
	assert.Equal(t, time.Hour, s.MaxAge())
}
