package readings

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundsense/internal/domain"
)

func readingN(n int) domain.Reading {
	return domain.Reading{
		PatientID: "p1",
		DeviceID:  fmt.Sprintf("d%d", n),
		Code:      domain.SignalSound,
		Value:     float64(n),
		Unit:      "raw",
		Timestamp: time.Now().UTC(),
	}
}

func TestRecentBufferAppendAndRead(t *testing.T) {
	buf := newRecentBuffer(5)
	for i := 1; i <= 3; i++ {
		buf.Append(readingN(i))
	}

	assert.Equal(t, 3, buf.Len())

	got := buf.RecentN(2)
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, got[0].Value) // newest first
	assert.Equal(t, 2.0, got[1].Value)
}

func TestRecentBufferFIFOEviction(t *testing.T) {
	const capacity, extra = 5, 3
	buf := newRecentBuffer(capacity)
	for i := 1; i <= capacity+extra; i++ {
		buf.Append(readingN(i))
	}

	assert.Equal(t, capacity, buf.Len())

	got := buf.RecentN(capacity)
	require.Len(t, got, capacity)
	// Exactly the last `capacity` inserted, newest first.
	for i, r := range got {
		assert.Equal(t, float64(capacity+extra-i), r.Value)
	}
	// The oldest `extra` are gone.
	for _, r := range got {
		assert.Greater(t, r.Value, float64(extra))
	}
}

func TestRecentBufferClampsLimit(t *testing.T) {
	buf := newRecentBuffer(5)
	buf.Append(readingN(1))

	assert.Len(t, buf.RecentN(100), 1)
	assert.Nil(t, buf.RecentN(0))
	assert.Nil(t, buf.RecentN(-1))
}

func TestRecentBufferReadDoesNotMutate(t *testing.T) {
	buf := newRecentBuffer(3)
	buf.Append(readingN(1))
	buf.Append(readingN(2))

	_ = buf.RecentN(2)
	_ = buf.RecentN(2)
	assert.Equal(t, 2, buf.Len())
	assert.Equal(t, 2.0, buf.RecentN(1)[0].Value)
}
