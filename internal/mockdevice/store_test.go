// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mockdevice

import (
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePatch(t *testing.T) {
	p, err := ParsePatch(url.Values{"failTimer": {"true"}, "delay": {"250"}})
	require.NoError(t, err)
	require.NotNil(t, p.FailTimer)
	require.NotNil(t, p.DelayMs)
	assert.True(t, *p.FailTimer)
	assert.Equal(t, 250, *p.DelayMs)
	assert.Nil(t, p.FailReset)
	assert.Nil(t, p.TimerSeed)

	p, err = ParsePatch(url.Values{})
	require.NoError(t, err)
	assert.True(t, p.Empty())

	_, err = ParsePatch(url.Values{"timer": {"1.5"}})
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := NewStore(DefaultConfig())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Update(Patch{DelayMs: &n})
			_ = s.Get()
		}(i)
	}
	wg.Wait()

	cfg := s.Get()
	assert.Equal(t, DefaultTimerSeed, cfg.TimerSeed)
	assert.GreaterOrEqual(t, cfg.DelayMs, 0)
	assert.Less(t, cfg.DelayMs, 50)
}
