package upsot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestParameterControlsSet(t *testing.T) {
	c := NewParameterControls(DefaultParams())

	p, err := c.Set(ParamsUpdate{MaxCount: intPtr(20)})
	require.NoError(t, err)
	assert.Equal(t, 20, p.MaxCount)
	assert.Equal(t, 0.5, p.Sensitivity)

	p, err = c.Set(ParamsUpdate{Sensitivity: floatPtr(1), SortByRelevance: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, Params{MaxCount: 20, Sensitivity: 1, SortByRelevance: true}, p)
	assert.Equal(t, p, c.Get())
}

func TestParameterControlsRejectsInvalid(t *testing.T) {
	c := NewParameterControls(DefaultParams())

	_, err := c.Set(ParamsUpdate{MaxCount: intPtr(31), Sensitivity: floatPtr(-0.1)})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 2)
	assert.Contains(t, verr.Problems[0], "Field 'MaxCount' failed on the 'max' tag")
	assert.Contains(t, verr.Problems[1], "Field 'Sensitivity' failed on the 'min' tag")

	assert.Equal(t, DefaultParams(), c.Get(), "校验失败时参数不变")
}

func TestParameterControlsReset(t *testing.T) {
	c := NewParameterControls(DefaultParams())
	_, err := c.Set(ParamsUpdate{MaxCount: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Get().MaxCount)

	assert.Equal(t, DefaultParams(), c.Reset())
}

func TestParameterControlsConcurrent(t *testing.T) {
	c := NewParameterControls(DefaultParams())

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := c.Set(ParamsUpdate{MaxCount: intPtr(n)})
			assert.NoError(t, err)
			_ = c.Get()
		}(i)
	}
	wg.Wait()

	assert.GreaterOrEqual(t, c.Get().MaxCount, 0)
	assert.LessOrEqual(t, c.Get().MaxCount, 29)
}
