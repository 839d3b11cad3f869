package ethabi

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGogo(t *testing.T) {
	assert.NoError(t, <-gogo(func() error { return nil }))

	fail := errors.New("fail")
	assert.Equal(t, fail, <-gogo(func() error { return fail }))
	assert.Equal(t, fail, <-gogo(func() error { panic(fail) }))

	err := <-gogo(func() error { panic("plain string") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plain string")

	err = <-gogo(func() error { panic(42) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "42")
}
