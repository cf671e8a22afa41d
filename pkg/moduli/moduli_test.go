package moduli

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVBase16(t *testing.T) {
	in := "key1,0f\nkey2,15\n"
	ms, err := ReadCSV(strings.NewReader(in), 16)
	require.NoError(t, err)
	require.Len(t, ms, 2)

	assert.Equal(t, "key1", ms[0].ID)
	assert.EqualValues(t, 15, ms[0].N.Int64())
	assert.Equal(t, "key2", ms[1].ID)
	assert.EqualValues(t, 21, ms[1].N.Int64())
}

func TestReadCSVBase10(t *testing.T) {
	in := "a,15\nb,21\n"
	ms, err := ReadCSV(strings.NewReader(in), 10)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.EqualValues(t, 15, ms[0].N.Int64())
	assert.EqualValues(t, 21, ms[1].N.Int64())
}

func TestReadCSVSkipsBlankLines(t *testing.T) {
	in := "a,f\n\n  \nb,15\n"
	ms, err := ReadCSV(strings.NewReader(in), 16)
	require.NoError(t, err)
	assert.Len(t, ms, 2)
}

func TestReadCSVRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"missing separator": "justanid\n",
		"bad digits":        "a,xyzzy\n",
		"negative":          "a,-15\n",
		"zero":              "a,0\n",
		"empty modulus":     "a,\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(in), 16)
			require.Error(t, err)
			var ierr *InvalidModulusError
			assert.True(t, errors.As(err, &ierr))
			assert.Equal(t, 1, ierr.Line)
		})
	}
}

func TestReadCSVRejectsBase(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,ff\n"), 2)
	assert.Error(t, err)
}

func TestDuplicateValuesKept(t *testing.T) {
	in := "first,5b\nsecond,5b\n"
	ms, err := ReadCSV(strings.NewReader(in), 16)
	require.NoError(t, err)
	require.Len(t, ms, 2)

	// Same value, same fingerprint, distinct IDs.
	assert.Equal(t, ms[0].Fingerprint, ms[1].Fingerprint)
	assert.NotEqual(t, ms[0].ID, ms[1].ID)
}

func TestValues(t *testing.T) {
	ms, err := ReadCSV(strings.NewReader("a,6\nb,a\nc,f\n"), 16)
	require.NoError(t, err)
	xs := Values(ms)
	require.Len(t, xs, 3)
	assert.EqualValues(t, 6, xs[0].Int64())
	assert.EqualValues(t, 10, xs[1].Int64())
	assert.EqualValues(t, 15, xs[2].Int64())
}
