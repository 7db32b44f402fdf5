package refio

import (
	"testing"

	"github.com/grailbio/varcall/genome"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	seq map[string]string
}

func (f fakeSource) Get(seqName string, start, end uint64) (string, error) {
	return f.seq[seqName][start:end], nil
}

func (f fakeSource) Len(seqName string) (uint64, error) {
	s, ok := f.seq[seqName]
	if !ok {
		return 0, errors.Errorf("unknown contig %s", seqName)
	}
	return uint64(len(s)), nil
}

func TestFetchReturnsExactSlice(t *testing.T) {
	ref := New(fakeSource{seq: map[string]string{"chr1": "ACGTACGT"}})
	bases, err := ref.Fetch(genome.NewRegion("chr1", 2, 5))
	require.NoError(t, err)
	assert.Equal(t, "GTA", string(bases))
}

func TestFetchClampsToContigLength(t *testing.T) {
	ref := New(fakeSource{seq: map[string]string{"chr1": "ACGTACGT"}})
	bases, err := ref.Fetch(genome.NewRegion("chr1", 6, 20))
	require.NoError(t, err)
	assert.Equal(t, "GT", string(bases))
}

func TestContigLengthUnknownContigErrors(t *testing.T) {
	ref := New(fakeSource{seq: map[string]string{"chr1": "ACGT"}})
	_, err := ref.ContigLength("chrZ")
	assert.Error(t, err)
}
