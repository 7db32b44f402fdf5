package vcfsink

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"

	"github.com/grailbio/varcall/allele"
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/genotype"
	"github.com/grailbio/varcall/haplotype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFetcher(seq []byte) haplotype.ReferenceFetcher {
	return func(r genome.Region) ([]byte, error) { return seq[r.Begin:r.End], nil }
}

func buildArena(t *testing.T) (*haplotype.Arena, haplotype.Handle, haplotype.Handle, allele.Variant) {
	t.Helper()
	ref := []byte("ACGTACGT")
	fetch := testFetcher(ref)
	arena := haplotype.NewArena()
	region := genome.NewRegion("chr1", 0, 8)

	refHap, err := haplotype.New(region, nil)
	require.NoError(t, err)
	refHandle, err := arena.Intern(refHap, fetch)
	require.NoError(t, err)

	v := allele.NewVariant(genome.SinglePos("chr1", 3), []byte("T"), []byte("G"))
	altHap, err := haplotype.New(region, []allele.Allele{v.Alt})
	require.NoError(t, err)
	altHandle, err := arena.Intern(altHap, fetch)
	require.NoError(t, err)

	return arena, refHandle, altHandle, v
}

func TestWriteRecordProducesExpectedColumns(t *testing.T) {
	arena, refHandle, altHandle, v := buildArena(t)

	var buf bytes.Buffer
	w, err := NewWriter(&buf, []string{"sample1"})
	require.NoError(t, err)

	rec := Record{
		Variant: v,
		Kind:    DeNovo,
		Depth:   30,
		MeanMappingQuality: 58.5,
		Samples: []SampleCall{
			{Genotype: genotype.New(refHandle, altHandle), Quality: 42.5},
		},
	}
	require.NoError(t, w.WriteRecord(arena, rec))
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	last := lines[len(lines)-1]
	fields := strings.Split(last, "\t")
	require.Len(t, fields, 10)
	assert.Equal(t, "chr1", fields[0])
	assert.Equal(t, "4", fields[1]) // 1-based VCF POS for 0-based begin=3
	assert.Equal(t, "T", fields[3])
	assert.Equal(t, "G", fields[4])
	assert.Equal(t, "PASS", fields[6])
	assert.Contains(t, fields[7], "VC=de_novo")
	assert.Contains(t, fields[7], "DP=30")
	assert.Equal(t, "GT:GQ:DP:MQ", fields[8])
	assert.Equal(t, "0/1:42.50:30:58.5", fields[9])
}

func TestWriteRecordWritesPhaseSetWhenPresent(t *testing.T) {
	arena, refHandle, altHandle, v := buildArena(t)

	var buf bytes.Buffer
	w, err := NewWriter(&buf, []string{"sample1"})
	require.NoError(t, err)

	rec := Record{
		Variant:  v,
		PhaseSet: 7,
		Samples: []SampleCall{
			{Genotype: genotype.New(refHandle, altHandle), Quality: 42.5},
		},
	}
	require.NoError(t, w.WriteRecord(arena, rec))
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	last := lines[len(lines)-1]
	fields := strings.Split(last, "\t")
	assert.Equal(t, "GT:GQ:DP:MQ:PS", fields[8])
	assert.Equal(t, "0/1:42.50:0:0.0:7", fields[9])
}

func TestHeaderDeclaresSamples(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf, []string{"mother", "father", "child"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tmother\tfather\tchild")
}

func TestGzipWriterProducesValidGzip(t *testing.T) {
	arena, refHandle, _, v := buildArena(t)

	var buf bytes.Buffer
	w, err := NewGzipWriter(&buf, []string{"sample1"})
	require.NoError(t, err)
	rec := Record{
		Variant: v,
		Samples: []SampleCall{{Genotype: genotype.New(refHandle, refHandle), Quality: 99}},
	}
	require.NoError(t, w.WriteRecord(arena, rec))
	require.NoError(t, w.Close())

	gr, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	defer gr.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(gr)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "chr1\t4")
}

func TestHomozygousReferenceGenotype(t *testing.T) {
	arena, refHandle, _, v := buildArena(t)
	g := genotype.New(refHandle, refHandle)
	assert.Equal(t, "0/0", genotypeString(arena, g, v.Alt))
}
