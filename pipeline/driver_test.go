package pipeline

import (
	"testing"

	"github.com/grailbio/varcall/caller"
	"github.com/grailbio/varcall/errormodel"
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/haplotype"
	"github.com/grailbio/varcall/phaser"
	"github.com/grailbio/varcall/prior"
	"github.com/grailbio/varcall/refio"
	"github.com/grailbio/varcall/vargen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource implements refio.Source over an in-memory sequence map.
type fakeSource struct {
	seq map[string]string
}

func (f fakeSource) Get(seqName string, start, end uint64) (string, error) {
	return f.seq[seqName][start:end], nil
}

func (f fakeSource) Len(seqName string) (uint64, error) {
	return uint64(len(f.seq[seqName])), nil
}

// fakeAlignmentSource implements AlignmentSource directly over a fixed read
// set, standing in for alnio.Reader in these tests.
type fakeAlignmentSource struct {
	reads []vargen.Read
}

func (f fakeAlignmentSource) FetchReads(region genome.Region) []vargen.Read {
	var out []vargen.Read
	for _, r := range f.reads {
		if r.Contig == region.Contig && r.Position < region.End && r.End() > region.Begin {
			out = append(out, r)
		}
	}
	return out
}

func (f fakeAlignmentSource) FetchReadsBySample(region genome.Region) map[string][]caller.Read {
	out := map[string][]caller.Read{}
	for _, r := range f.FetchReads(region) {
		out[r.SampleID] = append(out[r.SampleID], caller.Read{ID: r.ReadID, Sequence: r.Sequence, Qualities: r.Qualities})
	}
	return out
}

func highQual(n int) []byte {
	q := make([]byte, n)
	for i := range q {
		q[i] = 35
	}
	return q
}

func makeReads(sampleID, contig string, pos genome.PosType, seq string, n int, prefix string) []vargen.Read {
	var reads []vargen.Read
	for i := 0; i < n; i++ {
		reads = append(reads, vargen.Read{
			Contig:         contig,
			Position:       pos,
			Cigar:          []vargen.CigarOp{{Type: vargen.CigarMatch, Length: len(seq)}},
			Sequence:       []byte(seq),
			Qualities:      highQual(len(seq)),
			MappingQuality: 60,
			Reverse:        i%2 == 1,
			SampleID:       sampleID,
			ReadID:         prefix + string(rune('a'+i)),
		})
	}
	return reads
}

func baseOptions() Options {
	return Options{
		Parallelism:   2,
		Ploidy:        2,
		Mode:          vargen.Germline,
		Kind:          caller.Individual,
		VargenOptions: vargen.DefaultOptions(),
		PhaserOptions: phaser.DefaultOptions(),
		ErrorModel:    errormodel.NovaSeq{},
		Prior:         prior.Uniform{NumHaplotypes: 2, Ploidy: 2},
	}
}

func TestRunRegionCallsHeterozygousSNV(t *testing.T) {
	ref := "ACGTACGTACGTACGTACGT"
	reference := refio.New(fakeSource{seq: map[string]string{"chr1": ref}})
	region := genome.NewRegion("chr1", 0, 20)

	// Reference-matching and alt (pos 5: C->T) reads in equal proportion,
	// giving a clean heterozygous call.
	var reads []vargen.Read
	reads = append(reads, makeReads("s1", "chr1", 0, ref[0:20], 8, "r")...)
	altRead := []byte(ref[0:20])
	altRead[5] = 'T'
	reads = append(reads, makeReads("s1", "chr1", 0, string(altRead), 8, "a")...)

	driver := NewDriver(baseOptions(), reference, []Sample{
		{ID: "s1", Alignments: fakeAlignmentSource{reads: reads}},
	})

	records, err := driver.RunRegion(region)
	require.NoError(t, err)
	require.NotEmpty(t, records)

	found := false
	for _, rec := range records {
		if rec.Variant.Region().Begin == 5 {
			found = true
			require.Len(t, rec.Samples, 1)
			assert.Len(t, rec.Samples[0].Genotype.Haplotypes, 2)
		}
	}
	assert.True(t, found, "expected a called variant at position 5")
}

func TestRunReturnsResultsAcrossRegions(t *testing.T) {
	ref := "ACGTACGTACGTACGTACGTACGTACGTACGTACGTACGT"
	reference := refio.New(fakeSource{seq: map[string]string{"chr1": ref}})

	altRead := []byte(ref[0:20])
	altRead[5] = 'T'
	var reads []vargen.Read
	reads = append(reads, makeReads("s1", "chr1", 0, ref[0:20], 8, "r")...)
	reads = append(reads, makeReads("s1", "chr1", 0, string(altRead), 8, "a")...)

	driver := NewDriver(baseOptions(), reference, []Sample{
		{ID: "s1", Alignments: fakeAlignmentSource{reads: reads}},
	})

	regions := []genome.Region{
		genome.NewRegion("chr1", 0, 20),
		genome.NewRegion("chr1", 20, 41),
	}
	results, err := driver.Run(regions)
	require.NoError(t, err)
	// Only the first region has any reads/candidates; the second should
	// simply contribute no records, not an error.
	for _, r := range results {
		assert.Equal(t, "chr1", r.Region.Contig)
	}
}

func TestRunRegionNoCandidatesReturnsEmpty(t *testing.T) {
	ref := "ACGTACGTACGTACGTACGT"
	reference := refio.New(fakeSource{seq: map[string]string{"chr1": ref}})
	region := genome.NewRegion("chr1", 0, 20)

	reads := makeReads("s1", "chr1", 0, ref[0:20], 8, "r")
	driver := NewDriver(baseOptions(), reference, []Sample{
		{ID: "s1", Alignments: fakeAlignmentSource{reads: reads}},
	})

	records, err := driver.RunRegion(region)
	require.NoError(t, err)
	assert.Empty(t, records)
}

// TestRunRegionWithCoalescentPriorFactory exercises Options.PriorFactory,
// confirming a per-region Coalescent prior (bound to that region's own
// arena) works the same as a shared prior.Uniform.
func TestRunRegionWithCoalescentPriorFactory(t *testing.T) {
	ref := "ACGTACGTACGTACGTACGT"
	reference := refio.New(fakeSource{seq: map[string]string{"chr1": ref}})
	region := genome.NewRegion("chr1", 0, 20)

	var reads []vargen.Read
	reads = append(reads, makeReads("s1", "chr1", 0, ref[0:20], 8, "r")...)
	altRead := []byte(ref[0:20])
	altRead[5] = 'T'
	reads = append(reads, makeReads("s1", "chr1", 0, string(altRead), 8, "a")...)

	opts := baseOptions()
	opts.Prior = nil
	opts.PriorFactory = func(arena *haplotype.Arena) prior.Model {
		return prior.NewCoalescent(arena, prior.DefaultCoalescentParameters())
	}
	driver := NewDriver(opts, reference, []Sample{
		{ID: "s1", Alignments: fakeAlignmentSource{reads: reads}},
	})

	records, err := driver.RunRegion(region)
	require.NoError(t, err)
	require.NotEmpty(t, records)
}

func TestInferUnknownKindIsConfigError(t *testing.T) {
	opts := baseOptions()
	opts.Kind = caller.Kind(99)
	driver := &Driver{Opts: opts}
	_, _, _, err := driver.infer(nil, nil, nil, nil, opts.Prior, nil)
	require.Error(t, err)
}
