// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
varcall is a Bayesian haplotype-based small-variant caller. It reads one or
more BAM files against a reference FASTA, generates candidate variants,
proposes and scores haplotypes, and writes VCF calls under one of four
joint-inference strategies (individual, population, trio, tumor-normal).
*/

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/varcall/alnio"
	"github.com/grailbio/varcall/caller"
	"github.com/grailbio/varcall/encoding/fasta"
	"github.com/grailbio/varcall/errormodel"
	"github.com/grailbio/varcall/genome"
	"github.com/grailbio/varcall/haplotype"
	"github.com/grailbio/varcall/phaser"
	"github.com/grailbio/varcall/pipeline"
	"github.com/grailbio/varcall/prior"
	"github.com/grailbio/varcall/refio"
	"github.com/grailbio/varcall/vargen"
	"github.com/grailbio/varcall/vcfsink"
)

var (
	bamPaths       = flag.String("bam", "", "Comma-separated input BAM paths, one per sample. For -caller-kind=trio, order is mother,father,child; for tumor_normal, normal,tumor")
	sampleNames    = flag.String("samples", "", "Comma-separated sample names, same order and count as -bam; defaults to each BAM's own read-group sample name(s)")
	fastaPath      = flag.String("fasta", "", "Reference FASTA path")
	fastaIndexPath = flag.String("fasta-index", "", "Reference FASTA .fai index path; if set, the reference is read lazily by seek instead of loaded fully into memory")
	regionFlag     = flag.String("region", "", "Restrict calling to one region (<contig>, <contig>:<pos>, or <contig>:<first>-<last>); default is every contig in the first BAM's header")
	outPath        = flag.String("out", "varcall.vcf", "Output VCF path; a trailing .gz gzip-compresses the output")
	callerKindFlag = flag.String("caller-kind", "individual", "Joint-inference strategy: individual, population, trio, or tumor_normal")
	modeFlag       = flag.String("mode", "germline", "Candidate inclusion mode: germline, somatic, or single_cell")
	errorModelFlag = flag.String("error-model", "novaseq", "Sequencer error model: novaseq or hiseq")
	ploidy         = flag.Int("ploidy", 2, "Sample ploidy")
	parallelism    = flag.Int("parallelism", 0, "Number of regions to process concurrently; 0 = runtime.NumCPU()")
	priorKindFlag  = flag.String("prior", "coalescent", "Genotype prior: coalescent or uniform")

	minVariantPosterior = flag.Float64("min-variant-posterior", 3.0103, "Phred-scaled minimum allele posterior to emit a germline call")
	minDenovoPosterior  = flag.Float64("min-denovo-posterior", 3.0103, "Phred-scaled minimum de-novo posterior to emit a trio de-novo call")
	minSomaticPosterior = flag.Float64("min-somatic-posterior", 3.0103, "Phred-scaled minimum somatic posterior to emit a tumor/normal somatic call")
	minPhaseScore       = flag.Float64("min-phase-score", 10.0, "Phred-scaled minimum genotype confidence to report a window's PS phase set")
)

func varcallUsage() {
	fmt.Printf("Usage: %s -bam BAM[,BAM...] -fasta FASTA [OPTIONS]\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func parseCallerKind(s string) (caller.Kind, error) {
	switch s {
	case "individual":
		return caller.Individual, nil
	case "population":
		return caller.Population, nil
	case "trio":
		return caller.Trio, nil
	case "tumor_normal":
		return caller.TumorNormal, nil
	default:
		return 0, fmt.Errorf("unknown -caller-kind %q", s)
	}
}

func parseMode(s string) (vargen.Mode, error) {
	switch s {
	case "germline":
		return vargen.Germline, nil
	case "somatic":
		return vargen.Somatic, nil
	case "single_cell":
		return vargen.SingleCell, nil
	default:
		return 0, fmt.Errorf("unknown -mode %q", s)
	}
}

func parseErrorModel(s string) (errormodel.Model, error) {
	switch s {
	case "novaseq":
		return errormodel.NovaSeq{}, nil
	case "hiseq":
		return errormodel.HiSeq{}, nil
	default:
		return nil, fmt.Errorf("unknown -error-model %q", s)
	}
}

// openReference opens the reference at path. With indexPath empty, the
// whole FASTA is read into memory via encoding/fasta.New (spec.md
// Non-goals exclude whole-genome-scale references, so this is the
// default). With indexPath naming a samtools-style .fai, the reference is
// instead opened lazily via encoding/fasta.NewIndexed, which seeks into
// the FASTA file on every Get rather than paying the up-front memory cost
// — the FASTA file handle is kept open for the caller's lifetime in that
// case, since every subsequent region's haplotype-window fetches read
// through it.
func openReference(ctx context.Context, path, indexPath string) (reference *refio.Reference, err error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if indexPath == "" {
		defer file.CloseAndReport(ctx, f, &err)
		var src fasta.Fasta
		src, err = fasta.New(f.Reader(ctx))
		if err != nil {
			return nil, err
		}
		return refio.New(src), nil
	}

	idxFile, err := file.Open(ctx, indexPath)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, idxFile, &err)
	var src fasta.Fasta
	src, err = fasta.NewIndexed(f.Reader(ctx), idxFile.Reader(ctx))
	if err != nil {
		return nil, err
	}
	return refio.New(src), nil
}

func openSample(ctx context.Context, name, bamPath string) (sample pipeline.Sample, err error) {
	f, err := file.Open(ctx, bamPath)
	if err != nil {
		return pipeline.Sample{}, err
	}
	defer file.CloseAndReport(ctx, f, &err)
	reader, err := alnio.Open(f.Reader(ctx))
	if err != nil {
		return pipeline.Sample{}, err
	}
	if name == "" {
		if samples := reader.Samples(); len(samples) == 1 {
			name = samples[0]
		} else {
			name = bamPath
		}
	}
	return pipeline.Sample{ID: name, Alignments: reader}, nil
}

// regionsToRun resolves -region, if given, against reference's contig
// lengths; otherwise it falls back to every reference sequence, whole, in
// the first sample's BAM header, per alnio.Reader.PossibleRegions.
func regionsToRun(reference *refio.Reference, samples []pipeline.Sample, regionStr string) ([]genome.Region, error) {
	if regionStr != "" {
		r, err := genome.ParseRegion(regionStr)
		if err != nil {
			return nil, err
		}
		if r.End == genome.WholeContig {
			contigLen, err := reference.ContigLength(r.Contig)
			if err != nil {
				return nil, err
			}
			r = genome.ResolveRegion(r, contigLen)
		}
		return []genome.Region{r}, nil
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to derive regions from")
	}
	first, ok := samples[0].Alignments.(*alnio.Reader)
	if !ok {
		return nil, fmt.Errorf("no -region given and the first sample is not a BAM source to derive default regions from")
	}
	return first.PossibleRegions(), nil
}

// buildPriorOptions fills in Options.Prior or Options.PriorFactory for
// kind. Coalescent is bound to each region's own arena via PriorFactory
// (see pipeline.Driver.priorModel), since a single fixed Coalescent
// instance is only valid against the arena it was constructed from and
// Driver.RunRegion builds a fresh arena per region.
func buildPriorOptions(opts *pipeline.Options, kind string, numHaplotypes int) error {
	switch kind {
	case "coalescent":
		params := prior.DefaultCoalescentParameters()
		opts.PriorFactory = func(arena *haplotype.Arena) prior.Model {
			return prior.NewCoalescent(arena, params)
		}
	case "uniform":
		opts.Prior = prior.Uniform{NumHaplotypes: numHaplotypes, Ploidy: opts.Ploidy}
	default:
		return fmt.Errorf("unknown -prior %q", kind)
	}
	return nil
}

func main() {
	flag.Usage = varcallUsage
	shutdown := grail.Init()
	defer shutdown()

	if *bamPaths == "" || *fastaPath == "" {
		log.Fatalf("-bam and -fasta are required")
	}

	kind, err := parseCallerKind(*callerKindFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	scanMode, err := parseMode(*modeFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}
	model, err := parseErrorModel(*errorModelFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	bams := splitNonEmpty(*bamPaths)
	names := splitNonEmpty(*sampleNames)
	if len(names) != 0 && len(names) != len(bams) {
		log.Fatalf("-samples has %d entries but -bam has %d", len(names), len(bams))
	}

	ctx := vcontext.Background()
	reference, err := openReference(ctx, *fastaPath, *fastaIndexPath)
	if err != nil {
		log.Fatalf("opening reference: %v", err)
	}

	samples := make([]pipeline.Sample, len(bams))
	for i, path := range bams {
		name := ""
		if len(names) != 0 {
			name = names[i]
		}
		s, err := openSample(ctx, name, path)
		if err != nil {
			log.Fatalf("opening %s: %v", path, err)
		}
		samples[i] = s
	}

	regions, err := regionsToRun(reference, samples, *regionFlag)
	if err != nil {
		log.Fatalf("resolving regions: %v", err)
	}

	workers := *parallelism
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	phaserOpts := phaser.DefaultOptions()
	opts := pipeline.Options{
		Parallelism:   workers,
		Ploidy:        *ploidy,
		Mode:          scanMode,
		Kind:          kind,
		VargenOptions: vargen.DefaultOptions(),
		PhaserOptions: phaserOpts,
		ErrorModel:    model,

		MinVariantPosterior: *minVariantPosterior,
		MinDeNovoPosterior:  *minDenovoPosterior,
		MinSomaticPosterior: *minSomaticPosterior,
		MinPhaseScore:       *minPhaseScore,
	}
	if err := buildPriorOptions(&opts, *priorKindFlag, phaserOpts.MaxHaplotypes); err != nil {
		log.Fatalf("%v", err)
	}
	if kind == caller.Trio || kind == caller.TumorNormal {
		params := prior.DefaultDeNovoParameters()
		opts.DeNovoFactory = func(arena *haplotype.Arena) *prior.DeNovo {
			return prior.NewDeNovo(arena, params)
		}
	}

	driver := pipeline.NewDriver(opts, reference, samples)
	results, err := driver.Run(regions)
	if err != nil {
		log.Panicf("%v", err)
	}

	if err := writeResults(ctx, *outPath, sampleIDs(samples), results); err != nil {
		log.Panicf("writing output: %v", err)
	}
	log.Printf("varcall: wrote %d region(s) of calls to %s", len(results), *outPath)
}

func sampleIDs(samples []pipeline.Sample) []string {
	ids := make([]string, len(samples))
	for i, s := range samples {
		ids[i] = s.ID
	}
	return ids
}

func writeResults(ctx context.Context, path string, samples []string, results []pipeline.RegionResult) (err error) {
	dst, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, dst, &err)

	var w *vcfsink.Writer
	if strings.HasSuffix(path, ".gz") {
		w, err = vcfsink.NewGzipWriter(dst.Writer(ctx), samples)
	} else {
		w, err = vcfsink.NewWriter(dst.Writer(ctx), samples)
	}
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); err == nil {
			err = closeErr
		}
	}()

	for _, region := range results {
		for _, rec := range region.Records {
			if writeErr := w.WriteRecord(region.Arena, rec); writeErr != nil {
				return writeErr
			}
		}
	}
	return nil
}
