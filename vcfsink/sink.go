// Package vcfsink writes caller/callextract (C10/C11) output as VCF-shaped
// text records, optionally gzip-compressed, the call-sink half of
// spec.md §6 "Output sink". Grounded on pileup/snp/output.go's TSV-column
// writer idiom (github.com/grailbio/base/tsv.Writer, one WriteX call per
// column, EndLine/Flush at row/stream boundaries) and
// encoding/bam/gindex.go's gzip.Writer wrapping for compressed output.
package vcfsink

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/varcall/allele"
	"github.com/grailbio/varcall/genotype"
	"github.com/grailbio/varcall/haplotype"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
)

// SampleCall is one sample's genotype call at a site, the row-level unit
// CallTrio/IndividualCaller.MAP/etc. produce.
type SampleCall struct {
	Genotype genotype.Genotype
	Quality  float64 // Phred-scaled, per callextract's genotypeQuality
}

// RecordKind classifies a Record by how callextract's posterior gating
// decided it, per spec.md §6's call-sink record kinds "{germline, de-novo,
// somatic, reference}".
type RecordKind int

const (
	// Germline is an ordinary inherited/transmitted call: the allele
	// posterior cleared min_variant_posterior.
	Germline RecordKind = iota
	// DeNovo is a trio call present in the child but neither parent, whose
	// de-novo posterior cleared min_denovo_posterior.
	DeNovo
	// Somatic is a tumor/normal call present in the tumor but not the
	// paired normal, whose somatic posterior cleared min_somatic_posterior.
	Somatic
	// Reference is a confidently-homozygous-reference call reported
	// despite carrying no alt allele (e.g. a gVCF-style reference block),
	// per min_refcall_posterior.
	Reference
)

// String renders k the way the INFO VC tag and tests expect.
func (k RecordKind) String() string {
	switch k {
	case Germline:
		return "germline"
	case DeNovo:
		return "de_novo"
	case Somatic:
		return "somatic"
	case Reference:
		return "reference"
	default:
		return "unknown"
	}
}

// Record is one VCF data line: a variant plus one SampleCall per sample, in
// the same order as the Writer's declared sample names.
type Record struct {
	Variant allele.Variant
	Filter  string // "PASS", or a semicolon-joined failing-filter list
	Info    map[string]string
	Samples []SampleCall

	Kind RecordKind
	// Depth is the total read depth backing Variant at its region (C7's
	// Candidate.Depth), written as the DP FORMAT field.
	Depth int
	// MeanMappingQuality is the mean MAPQ of Variant's supporting reads
	// (C7's Candidate.MappingQualities), written as the MQ FORMAT field.
	MeanMappingQuality float64
	// PhaseSet is the phaser.Generator phase-set id the haplotype this
	// record was called from belongs to, or 0 if the site isn't
	// confidently phased (no PS is written in that case), per spec.md §4.8
	// cross-window haplotype retention and §9's PS FORMAT field.
	PhaseSet int
}

// Writer emits VCF text to an underlying io.Writer, gzip-compressing if
// constructed with NewGzipWriter. Not safe for concurrent use by multiple
// goroutines, matching tsv.Writer's own contract.
type Writer struct {
	tsv     *tsv.Writer
	gz      *gzip.Writer
	samples []string
}

// NewWriter returns a Writer over dst, writing the VCF header (including
// the #CHROM line naming samples) before returning.
func NewWriter(dst io.Writer, samples []string) (*Writer, error) {
	w := &Writer{tsv: tsv.NewWriter(dst), samples: samples}
	if err := w.writeHeader(); err != nil {
		return nil, err
	}
	return w, nil
}

// NewGzipWriter returns a Writer whose output is gzip-compressed before
// reaching dst, per encoding/bam/gindex.go's gzip.Writer wrapping idiom.
// The caller is still responsible for closing dst itself.
func NewGzipWriter(dst io.Writer, samples []string) (*Writer, error) {
	gz := gzip.NewWriter(dst)
	w := &Writer{tsv: tsv.NewWriter(gz), gz: gz, samples: samples}
	if err := w.writeHeader(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeHeader() error {
	lines := []string{
		"##fileformat=VCFv4.2",
		`##INFO=<ID=DP,Number=1,Type=Integer,Description="Total read depth">`,
		`##INFO=<ID=VC,Number=1,Type=String,Description="Record kind: germline, de_novo, somatic, or reference">`,
		`##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">`,
		`##FORMAT=<ID=GQ,Number=1,Type=Float,Description="Genotype quality, Phred-scaled">`,
		`##FORMAT=<ID=DP,Number=1,Type=Integer,Description="Read depth">`,
		`##FORMAT=<ID=MQ,Number=1,Type=Float,Description="Mean mapping quality of supporting reads">`,
		`##FORMAT=<ID=PS,Number=1,Type=Integer,Description="Phase set">`,
	}
	for _, l := range lines {
		w.tsv.WriteString(l)
		if err := w.tsv.EndLine(); err != nil {
			return err
		}
	}
	w.tsv.WriteString("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT")
	for _, s := range w.samples {
		w.tsv.WriteByte('\t')
		w.tsv.WriteString(s)
	}
	return w.tsv.EndLine()
}

// WriteRecord writes one VCF data line for rec. The Arena resolves each
// sample's Genotype haplotype handles to GT allele indices (0 for
// reference, 1 for rec.Variant.Alt).
func (w *Writer) WriteRecord(arena *haplotype.Arena, rec Record) error {
	region := rec.Variant.Region()
	w.tsv.WriteString(region.Contig)
	w.tsv.WriteByte('\t')
	w.tsv.WriteString(strconv.FormatInt(int64(region.Begin)+1, 10)) // VCF POS is 1-based
	w.tsv.WriteByte('\t')
	w.tsv.WriteString(".") // ID
	w.tsv.WriteByte('\t')
	w.tsv.WriteString(refString(rec.Variant))
	w.tsv.WriteByte('\t')
	w.tsv.WriteString(altString(rec.Variant))
	w.tsv.WriteByte('\t')
	w.tsv.WriteString(".") // QUAL: site-level quality is not modeled independently of per-sample GQ
	w.tsv.WriteByte('\t')
	filter := rec.Filter
	if filter == "" {
		filter = "PASS"
	}
	w.tsv.WriteString(filter)
	w.tsv.WriteByte('\t')
	w.tsv.WriteString(infoString(withCallInfo(rec)))
	w.tsv.WriteByte('\t')
	format := "GT:GQ:DP:MQ"
	if rec.PhaseSet != 0 {
		format += ":PS"
	}
	w.tsv.WriteString(format)
	for _, sc := range rec.Samples {
		w.tsv.WriteByte('\t')
		w.tsv.WriteString(genotypeString(arena, sc.Genotype, rec.Variant.Alt))
		w.tsv.WriteByte(':')
		w.tsv.WriteString(strconv.FormatFloat(sc.Quality, 'f', 2, 64))
		w.tsv.WriteByte(':')
		w.tsv.WriteString(strconv.Itoa(rec.Depth))
		w.tsv.WriteByte(':')
		w.tsv.WriteString(strconv.FormatFloat(rec.MeanMappingQuality, 'f', 1, 64))
		if rec.PhaseSet != 0 {
			w.tsv.WriteByte(':')
			w.tsv.WriteString(strconv.Itoa(rec.PhaseSet))
		}
	}
	return w.tsv.EndLine()
}

// refString returns the variant's REF column: its reference-allele
// sequence, or the single reference base immediately before an insertion
// point (VCF has no native representation of a zero-length REF).
func refString(v allele.Variant) string {
	if len(v.Ref.Sequence) == 0 {
		return "N"
	}
	return string(v.Ref.Sequence)
}

// altString returns the variant's ALT column.
func altString(v allele.Variant) string {
	if len(v.Alt.Sequence) == 0 {
		return "<DEL>"
	}
	return string(v.Alt.Sequence)
}

// withCallInfo returns rec.Info with VC (rec.Kind) and DP (rec.Depth) added,
// leaving rec.Info itself untouched.
func withCallInfo(rec Record) map[string]string {
	info := make(map[string]string, len(rec.Info)+2)
	for k, v := range rec.Info {
		info[k] = v
	}
	info["VC"] = rec.Kind.String()
	info["DP"] = strconv.Itoa(rec.Depth)
	return info
}

// infoString renders an INFO map in VCF's semicolon-joined key=value form,
// sorted by key is not required by the format and is skipped here for
// simplicity (map iteration order is already arbitrary upstream).
func infoString(info map[string]string) string {
	if len(info) == 0 {
		return "."
	}
	parts := make([]string, 0, len(info))
	for k, v := range info {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	return strings.Join(parts, ";")
}

// genotypeString renders g as a VCF GT field, indexing each haplotype copy
// as 0 (does not carry alt) or 1 (carries alt), slash-separated per VCF's
// unphased-genotype convention.
func genotypeString(arena *haplotype.Arena, g genotype.Genotype, alt allele.Allele) string {
	alleleIdx := make([]string, len(g.Haplotypes))
	for i, h := range g.Haplotypes {
		if arena.Get(h).Contains(alt) {
			alleleIdx[i] = "1"
		} else {
			alleleIdx[i] = "0"
		}
	}
	return strings.Join(alleleIdx, "/")
}

// Close flushes buffered output and, if this Writer owns a gzip.Writer,
// closes it. It does not close the underlying io.Writer passed to
// NewWriter/NewGzipWriter, matching encoding/bam/gindex.go's convention of
// leaving the destination file's lifetime to its opener.
func (w *Writer) Close() error {
	if err := w.tsv.Flush(); err != nil {
		return err
	}
	if w.gz != nil {
		return w.gz.Close()
	}
	return nil
}
