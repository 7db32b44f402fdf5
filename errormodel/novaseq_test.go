package errormodel

import "testing"

func TestNovaSeqHomopolymerSplitsATvsCG(t *testing.T) {
	// "AAAAAAAAAA" (10 A's): period-1 run of 10, periodicity 10.
	at := NovaSeq{}.Evaluate([]byte("AAAAAAAAAA"))
	cg := NovaSeq{}.Evaluate([]byte("CCCCCCCCCC"))
	if at[9] == cg[9] {
		t.Fatalf("expected AT and CG homopolymer penalties to differ at length 10, got %d for both", at[9])
	}
	if got, want := at[9], tableLookup(&novaSeqATHomopolymer, 10); got != want {
		t.Errorf("AT homopolymer penalty = %d, want %d", got, want)
	}
	if got, want := cg[9], tableLookup(&novaSeqCGHomopolymer, 10); got != want {
		t.Errorf("CG homopolymer penalty = %d, want %d", got, want)
	}
}

func TestNovaSeqDinucleotideCGDiscount(t *testing.T) {
	// "CGCGCGCGCGCGCG" repeats CG seven times; lookup at periodicity 7
	// exceeds 7 in the base table, so the CG/GC discount applies.
	seq := []byte("CGCGCGCGCGCGCG")
	pens := NovaSeq{}.Evaluate(seq)
	base := tableLookup(&novaSeqDinucleotide, 7)
	want := base
	if base > 7 {
		want = base - 2
	}
	if pens[len(seq)-1] != want {
		t.Errorf("dinucleotide CG penalty = %d, want %d (base %d)", pens[len(seq)-1], want, base)
	}
}

func TestPeriodicityClampsAtTableEnd(t *testing.T) {
	seq := make([]byte, 200)
	for i := range seq {
		seq[i] = 'A'
	}
	pens := NovaSeq{}.Evaluate(seq)
	if got, want := pens[len(seq)-1], novaSeqATHomopolymer[49]; got != want {
		t.Errorf("clamped penalty = %d, want final table entry %d", got, want)
	}
}

func TestHiSeqSingleHomopolymerTable(t *testing.T) {
	at := HiSeq{}.Evaluate([]byte("AAAAAAAAAA"))
	cg := HiSeq{}.Evaluate([]byte("CCCCCCCCCC"))
	if at[9] != cg[9] {
		t.Errorf("HiSeq should use one homopolymer table regardless of base, got %d vs %d", at[9], cg[9])
	}
}
