package serialize

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hildam/paper-qa-go/entity/model"
)

func TestChunks_Empty(t *testing.T) {
	if got := Chunks(nil); got != "" {
		t.Errorf("Chunks(nil) = %q, want empty string", got)
	}
	if got := Chunks([]model.Passage{}); got != "" {
		t.Errorf("Chunks(empty) = %q, want empty string", got)
	}
}

func TestChunks_Format(t *testing.T) {
	passages := []model.Passage{
		{Content: "  cosine similarity is commonly used  ", Page: "3"},
		{Content: "vectors are stored in an index", Page: ""},
	}
	want := "Chunk 1 (page=3):\ncosine similarity is commonly used\n\nChunk 2 (page=unknown):\nvectors are stored in an index"
	if diff := cmp.Diff(want, Chunks(passages)); diff != "" {
		t.Errorf("Chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestChunks_Deterministic(t *testing.T) {
	passages := []model.Passage{
		{Content: "alpha", Page: "1"},
		{Content: "beta", Page: "2"},
		{Content: "gamma"},
	}
	first := Chunks(passages)
	second := Chunks(passages)
	if first != second {
		t.Errorf("Chunks is not deterministic:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestChunks_OrderSensitive(t *testing.T) {
	a := []model.Passage{{Content: "x", Page: "1"}, {Content: "y", Page: "2"}}
	b := []model.Passage{{Content: "y", Page: "2"}, {Content: "x", Page: "1"}}
	if Chunks(a) == Chunks(b) {
		t.Error("Chunks should renumber by input order, reordered input must differ")
	}
}
