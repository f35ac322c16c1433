package ingestion_engine

import (
	"strings"
	"testing"
)

func TestLoadMetadataCSV(t *testing.T) {
	table, err := LoadMetadataCSV(strings.NewReader("\ufeffFilename,ISIN,extra\nx.pdf,NO9,ignored\n,NO0,\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 1 || table["x.pdf"].ISIN != "NO9" {
		t.Fatalf("table = %+v", table)
	}
	if m, ok := table.Lookup(`C:\docs\x.pdf`); !ok || m.ISIN != "NO9" {
		t.Fatalf("lookup by path failed: %+v %v", m, ok)
	}
}

func TestLoadMetadataCSVRequiresFilename(t *testing.T) {
	if _, err := LoadMetadataCSV(strings.NewReader("isin\nNO1\n")); err == nil {
		t.Fatal("expected error")
	}
	if _, err := LoadMetadataCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty csv")
	}
}

func TestChunkTextOverlap(t *testing.T) {
	lines := []string{"aaaa", "bbbb", "cccc", "dddd"} // one token each
	got := chunkText(3, lines, 2, 1)
	want := []string{"aaaa\nbbbb", "bbbb\ncccc", "cccc\ndddd"}
	if len(got) != len(want) {
		t.Fatalf("chunks = %+v", got)
	}
	for i := range want {
		if got[i].Text != want[i] || got[i].Page != 3 {
			t.Errorf("chunk %d = %+v", i, got[i])
		}
	}
}

func TestContentTypeFor(t *testing.T) {
	if ContentTypeFor("Report.PDF") != "application/pdf" {
		t.Fatal("pdf not detected")
	}
}
