package profile

import (
	"strings"
	"testing"
)

func sampleDocument() *Document {
	doc := &Document{Profile: Profile{IASScore: 71, Summary: "Un parcours solide."}}
	for i, name := range Criteria {
		doc.Profile.Criteria = append(doc.Profile.Criteria, Criterion{
			Name:    name,
			Score:   (i % 10) + 1,
			Comment: "Commentaire " + name,
		})
	}
	return doc
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	out, err := Export(sampleDocument(), FormatCSV)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 11 { // header + ten criteria
		t.Fatalf("CSV line count = %d, want 11", len(lines))
	}
	if lines[0] != "Critère,Score,Commentaire" {
		t.Fatalf("CSV header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Capital culturel incorporé,1,") {
		t.Fatalf("first data row = %q", lines[1])
	}
}

func TestExportText(t *testing.T) {
	t.Parallel()

	out, err := Export(sampleDocument(), FormatText)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if !strings.HasPrefix(out, "PROFIL TAFAHOM\n\nScore IAS global: 71/100\n\nCRITÈRES:\n") {
		t.Fatalf("text header wrong:\n%s", out)
	}
	if !strings.Contains(out, "- Capital objectivé: 2/10\n") {
		t.Fatalf("criterion line missing:\n%s", out)
	}
	if !strings.HasSuffix(out, "SYNTHÈSE:\nUn parcours solide.") {
		t.Fatalf("summary footer wrong:\n%s", out)
	}
}

func TestExportJSONRoundTrip(t *testing.T) {
	t.Parallel()

	doc := sampleDocument()
	out, err := Export(doc, FormatJSON)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	decoded, err := DecodeDocument(out)
	if err != nil {
		t.Fatalf("DecodeDocument on exported JSON: %v", err)
	}
	if decoded.Profile.IASScore != doc.Profile.IASScore {
		t.Fatalf("IAS = %d, want %d", decoded.Profile.IASScore, doc.Profile.IASScore)
	}
	if len(decoded.Profile.Criteria) != len(doc.Profile.Criteria) {
		t.Fatalf("criteria count = %d, want %d", len(decoded.Profile.Criteria), len(doc.Profile.Criteria))
	}
}

func TestExportUnknownFormat(t *testing.T) {
	t.Parallel()

	if _, err := Export(sampleDocument(), "pdf"); err == nil {
		t.Fatal("Export accepted an unknown format")
	}
}
