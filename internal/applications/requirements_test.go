package applications

import "testing"

func TestRequiredTypes(t *testing.T) {
	cases := []struct {
		name string
		pos  Position
		want []DocType
	}{
		{"transcript only", Position{}, []DocType{DocTranscript}},
		{"resume", Position{ResumeRequired: true}, []DocType{DocTranscript, DocResume}},
		{"all", Position{ResumeRequired: true, PortfolioRequired: true}, []DocType{DocTranscript, DocResume, DocPortfolio}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RequiredTypes(tc.pos)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestIsComplete(t *testing.T) {
	required := []DocType{DocTranscript, DocPortfolio}
	if IsComplete(required, []DocType{DocTranscript}) {
		t.Fatal("portfolio missing, expected incomplete")
	}
	if !IsComplete(required, []DocType{DocPortfolio, DocResume, DocTranscript}) {
		t.Fatal("extra uploads should not block completion")
	}
	if !IsComplete(nil, nil) {
		t.Fatal("empty requirement set is trivially complete")
	}
}

func TestAllVerified(t *testing.T) {
	verified := func(t DocType) Document { return Document{DocType: t, Validation: ValidationVerified} }
	if allVerified(nil) {
		t.Fatal("no documents cannot complete")
	}
	if allVerified([]Document{verified(DocTranscript), {DocType: DocRequestLetter, Validation: ValidationPending}}) {
		t.Fatal("pending letter must block completion")
	}
	if allVerified([]Document{verified(DocTranscript), {DocType: DocResume, Validation: ValidationInvalid}}) {
		t.Fatal("rejected resume must block completion")
	}
	if !allVerified([]Document{verified(DocTranscript)}) {
		t.Fatal("every row verified is complete")
	}
	if !allVerified([]Document{verified(DocTranscript), verified(DocRequestLetter)}) {
		t.Fatal("expected complete")
	}
}

func TestAwaitingReview(t *testing.T) {
	docs := []Document{{DocType: DocTranscript, Validation: ValidationVerified}, {DocType: DocResume, Validation: ValidationInvalid}}
	if awaitingReview(docs) {
		t.Fatal("nothing is pending")
	}
	docs = append(docs, Document{DocType: DocRequestLetter, Validation: ValidationPending})
	if !awaitingReview(docs) {
		t.Fatal("the letter is pending")
	}
	if !hasDocument(docs, DocResume) || hasDocument(docs, DocPortfolio) {
		t.Fatal("hasDocument mismatch")
	}
}

func TestParseDocType(t *testing.T) {
	for raw, want := range map[string]DocType{"transcript": DocTranscript, "Resume": DocResume, "3": DocPortfolio, "request-letter": DocRequestLetter} {
		got, ok := ParseDocType(raw)
		if !ok || got != want {
			t.Fatalf("ParseDocType(%q) = %v, %v", raw, got, ok)
		}
	}
	if _, ok := ParseDocType("5"); ok {
		t.Fatal("5 is not a document type")
	}
}
