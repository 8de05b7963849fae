package applications

// RequiredTypes lists the document types a position asks for before the
// interview. A transcript is always required.
func RequiredTypes(p Position) []DocType {
	types := []DocType{DocTranscript}
	if p.ResumeRequired {
		types = append(types, DocResume)
	}
	if p.PortfolioRequired {
		types = append(types, DocPortfolio)
	}
	return types
}

// IsComplete reports whether every required type has been uploaded.
func IsComplete(required, uploaded []DocType) bool {
	have := make(map[DocType]bool, len(uploaded))
	for _, t := range uploaded {
		have[t] = true
	}
	for _, t := range required {
		if !have[t] {
			return false
		}
	}
	return true
}

func isRequired(p Position, t DocType) bool {
	for _, r := range RequiredTypes(p) {
		if r == t {
			return true
		}
	}
	return false
}

func uploadedTypes(docs []Document) []DocType {
	out := make([]DocType, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.DocType)
	}
	return out
}

func hasDocument(docs []Document, t DocType) bool {
	for _, d := range docs {
		if d.DocType == t {
			return true
		}
	}
	return false
}

// awaitingReview reports whether any document still needs an admin verdict.
func awaitingReview(docs []Document) bool {
	for _, d := range docs {
		if d.Validation == ValidationPending {
			return true
		}
	}
	return false
}

// allVerified is the completion rule: at least one document, none pending
// or rejected.
func allVerified(docs []Document) bool {
	if len(docs) == 0 {
		return false
	}
	for _, d := range docs {
		if d.Validation != ValidationVerified {
			return false
		}
	}
	return true
}
