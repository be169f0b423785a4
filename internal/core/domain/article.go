package domain

// RegulatoryArticle is one article of the regulatory corpus.
// Static reference data, versioned by corpus revision.
type RegulatoryArticle struct {
	// ID is the unique identifier for the article.
	ID string

	// SourceDoc is the regulatory document the article came from.
	SourceDoc string

	// SectionRef is the section heading reference (e.g. "SECTION 2").
	SectionRef string

	// ArticleRef is the article citation (e.g. "2.1.1").
	ArticleRef string

	// Category is the regulatory area the article belongs to.
	Category Category

	// Text is the full article text.
	Text string
}

// Citation returns the canonical "sourceDoc:articleRef" citation string
// used in Gap records.
func (a RegulatoryArticle) Citation() string {
	if a.ArticleRef == "" {
		return a.SourceDoc
	}
	return a.SourceDoc + ":" + a.ArticleRef
}
