package services

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/regready/internal/core/domain"
)

var (
	sectionRe = regexp.MustCompile(`(?i)^#{0,6}\s*(SECTION\s+\d+)\s*[:.\-]?\s*(.*)$`)
	articleRe = regexp.MustCompile(`(?i)^#{0,6}\s*Article\s+(\d+(?:\.\d+)*)\s*[:.\-]?\s*(.*)$`)
)

// categoryKeywords classifies a section heading into a regulatory area.
// Ordered so more specific phrases win over generic ones.
var categoryKeywords = []struct {
	keyword  string
	category domain.Category
}{
	{"data residency", domain.CategoryDataResidency},
	{"data protection", domain.CategoryDataResidency},
	{"data localisation", domain.CategoryDataResidency},
	{"anti-money", domain.CategoryAML},
	{"money laundering", domain.CategoryAML},
	{"aml", domain.CategoryAML},
	{"due diligence", domain.CategoryAML},
	{"licens", domain.CategoryLicensing},
	{"capital", domain.CategoryLicensing},
	{"authorisation", domain.CategoryLicensing},
	{"governance", domain.CategoryGovernance},
	{"board", domain.CategoryGovernance},
	{"compliance officer", domain.CategoryGovernance},
	{"report", domain.CategoryReporting},
	{"disclosure", domain.CategoryReporting},
	{"record", domain.CategoryDocumentation},
	{"documentation", domain.CategoryDocumentation},
}

// ParseArticles splits regulatory markdown into articles on
// `SECTION n` and `Article x.y.z` headings. Text before the first
// article heading of a section is attached to no article. The article
// category is inferred from its section heading.
func ParseArticles(sourceDoc, markdown string) []domain.RegulatoryArticle {
	var articles []domain.RegulatoryArticle

	var (
		sectionRef  string
		category    = domain.CategoryDocumentation
		articleRef  string
		articleHead string
		body        strings.Builder
	)

	flush := func() {
		if articleRef == "" {
			return
		}
		text := strings.TrimSpace(body.String())
		if articleHead != "" {
			if text != "" {
				text = articleHead + "\n" + text
			} else {
				text = articleHead
			}
		}
		if text == "" {
			return
		}
		articles = append(articles, domain.RegulatoryArticle{
			ID:         articleID(sourceDoc, articleRef),
			SourceDoc:  sourceDoc,
			SectionRef: sectionRef,
			ArticleRef: articleRef,
			Category:   category,
			Text:       text,
		})
	}

	for _, line := range strings.Split(markdown, "\n") {
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			flush()
			articleRef = ""
			articleHead = ""
			body.Reset()
			sectionRef = strings.ToUpper(m[1])
			category = classifyHeading(m[2])
			continue
		}
		if m := articleRe.FindStringSubmatch(line); m != nil {
			flush()
			body.Reset()
			articleRef = m[1]
			articleHead = strings.TrimSpace(m[2])
			continue
		}
		if articleRef != "" {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()

	return articles
}

// LoadCorpusDir parses every markdown file of a corpus directory, in
// file-name order so the resulting revision is deterministic.
func LoadCorpusDir(dir string) ([]domain.RegulatoryArticle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".markdown") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var articles []domain.RegulatoryArticle
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading corpus file %s: %w", name, err)
		}
		sourceDoc := strings.TrimSuffix(strings.TrimSuffix(name, ".markdown"), ".md")
		articles = append(articles, ParseArticles(sourceDoc, string(data))...)
	}

	return articles, nil
}

// classifyHeading maps a section title to a category, defaulting to
// documentation for unrecognised headings.
func classifyHeading(title string) domain.Category {
	lower := strings.ToLower(title)
	for _, entry := range categoryKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.category
		}
	}
	return domain.CategoryDocumentation
}

// articleID derives the stable article identifier.
func articleID(sourceDoc, articleRef string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(sourceDoc+":"+articleRef)).String()
}
