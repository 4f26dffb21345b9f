package pubmed

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"telehealth-agent/internal/models"
)

// Article is the subset of a PubmedArticle the service uses.
type Article struct {
	PMID            string
	Title           string
	Abstract        string
	Journal         string
	PublicationDate string
	Population      string
}

// innerText collects all character data of an element, including text
// nested in inline markup such as <i> or <sup>.
type innerText string

func (t *innerText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.CharData:
			sb.Write(v)
		case xml.EndElement:
			if v.Name == start.Name {
				*t = innerText(strings.TrimSpace(sb.String()))
				return nil
			}
		}
	}
}

type pubDate struct {
	Year  string `xml:"Year"`
	Month string `xml:"Month"`
}

type rawArticle struct {
	PMID     string      `xml:"MedlineCitation>PMID"`
	Title    innerText   `xml:"MedlineCitation>Article>ArticleTitle"`
	Abstract []innerText `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	Journal  string      `xml:"MedlineCitation>Article>Journal>Title"`
	PubDate  pubDate     `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate"`
}

type articleSet struct {
	Articles []rawArticle `xml:"PubmedArticle"`
}

// ParseArticles decodes an efetch response. Articles without a PMID or
// title are skipped.
func ParseArticles(body []byte) ([]Article, error) {
	var set articleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("decode efetch: %w", err)
	}

	articles := make([]Article, 0, len(set.Articles))
	for _, raw := range set.Articles {
		pmid := strings.TrimSpace(raw.PMID)
		title := string(raw.Title)
		if pmid == "" || title == "" {
			continue
		}

		var abstract string
		if len(raw.Abstract) > 0 {
			abstract = string(raw.Abstract[0])
		}

		articles = append(articles, Article{
			PMID:            pmid,
			Title:           title,
			Abstract:        abstract,
			Journal:         strings.TrimSpace(raw.Journal),
			PublicationDate: formatPubDate(raw.PubDate),
			Population:      DeterminePopulation(title, abstract),
		})
	}
	return articles, nil
}

var monthNames = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04", "may": "05", "jun": "06",
	"jul": "07", "aug": "08", "sep": "09", "oct": "10", "nov": "11", "dec": "12",
}

// formatPubDate renders YYYY-MM-01. Month names are mapped to numbers;
// a missing or unknown month becomes 01.
func formatPubDate(d pubDate) string {
	year := strings.TrimSpace(d.Year)
	if year == "" {
		return ""
	}

	month := "01"
	m := strings.TrimSpace(d.Month)
	if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= 12 {
		month = fmt.Sprintf("%02d", n)
	} else if len(m) >= 3 {
		if mm, ok := monthNames[strings.ToLower(m[:3])]; ok {
			month = mm
		}
	}
	return fmt.Sprintf("%s-%s-01", year, month)
}

var populationRules = []struct {
	label    string
	keywords []string
}{
	{"Pregnant women", []string{"pregnant", "pregnancy", "gestational", "maternal", "obstetric"}},
	{"Postpartum women", []string{"postpartum", "postnatal", "breastfeeding", "lactation"}},
	{"Cardiac patients", []string{"cardiac", "cardiovascular", "heart", "coronary"}},
	{"Pediatric patients", []string{"pediatric", "child", "infant", "neonatal"}},
}

// DeterminePopulation guesses the studied population from title and abstract.
func DeterminePopulation(title, abstract string) string {
	text := strings.ToLower(title + " " + abstract)
	for _, rule := range populationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.label
			}
		}
	}
	return "General population"
}

// Snippet truncates text to 300 characters, appending "..." when cut.
func Snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}

func (a Article) URL() string {
	return ArticleURLBase + a.PMID + "/"
}

func (a Article) toEvidence() models.EvidenceItem {
	snippet := Snippet(a.Abstract)
	return models.EvidenceItem{
		Question:        a.Title,
		Answer:          snippet,
		PublicationDate: a.PublicationDate,
		Population:      a.Population,
		Sources: []models.SourceRecord{{
			Title:      a.Title,
			ExternalID: a.PMID,
			URL:        a.URL(),
			Content:    snippet,
		}},
	}
}
