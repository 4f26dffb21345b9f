// Package pubmed searches NCBI PubMed through the E-utilities API and maps
// articles onto evidence items.
package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"telehealth-agent/internal/common/errors"
	commonhttp "telehealth-agent/internal/common/http"
	"telehealth-agent/internal/models"
)

const (
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DefaultTool    = "webfaqmcp"
	ArticleURLBase = "https://pubmed.ncbi.nlm.nih.gov/"

	snippetLength = 300
)

type Options struct {
	BaseURL string
	Email   string
	Tool    string
	Timeout time.Duration
}

// Client implements literature search against PubMed.
type Client struct {
	http    *commonhttp.Client
	baseURL string
	email   string
	tool    string
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Tool == "" {
		opts.Tool = DefaultTool
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		http:    commonhttp.NewClient(opts.Timeout).WithUserAgent(opts.Tool),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		email:   opts.Email,
		tool:    opts.Tool,
	}
}

// Search runs esearch then efetch and returns at most maxResults items in
// relevance order. A query with no hits returns an empty slice.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]models.EvidenceItem, error) {
	pmids, err := c.searchIDs(ctx, query, maxResults)
	if err != nil {
		return nil, c.classify(query, err)
	}
	if len(pmids) == 0 {
		return []models.EvidenceItem{}, nil
	}

	articles, err := c.fetchArticles(ctx, pmids)
	if err != nil {
		return nil, c.classify(query, err)
	}

	items := make([]models.EvidenceItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, a.toEvidence())
	}
	return items, nil
}

func (c *Client) classify(query string, err error) error {
	if commonhttp.IsTimeout(err) {
		return errors.NewLiteratureTimeoutError(query).WithMetadata("cause", err.Error())
	}
	return errors.NewLiteratureSearchError(query, err)
}

func (c *Client) commonParams() url.Values {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("retmode", "xml")
	if c.email != "" {
		params.Set("email", c.email)
	}
	if c.tool != "" {
		params.Set("tool", c.tool)
	}
	return params
}

type eSearchResult struct {
	IDs []string `xml:"IdList>Id"`
}

func (c *Client) searchIDs(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := c.commonParams()
	params.Set("term", query)
	params.Set("retmax", strconv.Itoa(maxResults))
	params.Set("sort", "relevance")

	body, err := c.http.Get(ctx, c.baseURL+"/esearch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}

	var result eSearchResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode esearch: %w", err)
	}

	ids := make([]string, 0, len(result.IDs))
	for _, id := range result.IDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (c *Client) fetchArticles(ctx context.Context, pmids []string) ([]Article, error) {
	params := c.commonParams()
	params.Set("id", strings.Join(pmids, ","))
	params.Set("rettype", "abstract")

	body, err := c.http.Get(ctx, c.baseURL+"/efetch.fcgi", params)
	if err != nil {
		return nil, fmt.Errorf("efetch: %w", err)
	}
	return ParseArticles(body)
}
