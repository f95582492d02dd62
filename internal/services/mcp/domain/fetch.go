package domain

import (
	"context"

	"github.com/louisbranch/dungeonkit/internal/webpage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PageFetcher loads and extracts a web page.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (webpage.Page, error)
}

// FetchPageInput represents the MCP tool input for page fetching.
type FetchPageInput struct {
	URL string `json:"url" jsonschema:"absolute http or https URL"`
}

// PageLink represents a link found on a page.
type PageLink struct {
	Text string `json:"text" jsonschema:"link text"`
	Href string `json:"href" jsonschema:"absolute link target"`
}

// FetchPageResult represents the MCP tool output for page fetching.
type FetchPageResult struct {
	URL       string     `json:"url" jsonschema:"URL that was fetched"`
	Status    int        `json:"status" jsonschema:"HTTP status code"`
	Title     string     `json:"title" jsonschema:"document title"`
	Text      string     `json:"text" jsonschema:"visible text with whitespace collapsed"`
	Truncated bool       `json:"truncated" jsonschema:"whether text was cut at the size limit"`
	Links     []PageLink `json:"links" jsonschema:"links in document order"`
}

// FetchPageTool defines the MCP tool schema for page fetching.
func FetchPageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "fetch_page",
		Description: "Fetches a web page and returns its title, visible text and links",
	}
}

// FetchPageHandler fetches and extracts a page.
func FetchPageHandler(fetcher PageFetcher) mcp.ToolHandlerFor[FetchPageInput, FetchPageResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input FetchPageInput) (*mcp.CallToolResult, FetchPageResult, error) {
		page, err := fetcher.Fetch(ctx, input.URL)
		if err != nil {
			return nil, FetchPageResult{}, fetchError(input.URL, err)
		}

		links := make([]PageLink, 0, len(page.Links))
		for _, link := range page.Links {
			links = append(links, PageLink{Text: link.Text, Href: link.Href})
		}
		return nil, FetchPageResult{
			URL:       page.URL,
			Status:    page.Status,
			Title:     page.Title,
			Text:      page.Text,
			Truncated: page.Truncated,
			Links:     links,
		}, nil
	}
}
