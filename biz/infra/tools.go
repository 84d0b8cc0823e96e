/*
 * Copyright 2025 Abroad-Go Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package infra

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RanFeng/ilog"
	"github.com/cloudwego/eino-ext/components/document/parser/html"
	"github.com/cloudwego/eino-ext/components/tool/duckduckgo/ddgsearch"
	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"github.com/abroadgo/abroad-go/biz/consts"
	"github.com/abroadgo/abroad-go/biz/model"
	"github.com/abroadgo/abroad-go/conf"
)

// Search and scrape failures DEGRADE instead of aborting the run: the failure
// text becomes the tool result so the agent can fall back to an LLM-only
// answer. The underlying ToolError is only logged.

const (
	maxScrapeBytes = 32 * 1024 // keep pages from flooding the model context
	fetchTimeout   = 15 * time.Second
)

type SearchInput struct {
	Query string `json:"query" jsonschema:"description=web search query"`
}

// NewSearchTool builds the web_search tool on DuckDuckGo.
func NewSearchTool(_ context.Context) (tool.InvokableTool, error) {
	ddgs, err := ddgsearch.New(&ddgsearch.Config{
		Timeout:    fetchTimeout,
		Cache:      true,
		MaxRetries: 3,
	})
	if err != nil {
		return nil, err
	}

	return utils.InferTool(consts.ToolWebSearch,
		"Search the internet. Returns result titles, URLs and snippets.",
		func(ctx context.Context, input *SearchInput) (string, error) {
			resp, err := ddgs.Search(ctx, &ddgsearch.SearchParams{
				Query:      input.Query,
				Region:     ddgsearch.Region(conf.Config.Search.Region),
				MaxResults: conf.Config.Search.MaxResults,
			})
			if err != nil {
				terr := &model.ToolError{Tool: consts.ToolWebSearch, Err: err}
				ilog.EventError(ctx, terr, "search_degraded", "query", input.Query)
				return fmt.Sprintf("Search failed: %v. Answer from your own knowledge and note the limitation.", err), nil
			}
			if len(resp.Results) == 0 {
				return fmt.Sprintf("No results found for %q. Try a more specific query.", input.Query), nil
			}
			var b strings.Builder
			for i, r := range resp.Results {
				fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.URL, r.Description)
			}
			return b.String(), nil
		})
}

type ScrapeInput struct {
	URL string `json:"url" jsonschema:"description=page URL to fetch and read"`
}

// NewScrapeTool builds the scrape_page tool: fetch a URL and extract the body
// text with the eino html parser, truncated to a context-safe size.
func NewScrapeTool(ctx context.Context) (tool.InvokableTool, error) {
	bodySelector := "body"
	htmlParser, err := html.NewParser(ctx, &html.Config{Selector: &bodySelector})
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: fetchTimeout}

	return utils.InferTool(consts.ToolScrapePage,
		"Fetch a web page and return its readable text content.",
		func(ctx context.Context, input *ScrapeInput) (string, error) {
			text, err := scrape(ctx, client, htmlParser, input.URL)
			if err != nil {
				terr := &model.ToolError{Tool: consts.ToolScrapePage, Err: err}
				ilog.EventError(ctx, terr, "scrape_degraded", "url", input.URL)
				return fmt.Sprintf("Website scraping failed: %v. Continue without this page.", err), nil
			}
			return text, nil
		})
}

func scrape(ctx context.Context, client *http.Client, htmlParser parser.Parser, rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("url is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trimmed, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d fetching %s", resp.StatusCode, trimmed)
	}

	docs, err := htmlParser.Parse(ctx, resp.Body, parser.WithURI(trimmed))
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("no content extracted from %s", trimmed)
	}
	text := strings.TrimSpace(docs[0].Content)
	if len(text) > maxScrapeBytes {
		text = text[:maxScrapeBytes] + "\n[TRUNCATED]"
	}
	return fmt.Sprintf("Page: %s\n\n%s", trimmed, text), nil
}
