package mediawiki

import (
	"context"
	"net/url"
	"strconv"

	"github.com/agenthands/linkgraph/internal/core/model"
)

// ListPages returns one page of titles from list=allpages in the configured
// namespace. Pass the returned continuation to get the next page; a done
// continuation means the listing is complete.
func (c *Client) ListPages(ctx context.Context, token model.Continuation) ([]model.Title, model.Continuation, error) {
	params := url.Values{}
	params.Set("list", "allpages")
	params.Set("apnamespace", strconv.Itoa(c.namespace))
	params.Set("aplimit", "500")
	for k, v := range token {
		params.Set(k, v)
	}

	resp, err := c.query(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	titles := make([]model.Title, 0, len(resp.Query.AllPages))
	for _, p := range resp.Query.AllPages {
		titles = append(titles, p.Title)
	}
	return titles, model.Continuation(resp.Continue), nil
}

// PageLinks returns every link title on one page, following plcontinue until
// the listing is exhausted.
func (c *Client) PageLinks(ctx context.Context, title model.Title) ([]model.Title, error) {
	var links []model.Title
	var token model.Continuation
	for {
		params := url.Values{}
		params.Set("titles", title)
		params.Set("prop", "links")
		params.Set("pllimit", strconv.Itoa(c.linksLimit))
		for k, v := range token {
			params.Set(k, v)
		}

		resp, err := c.query(ctx, params)
		if err != nil {
			return links, err
		}
		for _, p := range resp.Query.Pages {
			for _, l := range p.Links {
				links = append(links, l.Title)
			}
		}

		token = model.Continuation(resp.Continue)
		if token.Done() {
			return links, nil
		}
	}
}

// ResolveRedirects looks up one batch of titles with redirects=1.
func (c *Client) ResolveRedirects(ctx context.Context, titles []model.Title) (model.RedirectBatch, error) {
	if err := checkBatch(titles); err != nil {
		return model.RedirectBatch{}, err
	}
	params := url.Values{}
	params.Set("titles", joinTitles(titles))
	params.Set("redirects", "1")

	resp, err := c.query(ctx, params)
	if err != nil {
		return model.RedirectBatch{}, err
	}

	var out model.RedirectBatch
	for _, p := range resp.Query.Normalized {
		out.Normalized = append(out.Normalized, model.TitlePair{From: p.From, To: p.To})
	}
	for _, p := range resp.Query.Redirects {
		out.Redirects = append(out.Redirects, model.TitlePair{From: p.From, To: p.To})
	}
	for _, p := range resp.Query.Pages {
		if p.Title != "" {
			out.Pages = append(out.Pages, p.Title)
		}
	}
	return out, nil
}

// CheckExistence reports for each queried title whether a page exists. Pages
// flagged missing or invalid do not exist. Titles the wiki normalized are
// reported under the queried spelling as well. A title the response does not
// mention is left out of the result.
func (c *Client) CheckExistence(ctx context.Context, titles []model.Title) (model.ExistenceMap, error) {
	if err := checkBatch(titles); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("titles", joinTitles(titles))

	resp, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	spellings := make(map[string][]string)
	for _, p := range resp.Query.Normalized {
		spellings[p.To] = append(spellings[p.To], p.From)
	}

	out := make(model.ExistenceMap, len(titles))
	for _, p := range resp.Query.Pages {
		if p.Title == "" {
			continue
		}
		exists := p.exists()
		out[p.Title] = exists
		for _, from := range spellings[p.Title] {
			out[from] = exists
		}
	}
	return out, nil
}
