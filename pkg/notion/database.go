package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches every page of a database, following cursors until
// HasMore is false. Rate limiting is enforced by the Client.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}

		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if filter != nil {
			req.Filter = filter.Filter
			req.Sorts = filter.Sorts
			req.PageSize = filter.PageSize
		}

		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}
		all = append(all, resp.Results...)

		if !resp.HasMore {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

// QueryLeads fetches every lead page q selects.
func QueryLeads(ctx context.Context, c Client, dbID string, q LeadQuery) ([]notionapi.Page, error) {
	pages, err := QueryAll(ctx, c, dbID, q.Request())
	if err != nil {
		return nil, eris.Wrap(err, "notion: query leads")
	}
	return pages, nil
}

// PlainFields flattens the text-like properties of a page into strings keyed
// by property name. Unsupported property types are omitted.
func PlainFields(page notionapi.Page) map[string]string {
	out := make(map[string]string, len(page.Properties))
	for name, prop := range page.Properties {
		switch p := prop.(type) {
		case *notionapi.TitleProperty:
			out[name] = joinRichText(p.Title)
		case *notionapi.RichTextProperty:
			out[name] = joinRichText(p.RichText)
		case *notionapi.EmailProperty:
			out[name] = p.Email
		case *notionapi.URLProperty:
			out[name] = p.URL
		case *notionapi.PhoneNumberProperty:
			out[name] = p.PhoneNumber
		case *notionapi.SelectProperty:
			out[name] = p.Select.Name
		}
	}
	return out
}

func joinRichText(parts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range parts {
		b.WriteString(rt.PlainText)
	}
	return strings.TrimSpace(b.String())
}
