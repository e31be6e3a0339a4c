package ingest

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coldreach/pkg/notion"
)

// notionHeaderOrder puts the common lead columns first so tables read from
// Notion look like their CSV exports.
var notionHeaderOrder = []string{"First Name", "Last Name", "Email", "Company", "Industry", "Website", "Title", "LinkedIn"}

// OpenNotion loads the lead pages q selects from a Notion database and
// returns the flattened pages as a Table.
func OpenNotion(ctx context.Context, c notion.Client, dbID string, q notion.LeadQuery) (*Table, error) {
	pages, err := notion.QueryLeads(ctx, c, dbID, q)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: notion source")
	}

	records := make([]map[string]string, len(pages))
	for i, p := range pages {
		records[i] = notion.PlainFields(p)
	}
	return RecordsTable(ctx, records, notionHeaderOrder), nil
}
