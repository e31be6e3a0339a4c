package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"

	"github.com/sells-group/coldreach/internal/ingest"
	"github.com/sells-group/coldreach/internal/model"
	"github.com/sells-group/coldreach/pkg/notion"
)

// sourceFlags selects where leads come from. Exactly one of CSV, XLSX or
// Notion must be set.
type sourceFlags struct {
	CSV          string
	XLSX         string
	Sheet        string
	Notion       bool
	NotionStatus string
}

func (f *sourceFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.CSV, "csv", "", "path to a CSV lead export")
	fs.StringVar(&f.XLSX, "xlsx", "", "path to an XLSX lead export")
	fs.StringVar(&f.Sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	fs.BoolVar(&f.Notion, "notion", false, "read leads from the configured Notion database")
	fs.StringVar(&f.NotionStatus, "notion-status", "", "only Notion leads with this Status")
}

func (f *sourceFlags) validate() error {
	n := 0
	for _, set := range []bool{f.CSV != "", f.XLSX != "", f.Notion} {
		if set {
			n++
		}
	}
	if n != 1 {
		return eris.New("exactly one of --csv, --xlsx or --notion is required")
	}
	return nil
}

// openTable opens the selected source as a row table.
func (f *sourceFlags) openTable(ctx context.Context) (*ingest.Table, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	switch {
	case f.CSV != "":
		return ingest.OpenCSV(ctx, f.CSV)
	case f.XLSX != "":
		return ingest.OpenXLSX(ctx, f.XLSX, ingest.XLSXOptions{SheetName: f.Sheet})
	default:
		if cfg.Notion.Token == "" || cfg.Notion.LeadDB == "" {
			return nil, eris.New("notion source requires COLDREACH_NOTION_TOKEN and COLDREACH_NOTION_LEAD_DB")
		}
		q := notion.LeadQuery{Status: f.NotionStatus, StatusProperty: cfg.Notion.StatusProperty}
		return ingest.OpenNotion(ctx, notion.NewClient(cfg.Notion.Token), cfg.Notion.LeadDB, q)
	}
}

// openLeads opens the source and normalizes it into a lead stream.
// Unreadable sources and sources without a single valid lead are fatal.
func (f *sourceFlags) openLeads(ctx context.Context) (*ingest.LeadStream, error) {
	table, err := f.openTable(ctx)
	if err != nil {
		return nil, err
	}
	defaults, err := ingest.DefaultMapping(cfg.Ingest)
	if err != nil {
		return nil, err
	}
	return ingest.NewNormalizer(defaults).Normalize(ctx, table)
}

// sampleLeads are used by `icebreaker test`.
var sampleLeads = []model.Lead{
	{FirstName: "John", LastName: "Smith", Email: "john@testcompany.com", CompanyName: "Test Marketing Agency",
		Industry: "Marketing", Website: "https://testcompany.com", Title: "CEO"},
	{FirstName: "Jane", LastName: "Doe", Email: "jane@consultech.com", CompanyName: "ConsuTech Solutions",
		Industry: "Consulting", Website: "https://consultech.com", Title: "Founder"},
	{FirstName: "Bob", LastName: "Johnson", Email: "bob@automate.co", CompanyName: "Automate Plus",
		Industry: "Automation", Website: "https://automate.co", Title: "CTO"},
}
