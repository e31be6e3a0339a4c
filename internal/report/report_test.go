package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coldreach/internal/model"
)

var at = time.Date(2026, 3, 4, 9, 8, 7, 0, time.UTC)

func sampleStats() model.RunStatistics {
	s := model.NewRunStatistics()
	s.TotalProcessed = 250
	s.Successful = 200
	s.Failed = 50
	s.Distribution[model.TierEnterprise] = 40
	s.Distribution[model.TierProfessional] = 60
	s.Distribution[model.TierEducational] = 100
	return s
}

func TestEstimate(t *testing.T) {
	assert.Equal(t, Estimates{RepliesLow: 2, RepliesHigh: 4, MeetingsLow: 1, MeetingsHigh: 2}, Estimate(200))
	assert.Equal(t, Estimates{}, Estimate(0))
	// 99 * 0.013 = 1.287 truncates to 1.
	assert.Equal(t, Estimates{RepliesLow: 0, RepliesHigh: 1, MeetingsLow: 0, MeetingsHigh: 1}, Estimate(99))
}

func TestRender(t *testing.T) {
	out := Render(sampleStats(), at)

	assert.Contains(t, out, "Generated: 2026-03-04 09:08:07")
	assert.Contains(t, out, "- Total Leads Processed: 250")
	assert.Contains(t, out, "- Successfully Added: 200")
	assert.Contains(t, out, "- Failed: 50")
	assert.Contains(t, out, "- Success Rate: 80.0%")
	assert.Contains(t, out, "- Enterprise Direct Pitch: 40 leads")
	assert.Contains(t, out, "- Professional Nurture: 60 leads")
	assert.Contains(t, out, "- Educational Sequence: 100 leads")
	assert.Contains(t, out, "- Expected Positive Replies: 2 - 4")
	assert.Contains(t, out, "- Expected Meetings: 1 - 2")
	assert.Contains(t, out, "4. Scale successful campaigns")
}

func TestRender_EmptyRun(t *testing.T) {
	out := Render(model.NewRunStatistics(), at)
	assert.Contains(t, out, "- Success Rate: 0.0%")
	assert.Contains(t, out, "- Enterprise Direct Pitch: 0 leads")
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path, err := Write(dir, sampleStats(), at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cold_email_report_20260304_090807.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Render(sampleStats(), at), string(data))
}

func TestWrite_BadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := Write(filepath.Join(file, "sub"), sampleStats(), at)
	assert.Error(t, err)
}
