package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/common"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/episodedb"
)

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		window int
		want   []float64
	}{
		{"window 1 is identity", []float64{1, 2, 3}, 1, []float64{1, 2, 3}},
		{"warm-up uses available values", []float64{2, 4, 6, 8}, 2, []float64{2, 3, 5, 7}},
		{"window larger than input", []float64{1, 3}, 5, []float64{1, 2}},
		{"non-positive window", []float64{4, 8}, 0, []float64{4, 8}},
		{"empty", nil, 3, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tt.want, MovingAverage(tt.values, tt.window), 1e-9)
		})
	}
}

func TestFromSummaries(t *testing.T) {
	summaries := []episodedb.Summary{
		{SpecID: "GridWorld-v0", Return: 1},
		{SpecID: "Alpha-v1", Return: 5},
		{SpecID: "GridWorld-v0", Return: 0},
	}

	plain := FromSummaries(summaries, 0)
	require.Len(t, plain, 2)
	assert.Equal(t, "Alpha-v1", plain[0].Name)
	assert.Equal(t, []float64{1, 0}, plain[1].Returns)

	withAvg := FromSummaries(summaries, 2)
	require.Len(t, withAvg, 4)
	assert.Equal(t, "GridWorld-v0 (avg 2)", withAvg[3].Name)
	assert.Equal(t, []float64{1, 0.5}, withAvg[3].Returns)
}

func TestWriteReturnsChart(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReturnsChart(&buf, "GridWorld returns", []Series{
		{Name: "GridWorld-v0", Returns: []float64{0, 1, 1}},
		{Name: "GridWorld-v0 (avg 10)", Returns: []float64{0, 0.5, 0.667}},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "GridWorld returns")
	assert.Contains(t, html, "GridWorld-v0 (avg 10)")
	assert.Contains(t, html, common.HexColor(common.EpisodeColors[0]))
	assert.Contains(t, html, common.HexColor(common.EpisodeColors[1]))
}

func TestWriteReturnsChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteReturnsChart(&buf, "empty", nil), ErrNoEpisodes)
	assert.ErrorIs(t, WriteReturnsChart(&buf, "empty", []Series{{Name: "x"}}), ErrNoEpisodes)
	assert.Zero(t, buf.Len())
}

func TestWriteReturnsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "returns.html")
	require.NoError(t, WriteReturnsFile(path, "run", []Series{{Name: "a", Returns: []float64{1}}}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "echarts")
}
