package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/mitchelldurbincs/GymCustomEnv/internal/common"
	"github.com/mitchelldurbincs/GymCustomEnv/internal/episodedb"
)

// ErrNoEpisodes is returned when there is nothing to plot.
var ErrNoEpisodes = errors.New("no episodes to plot")

// DefaultWindow is the moving-average window used by FromSummaries.
const DefaultWindow = 10

// Series is one line of the chart: per-episode returns in order.
type Series struct {
	Name    string
	Returns []float64
}

// FromSummaries groups returns by spec id, sorted by id, and adds
// a moving-average line for each group when window > 1.
func FromSummaries(summaries []episodedb.Summary, window int) []Series {
	bySpec := make(map[string][]float64)
	for _, s := range summaries {
		bySpec[s.SpecID] = append(bySpec[s.SpecID], s.Return)
	}
	ids := make([]string, 0, len(bySpec))
	for id := range bySpec {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []Series
	for _, id := range ids {
		out = append(out, Series{Name: id, Returns: bySpec[id]})
		if window > 1 {
			out = append(out, Series{
				Name:    fmt.Sprintf("%s (avg %d)", id, window),
				Returns: MovingAverage(bySpec[id], window),
			})
		}
	}
	return out
}

// MovingAverage returns the trailing mean over up to window values.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := common.Min(i+1, window)
		out[i] = sum / float64(n)
	}
	return out
}

// WriteReturnsChart renders an HTML page with one line per series.
func WriteReturnsChart(w io.Writer, title string, series []Series) error {
	longest := 0
	for _, s := range series {
		longest = common.Max(longest, len(s.Returns))
	}
	if longest == 0 {
		return ErrNoEpisodes
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "shine"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "return per episode"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "return"}),
	)

	episodes := make([]string, longest)
	for i := range episodes {
		episodes[i] = strconv.Itoa(i + 1)
	}
	line.SetXAxis(episodes)

	for i, s := range series {
		items := make([]opts.LineData, len(s.Returns))
		for j, r := range s.Returns {
			items[j] = opts.LineData{Value: r}
		}
		col := common.HexColor(common.EpisodeColors[i%len(common.EpisodeColors)])
		line.AddSeries(s.Name, items,
			charts.WithLineStyleOpts(opts.LineStyle{Color: col}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: col}),
		)
	}

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(line)
	return page.Render(w)
}

// WriteReturnsFile writes the chart to path, creating parent directories.
func WriteReturnsFile(path, title string, series []Series) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteReturnsChart(f, title, series); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
