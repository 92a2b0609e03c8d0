package api

import (
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/KurtHennigar/sns3-satellite/internal/logging"
)

// handlePlot renders a quick scatter plot (HTML) of the slot layout using
// go-echarts: slot start time on the x axis, global carrier id on the y
// axis, dedicated and random-access carriers as separate series. This is a
// debugging endpoint for eyeballing a layout without external tooling.
func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	dedicated := make([]opts.ScatterData, 0)
	randomAccess := make([]opts.ScatterData, 0)

	for frameID := uint8(0); frameID < s.sf.FrameCount(); frameID++ {
		frame := s.sf.GetFrameConf(frameID)
		for c := uint16(0); c < frame.GetCarrierCount(); c++ {
			globalID := s.sf.GetCarrierId(frameID, c)
			for _, slot := range frame.GetTimeSlotConfs(c) {
				point := opts.ScatterData{Value: []interface{}{
					float64(slot.StartTime()) / float64(time.Millisecond),
					globalID,
				}}
				if frame.IsRandomAccess() {
					randomAccess = append(randomAccess, point)
				} else {
					dedicated = append(dedicated, point)
				}
			}
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Superframe slot layout",
			Subtitle: "slot start time vs. global carrier id",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "slot start (ms)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "global carrier id", Type: "value"}),
	)
	scatter.AddSeries("dedicated", dedicated)
	scatter.AddSeries("random access", randomAccess)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := scatter.Render(w); err != nil {
		s.log.Error(r.Context(), "layout plot render failed", logging.String("error", err.Error()))
	}
}
