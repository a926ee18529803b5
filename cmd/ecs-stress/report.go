package main

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"text/template"
	"time"

	"github.com/plus3/fission/ecs"
	"github.com/plus3/fission/internal/config"
)

type Report struct {
	Config config.StressConfig

	// Results
	TotalUpdates  int64
	TotalTime     time.Duration
	UpdateTime    Stats
	MemStatsStart runtime.MemStats
	MemStatsEnd   runtime.MemStats

	Created      int64
	Expired      int64
	Mutated      int64
	PeakEntities int
	ClockTicks   int64

	Systems *ecs.SchedulerStats
	Storage *ecs.StorageStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

// Finalize fills Min, Max and Avg from the recorded samples.
func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	for _, sample := range s.Samples {
		total += sample
	}
	s.Min = slices.Min(s.Samples)
	s.Max = slices.Max(s.Samples)
	s.Avg = total / time.Duration(len(s.Samples))
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# ECS Stress Test Report

## Test Configuration
- **Run Duration:** {{.Config.Duration}}
- **Initial Entities:** {{.Config.Entities}}
- **Churn Per Tick:** {{.Config.Churn}}
- **Seed:** {{.Config.Seed}}
- **Cache Verification:** {{if .Config.Verify}}every tick{{else}}off{{end}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}

## Entity Churn
- **Created:** {{.Created}}
- **Expired:** {{.Expired}}
- **Component Toggles:** {{.Mutated}}
- **Peak Live Entities:** {{.PeakEntities}}
- **Clock Ticks:** {{.ClockTicks}}
{{with .Systems}}
## Systems ({{.SystemCount}}, {{.TotalExecutions}} executions)
{{range .Systems}}- **{{.Name}}:** {{.EntityCount}} entities, avg {{.AvgDuration}}, min {{.MinDuration}}, max {{.MaxDuration}}
{{end}}{{end}}{{with .Storage}}
## Storage
- **Live Entities:** {{.EntityCount}}
- **Recycled Ids:** {{.RecycledCount}}
- **Next Fresh Id:** {{.NextId}}
{{range .ComponentBreakdown}}- {{.Name}}: {{.EntityCount}}
{{end}}{{end}}
## Memory Usage (MiB)
- Heap Alloc:     {{mb .MemStatsStart.HeapAlloc}} (start) -> {{mb .MemStatsEnd.HeapAlloc}} (end) -> delta: {{mb (bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc)}}
- Total Alloc:    {{mb .MemStatsStart.TotalAlloc}} (start) -> {{mb .MemStatsEnd.TotalAlloc}} (end) -> delta: {{mb (bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc)}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
- Total GC Pause: {{ns .MemStatsEnd.PauseTotalNs}}
`

	fm := template.FuncMap{
		"mb": func(v any) string {
			switch val := v.(type) {
			case uint64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			case int64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			default:
				return "N/A"
			}
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
