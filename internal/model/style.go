package model

// StyleOptions are the normalized host style settings.
type StyleOptions struct {
	RowHeight          float64 `json:"rowHeight"`
	ShowToday          bool    `json:"showToday"`
	TodayLineColor     string  `json:"todayLineColor"`
	TodayLineWidth     float64 `json:"todayLineWidth"`
	ShowMilestoneTicks bool    `json:"showMilestoneTicks"`
	MonthLabelSize     float64 `json:"monthLabelSize"`
	MonthLabelColor    string  `json:"monthLabelColor"`
	MonthGlow          bool    `json:"monthGlow"`
	EnableDrag         bool    `json:"enableDrag"`
	EnableWheel        bool    `json:"enableWheel"`
	KeyboardAccel      bool    `json:"keyboardAccel"`
}

// DefaultStyleOptions returns the documented defaults.
func DefaultStyleOptions() StyleOptions {
	return StyleOptions{
		RowHeight:          28,
		ShowToday:          true,
		TodayLineColor:     "#ff6b6b",
		TodayLineWidth:     2,
		ShowMilestoneTicks: true,
		MonthLabelSize:     12,
		MonthLabelColor:    "#9aa4b2",
		MonthGlow:          false,
		EnableDrag:         true,
		EnableWheel:        true,
		KeyboardAccel:      true,
	}
}
