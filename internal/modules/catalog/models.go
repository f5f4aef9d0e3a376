package catalog

// InfoType identifies one of the purchasable information reveals for a stock.
type InfoType string

const (
	InfoShowMore  InfoType = "show_more"
	InfoShowWeek  InfoType = "show_week"
	InfoShowMonth InfoType = "show_month"
)

// ValidInfoType reports whether t is one of the known information types.
func ValidInfoType(t InfoType) bool {
	switch t {
	case InfoShowMore, InfoShowWeek, InfoShowMonth:
		return true
	}
	return false
}

// InfoCosts holds the price of each information reveal for a stock.
// A zero cost means the reveal is free (no confirmation step).
type InfoCosts struct {
	ShowMore  float64 `json:"show_more"`
	ShowWeek  float64 `json:"show_week"`
	ShowMonth float64 `json:"show_month"`
}

// Cost returns the price for a given information type.
func (c InfoCosts) Cost(t InfoType) float64 {
	switch t {
	case InfoShowMore:
		return c.ShowMore
	case InfoShowWeek:
		return c.ShowWeek
	case InfoShowMonth:
		return c.ShowMonth
	}
	return 0
}

// Stock holds the content shown to participants for one investment option.
type Stock struct {
	Name                string            `json:"name"`
	Ticker              string            `json:"ticker"`
	Image               string            `json:"image,omitempty"`
	ShortDescription    string            `json:"short_description"`
	DetailedDescription string            `json:"detailed_description"`
	ReturnPercent       float64           `json:"return_percent"`
	InfoCosts           InfoCosts         `json:"info_costs"`
	WeekImage           string            `json:"week_image,omitempty"`
	WeekAnalysis        string            `json:"week_analysis,omitempty"`
	MonthImage          string            `json:"month_image,omitempty"`
	MonthAnalysis       string            `json:"month_analysis,omitempty"`
	PerformanceMetrics  map[string]string `json:"performance_metrics,omitempty"`
}

// Task is one investment round. Main tasks carry a numeric reference
// ("1".."N"); tutorial rounds carry a "tutorial_N" reference. Each task
// has exactly one stock.
type Task struct {
	Ref    string  `json:"task_id"`
	Stocks []Stock `json:"stocks"`
}

// Stock returns the task's single stock by index.
func (t *Task) Stock(i int) (*Stock, bool) {
	if i < 0 || i >= len(t.Stocks) {
		return nil, false
	}
	return &t.Stocks[i], true
}

// IsTutorial reports whether the task is a tutorial round.
func (t *Task) IsTutorial() bool {
	return isTutorialRef(t.Ref)
}
