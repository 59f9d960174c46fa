package analysis

import (
	"time"

	"finsight/internal/core"
)

// Payload marks the structured result types that can be persisted as an
// analysis snapshot. The kind set is closed; persistence and the insight
// generator switch exhaustively over it.
type Payload interface {
	Kind() core.AnalysisKind
}

// Severity levels for alerts.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// Alert kinds.
const (
	AlertOverspend  = "overspend"
	AlertLowBalance = "low_balance"
	AlertGoalAtRisk = "goal_at_risk"
)

// Forecast methods.
const (
	MethodInsufficientData = "insufficient-data"
	MethodSimpleAverage    = "simple-average"
	MethodLinearRegression = "linear-regression"
	MethodHistoricalMean   = "historical-mean"
	MethodSingleMonth      = "single-month"
)

type (
	// CategorySummary is one row of a category breakdown.
	CategorySummary struct {
		CategoryID     int64   `json:"category_id"`
		Name           string  `json:"name"`
		Total          float64 `json:"total"`
		Mean           float64 `json:"mean"`
		Count          int     `json:"count"`
		PercentOfTotal float64 `json:"percent_of_total"`
	}

	// CategoryBreakdown is the per-category spending view over a window.
	CategoryBreakdown struct {
		Period       core.Period       `json:"period"`
		Categories   []CategorySummary `json:"categories"`
		TotalExpense float64           `json:"total_expense"`
		TotalIncome  float64           `json:"total_income"`
	}

	// Anomaly is a single transaction flagged as out of range for its
	// category.
	Anomaly struct {
		TransactionID    int64     `json:"transaction_id"`
		Date             time.Time `json:"date"`
		Amount           float64   `json:"amount"`
		CategoryName     string    `json:"category_name"`
		CategoryMean     float64   `json:"category_mean"`
		DeviationPercent float64   `json:"deviation_percent"`
		Description      string    `json:"description"`
	}

	AnomalyReport struct {
		Period         core.Period `json:"period"`
		Anomalies      []Anomaly   `json:"anomalies"`
		TotalAnomalies int         `json:"total_anomalies"`
		Message        string      `json:"message,omitempty"`
	}

	// Trend is the midpoint-split classification for one transaction type.
	Trend struct {
		Type             core.TransactionType `json:"type"`
		MeanEarly        float64              `json:"mean_early"`
		MeanRecent       float64              `json:"mean_recent"`
		VariationPercent float64              `json:"variation_percent"`
		Classification   TrendClass           `json:"classification"`
	}

	TrendReport struct {
		Period  core.Period `json:"period"`
		Trends  []Trend     `json:"trends"`
		Message string      `json:"message,omitempty"`
	}

	ForecastDetails struct {
		MonthsAnalyzed int        `json:"months_analyzed"`
		TrendDirection TrendClass `json:"trend_direction,omitempty"`
		MonthlySlope   float64    `json:"monthly_slope,omitempty"`
	}

	// ForecastResult is the next-period total spending prediction.
	ForecastResult struct {
		ForecastTotal float64         `json:"forecast_total"`
		Confidence    float64         `json:"confidence"`
		Method        string          `json:"method"`
		Message       string          `json:"message,omitempty"`
		Details       ForecastDetails `json:"details"`
	}

	// CategoryForecast is a per-category spending prediction.
	CategoryForecast struct {
		CategoryID     int64   `json:"category_id"`
		Forecast       float64 `json:"forecast"`
		Confidence     float64 `json:"confidence"`
		Method         string  `json:"method"`
		Message        string  `json:"message,omitempty"`
		MonthsAnalyzed int     `json:"months_analyzed"`
		Mean           float64 `json:"mean,omitempty"`
		StdDev         float64 `json:"std_dev,omitempty"`
	}

	// MonthAverage labels a calendar month with its average spend.
	MonthAverage struct {
		Month        time.Month `json:"month"`
		Name         string     `json:"name"`
		AverageSpend float64    `json:"average_spend"`
	}

	SeasonalityReport struct {
		Detected   bool           `json:"detected"`
		HighMonths []MonthAverage `json:"high_months"`
		LowMonths  []MonthAverage `json:"low_months"`
		CrossMean  float64        `json:"cross_mean"`
		Message    string         `json:"message,omitempty"`
	}

	BudgetSuggestion struct {
		SuggestedBudget float64 `json:"suggested_budget"`
		BaseForecast    float64 `json:"base_forecast"`
		MarginPercent   float64 `json:"margin_percent"`
		Confidence      float64 `json:"confidence"`
		Message         string  `json:"message,omitempty"`
	}

	// CategoryMeanForecast is the alerting-path per-category prediction,
	// a plain mean of observed amounts.
	CategoryMeanForecast struct {
		CategoryID   int64   `json:"category_id"`
		CategoryName string  `json:"category_name"`
		Forecast     float64 `json:"forecast"`
		Transactions int     `json:"transactions"`
	}

	// SpendingForecast is the trailing-90-day forecast used by the alert
	// engine. It is an independent strategy from ForecastResult and the
	// two are deliberately not unified: this one uses a monthly-mean
	// estimate, a 100-CV% confidence, and the coarse trend policy.
	SpendingForecast struct {
		ForecastTotal        float64                `json:"forecast_total"`
		Confidence           float64                `json:"confidence"`
		PeriodDays           int                    `json:"period_days"`
		TransactionsAnalyzed int                    `json:"transactions_analyzed"`
		Trend                TrendClass             `json:"trend"`
		ByCategory           []CategoryMeanForecast `json:"by_category"`
		Message              string                 `json:"message,omitempty"`
	}

	// Alert is one severity-tagged alert. Kind-specific fields are
	// populated only for the matching kind.
	Alert struct {
		Kind     string `json:"kind"`
		Severity string `json:"severity"`
		Title    string `json:"title"`
		Message  string `json:"message"`

		// overspend
		CurrentAmount   float64 `json:"current_amount,omitempty"`
		ReferenceAmount float64 `json:"reference_amount,omitempty"`
		ExcessPercent   float64 `json:"excess_percent,omitempty"`

		// low_balance
		Balance       float64 `json:"balance,omitempty"`
		ForecastTotal float64 `json:"forecast_total,omitempty"`
		Deficit       float64 `json:"deficit,omitempty"`

		// goal_at_risk
		GoalID              int64   `json:"goal_id,omitempty"`
		GoalName            string  `json:"goal_name,omitempty"`
		RemainingAmount     float64 `json:"remaining_amount,omitempty"`
		DaysRemaining       int     `json:"days_remaining,omitempty"`
		RequiredDailySaving float64 `json:"required_daily_saving,omitempty"`
		DailyCapacity       float64 `json:"daily_capacity,omitempty"`
	}

	AlertReport struct {
		Alerts []Alert `json:"alerts"`
		Total  int     `json:"total"`
	}

	// Report bundles every analyzer output of one invocation. The insight
	// generator is a pure function over this bundle; the comparative
	// snapshot kind persists it whole.
	Report struct {
		Period          core.Period       `json:"period"`
		Breakdown       CategoryBreakdown `json:"breakdown"`
		Anomalies       AnomalyReport     `json:"anomalies"`
		Trends          TrendReport       `json:"trends"`
		Forecast        ForecastResult    `json:"forecast"`
		Seasonality     SeasonalityReport `json:"seasonality"`
		Budget          BudgetSuggestion  `json:"budget"`
		Spending        SpendingForecast  `json:"spending"`
		Alerts          []Alert           `json:"alerts"`
		Insights        []string          `json:"insights"`
		Recommendations []string          `json:"recommendations"`
	}
)

func (CategoryBreakdown) Kind() core.AnalysisKind { return core.KindPattern }
func (AnomalyReport) Kind() core.AnalysisKind     { return core.KindAnomaly }
func (TrendReport) Kind() core.AnalysisKind       { return core.KindTrend }
func (ForecastResult) Kind() core.AnalysisKind    { return core.KindForecast }
func (Report) Kind() core.AnalysisKind            { return core.KindComparative }
