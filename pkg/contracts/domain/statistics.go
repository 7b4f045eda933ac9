package domain

// Moment is a higher-order statistic that is only meaningful above a
// minimum sample size. Defined is false instead of raising when the
// sample is too small.
type Moment struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// Quartiles holds the three quartile cut points computed with linear
// interpolation. Defined is false for samples of fewer than two values.
type Quartiles struct {
	Q1      float64 `json:"q1"`
	Q2      float64 `json:"q2"`
	Q3      float64 `json:"q3"`
	IQR     float64 `json:"iqr"`
	Defined bool    `json:"defined"`
}

// Outliers flags values beyond the 1.5*IQR fences. Defined follows the
// quartiles: no fences without quartiles.
type Outliers struct {
	LowerBound float64   `json:"lower_bound"`
	UpperBound float64   `json:"upper_bound"`
	Values     []float64 `json:"values"`
	Defined    bool      `json:"defined"`
}

// Statistics is the descriptive summary for one metric series: a single
// subject's marks, or the total/average column of a consolidated set.
type Statistics struct {
	Subject   string    `json:"subject,omitempty"`
	Metric    string    `json:"metric,omitempty"`
	Count     int       `json:"count"`
	Mean      float64   `json:"mean"`
	Median    float64   `json:"median"`
	Mode      *float64  `json:"mode"`
	StdDev    float64   `json:"std_dev"`
	Variance  float64   `json:"variance"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Range     float64   `json:"range"`
	Skewness  Moment    `json:"skewness"`
	Kurtosis  Moment    `json:"kurtosis"`
	Quartiles Quartiles `json:"quartiles"`
	Outliers  Outliers  `json:"outliers"`
}

// PassFail summarises how the series splits around a pass mark.
type PassFail struct {
	PassMark float64 `json:"pass_mark"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	PassRate float64 `json:"pass_rate"`
	FailRate float64 `json:"fail_rate"`
}

// GradeDistribution counts letter grades across the series.
type GradeDistribution struct {
	Counts      map[string]int     `json:"counts"`
	Percentages map[string]float64 `json:"percentages"`
}
