package domain

// RankEntry is one student's position in a ranking. Competition ranking
// is used throughout: tied values share a rank and the next distinct
// value resumes at position + count of tied students (1,1,3,4,...).
type RankEntry struct {
	Student string  `json:"student"`
	Value   float64 `json:"value"`
	Rank    int     `json:"rank"`
	Tied    bool    `json:"tied"`
	Grade   string  `json:"grade"`
}

// Ranking is an ordered sequence of rank entries for one metric.
type Ranking struct {
	Metric  string      `json:"metric"`
	Entries []RankEntry `json:"entries"`
}

// ClassSummary aggregates a ranking into class-level performance
// figures for presentation collaborators.
type ClassSummary struct {
	Metric        string         `json:"metric"`
	ClassAverage  float64        `json:"class_average"`
	HighestScore  float64        `json:"highest_score"`
	LowestScore   float64        `json:"lowest_score"`
	TotalStudents int            `json:"total_students"`
	TopPerformer  string         `json:"top_performer"`
	GradeCounts   map[string]int `json:"grade_counts"`
}
