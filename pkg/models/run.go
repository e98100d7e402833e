package models

import "time"

// Run describes one collection run for the optional history store.
type Run struct {
	ID         string
	ClusterID  string
	StartedAt  time.Time
	FinishedAt time.Time
	OutputDir  string
}

// ReportStat records how many rows one report table produced in a run.
type ReportStat struct {
	ID       string
	RunID    string
	Report   string
	RowCount int
}
