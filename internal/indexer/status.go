package indexer

import "time"

// JobState is the lifecycle state of the full reindex job
type JobState string

const (
	// JobNone means no reindex job has run since the service started and
	// no prior run is recorded on the live index
	JobNone JobState = "NONE"
	// JobRunning means a reindex job is in flight
	JobRunning JobState = "RUNNING"
	// JobCompleted means the last reindex job finished successfully
	JobCompleted JobState = "COMPLETED"
	// JobFailed means the last reindex job failed
	JobFailed JobState = "FAILED"
)

// JobStatus describes the current or most recent full reindex job
type JobStatus struct {
	State      JobState   `json:"status"`
	StartTime  *time.Time `json:"startTime,omitempty"`
	FinishTime *time.Time `json:"finishTime,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// NoJob is the status before any reindex job has run
func NoJob() JobStatus {
	return JobStatus{State: JobNone}
}

// RunningJob is the status of an in-flight job started at the given time
func RunningJob(start time.Time) JobStatus {
	return JobStatus{State: JobRunning, StartTime: &start}
}

// CompletedJob is the status of a successfully finished job
func CompletedJob(start, finish time.Time) JobStatus {
	return JobStatus{State: JobCompleted, StartTime: &start, FinishTime: &finish}
}

// FailedJob is the status of a failed job
func FailedJob(start time.Time, err error) JobStatus {
	return JobStatus{State: JobFailed, StartTime: &start, Error: err.Error()}
}
