package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewJob(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	analysisID := uuid.New()

	job := NewJob(JobTypeReparseAnalysis, userID, &analysisID)

	if job.Type != JobTypeReparseAnalysis {
		t.Errorf("Unexpected job type %q", job.Type)
	}
	if job.UserID != userID {
		t.Errorf("Unexpected user ID %v", job.UserID)
	}
	if job.AnalysisID == nil || *job.AnalysisID != analysisID {
		t.Errorf("Unexpected analysis ID %v", job.AnalysisID)
	}
	if job.MaxRetries != 3 || job.RetryCount != 0 {
		t.Errorf("Unexpected retry defaults %d/%d", job.RetryCount, job.MaxRetries)
	}
}

func TestJobShouldProcess(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name      string
		notBefore *time.Time
		notAfter  *time.Time
		want      bool
	}{
		{"no constraints", nil, nil, true},
		{"not before in past", &past, nil, true},
		{"not before in future", &future, nil, false},
		{"not after in future", nil, &future, true},
		{"not after in past", nil, &past, false},
		{"inside window", &past, &future, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			job := NewJob(JobTypePurgeUser, uuid.New(), nil)
			job.NotBefore = tt.notBefore
			job.NotAfter = tt.notAfter

			if got := job.ShouldProcess(); got != tt.want {
				t.Errorf("ShouldProcess = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJobIsExpired(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeReparseAnalysis, uuid.New(), nil)
	if job.IsExpired() {
		t.Error("Job without NotAfter should never expire")
	}

	past := time.Now().Add(-time.Minute)
	job.NotAfter = &past
	if !job.IsExpired() {
		t.Error("Job past NotAfter should be expired")
	}
}

func TestJobRetry(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeReparseAnalysis, uuid.New(), nil)

	for i := 0; i < job.MaxRetries; i++ {
		if !job.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i)
		}
		job.IncrementRetry()
	}

	if job.CanRetry() {
		t.Error("Retries should be exhausted")
	}
}

func TestJobRoundTripsThroughJSON(t *testing.T) {
	t.Parallel()

	analysisID := uuid.New()
	job := NewJob(JobTypeReparseAnalysis, uuid.New(), &analysisID)
	job.Metadata["reason"] = "parser upgrade"

	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}

	var decoded Job
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}

	if decoded.ID != job.ID || decoded.Type != job.Type || decoded.UserID != job.UserID {
		t.Errorf("Round trip lost identity fields: %+v", decoded)
	}
	if decoded.AnalysisID == nil || *decoded.AnalysisID != analysisID {
		t.Errorf("Round trip lost analysis ID: %v", decoded.AnalysisID)
	}
	if decoded.Metadata["reason"] != "parser upgrade" {
		t.Errorf("Round trip lost metadata: %v", decoded.Metadata)
	}
}
