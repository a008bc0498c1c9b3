package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScenario_DefaultClusterSize(t *testing.T) {
	got := NewScenario(0.01, 0.85, 0.98, 3000)
	want := Scenario{
		TruePrevalence: 0.01,
		Sensitivity:    0.85,
		Specificity:    0.98,
		SampleSize:     3000,
		ClusterSize:    50,
	}
	assert.Equal(t, want, got)
}

func TestScenario_NumClusters(t *testing.T) {
	tests := []struct {
		name        string
		sampleSize  int
		clusterSize int
		want        int
	}{
		{"exact division", 3000, 50, 60},
		{"one short last cluster", 1010, 50, 21},
		{"single extra individual", 101, 50, 3},
		{"reference small survey", 1000, 50, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Scenario{SampleSize: tt.sampleSize, ClusterSize: tt.clusterSize}
			assert.Equal(t, tt.want, s.NumClusters())
		})
	}
}

func TestScenario_Validate(t *testing.T) {
	valid := NewScenario(0.01, 0.85, 0.98, 1000)
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"zero sample size", func(s *Scenario) { s.SampleSize = 0 }},
		{"negative sample size", func(s *Scenario) { s.SampleSize = -5 }},
		{"zero cluster size", func(s *Scenario) { s.ClusterSize = 0 }},
		{"prevalence above 1", func(s *Scenario) { s.TruePrevalence = 1.5 }},
		{"negative sensitivity", func(s *Scenario) { s.Sensitivity = -0.1 }},
		{"specificity above 1", func(s *Scenario) { s.Specificity = 1.1 }},
		{"uninformative test", func(s *Scenario) { s.Sensitivity, s.Specificity = 0.5, 0.5 }},
		{"accuracy sum exactly 1", func(s *Scenario) { s.Sensitivity, s.Specificity = 0.4, 0.6 }},
		{"single cluster", func(s *Scenario) { s.SampleSize = 40 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidScenario))
		})
	}
}

func TestNewClusterAssignment_ContiguousBlocks(t *testing.T) {
	assignment := NewClusterAssignment(110, 50)
	require.Len(t, assignment, 110)
	assert.Equal(t, 3, assignment.NumClusters())

	// Contiguous, non-decreasing labels.
	for i := 1; i < len(assignment); i++ {
		assert.GreaterOrEqual(t, assignment[i], assignment[i-1])
	}

	// Full clusters hold 50 individuals, the last holds the remainder.
	counts := make(map[int]int)
	for _, label := range assignment {
		counts[label]++
	}
	assert.Equal(t, map[int]int{0: 50, 1: 50, 2: 10}, counts)
}

func TestNewClusterAssignment_ReferenceDesign(t *testing.T) {
	// 3000 individuals at 50 per cluster is the 60-cluster reference design.
	assignment := NewClusterAssignment(3000, 50)
	assert.Equal(t, 60, assignment.NumClusters())
	assert.Equal(t, 0, assignment[0])
	assert.Equal(t, 59, assignment[2999])
}
