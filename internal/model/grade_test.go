package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrade_Rank(t *testing.T) {
	tests := []struct {
		grade Grade
		want  int
	}{
		{"Pre KG", 0},
		{"UKG", 2},
		{"Class 1", 3},
		{"Class 10", 12},
		{"Class 99", len(Grades)},
	}
	for _, tt := range tests {
		t.Run(string(tt.grade), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.grade.Rank())
		})
	}
}

func TestSortClasses(t *testing.T) {
	classes := []Class{
		{Grade: "Class 10", Section: "A"},
		{Grade: "Class 2", Section: "B"},
		{Grade: "Class 1", Section: "A"},
		{Grade: "LKG", Section: "A"},
		{Grade: "Class 2", Section: "A"},
		{Grade: "Pre KG", Section: "A"},
	}

	SortClasses(classes)

	got := make([]string, len(classes))
	for i, c := range classes {
		got[i] = string(c.Grade) + c.Section
	}
	assert.Equal(t, []string{"Pre KGA", "LKGA", "Class 1A", "Class 2A", "Class 2B", "Class 10A"}, got)
}
