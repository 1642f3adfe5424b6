package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		x, y     int
		size     int
		expected bool
	}{
		{"origin", 0, 0, 5, true},
		{"far corner", 4, 4, 5, true},
		{"negative x", -1, 2, 5, false},
		{"y at size", 2, 5, 5, false},
		{"empty grid", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidCoordinate(tt.x, tt.y, tt.size, tt.size))
		})
	}
}

func TestManhattanDistance(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 int
		expected       int
	}{
		{"same cell", 2, 2, 2, 2, 0},
		{"row apart", 0, 0, 4, 0, 4},
		{"opposite corners", 0, 0, 10, 10, 20},
		{"negative coords", -2, -3, 1, 2, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ManhattanDistance(tt.x1, tt.y1, tt.x2, tt.y2)
			assert.Equal(t, tt.expected, d)
			assert.Equal(t, d, ManhattanDistance(tt.x2, tt.y2, tt.x1, tt.y1), "distance should be symmetric")
		})
	}
}

func TestAdjacencyMatchesUnitDistance(t *testing.T) {
	for x1 := -2; x1 <= 2; x1++ {
		for y1 := -2; y1 <= 2; y1++ {
			for x2 := -2; x2 <= 2; x2++ {
				for y2 := -2; y2 <= 2; y2++ {
					adj := IsAdjacent(x1, y1, x2, y2)
					assert.Equal(t, ManhattanDistance(x1, y1, x2, y2) == 1, adj)
				}
			}
		}
	}
}
