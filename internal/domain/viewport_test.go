package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverviewZoom(t *testing.T) {
	tests := []struct {
		primary  int
		expected int
	}{
		{0, 1},
		{2, 1},
		{3, 1},
		{4, 2},
		{6, 4},
		{9, 7},
		{10, 7},
		{18, 7},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, OverviewZoom(tt.primary), "primary zoom %d", tt.primary)
	}
}

func TestOverviewZoom_MatchesClampForAllZooms(t *testing.T) {
	for z := 0; z <= 22; z++ {
		want := z - 2
		if want < 1 {
			want = 1
		}
		if want > 7 {
			want = 7
		}
		assert.Equal(t, want, OverviewZoom(z))
	}
}

func TestOverviewOf_KeepsCenter(t *testing.T) {
	primary := Viewport{Center: LatLon{Lat: 40.7128, Lon: -74.006}, Zoom: 6}

	overview := OverviewOf(primary)

	assert.Equal(t, primary.Center, overview.Center)
	assert.Equal(t, 4, overview.Zoom)
}
