package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"proxtest/domain/travel"
)

// ProximityGeneratorConfig configures the synthetic community generator
type ProximityGeneratorConfig struct {
	CommunityCount int     `json:"community_count" toml:"community_count"`
	ObservedPairs  int     `json:"observed_pairs" toml:"observed_pairs"`
	Neighbours     int     `json:"neighbours" toml:"neighbours"` // 0 draws destinations uniformly
	ExtentKm       float64 `json:"extent_km" toml:"extent_km"`
	RoadFactor     float64 `json:"road_factor" toml:"road_factor"`
	SpeedKmH       float64 `json:"speed_kmh" toml:"speed_kmh"`
	Asymmetry      float64 `json:"asymmetry" toml:"asymmetry"` // max relative difference between A->B and B->A
	Seed           int64   `json:"seed" toml:"seed"`
}

// DefaultProximityConfig returns a small study area with strongly local links
func DefaultProximityConfig() ProximityGeneratorConfig {
	return ProximityGeneratorConfig{
		CommunityCount: 40,
		ObservedPairs:  120,
		Neighbours:     3,
		ExtentKm:       200,
		RoadFactor:     1.3,
		SpeedKmH:       60,
		Asymmetry:      0.05,
		Seed:           42,
	}
}

// SyntheticData is a generated study: the full pairwise table (self-pairs
// included, as exported by routing tools) and the observed pairs
type SyntheticData struct {
	Communities []travel.Community
	Full        []travel.LookupRow
	Observed    []travel.ObservedPair
}

// ProximityDataGenerator places communities on a plane and draws observed
// pairs biased towards near neighbours
type ProximityDataGenerator struct {
	config ProximityGeneratorConfig
	rng    *rand.Rand
}

// NewProximityDataGenerator creates a generator
func NewProximityDataGenerator(config ProximityGeneratorConfig) (*ProximityDataGenerator, error) {
	if config.CommunityCount < 2 {
		return nil, fmt.Errorf("community count must be at least 2, got %d", config.CommunityCount)
	}
	if config.ObservedPairs < 1 {
		return nil, fmt.Errorf("observed pair count must be at least 1, got %d", config.ObservedPairs)
	}
	if config.ExtentKm <= 0 || config.RoadFactor <= 0 || config.SpeedKmH <= 0 {
		return nil, fmt.Errorf("extent, road factor and speed must be positive")
	}
	if config.Neighbours >= config.CommunityCount {
		config.Neighbours = config.CommunityCount - 1
	}
	return &ProximityDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}, nil
}

type point struct{ x, y float64 }

// Generate builds the full table and the observed pairs
func (g *ProximityDataGenerator) Generate() *SyntheticData {
	n := g.config.CommunityCount
	names := make([]travel.Community, n)
	places := make([]point, n)
	for i := range names {
		names[i] = travel.Community(fmt.Sprintf("community_%03d", i+1))
		places[i] = point{g.rng.Float64() * g.config.ExtentKm, g.rng.Float64() * g.config.ExtentKm}
	}

	costs := make([][]travel.TravelCost, n)
	full := make([]travel.LookupRow, 0, n*n)
	for i := range names {
		costs[i] = make([]travel.TravelCost, n)
		for j := range names {
			var cost travel.TravelCost
			if i != j {
				km := math.Hypot(places[i].x-places[j].x, places[i].y-places[j].y) * g.config.RoadFactor
				km *= 1 + g.config.Asymmetry*(g.rng.Float64()*2-1)
				cost = travel.TravelCost{DistanceKm: round3(km), TimeH: round3(km / g.config.SpeedKmH)}
			}
			costs[i][j] = cost
			full = append(full, travel.LookupRow{Origin: names[i], Destination: names[j], Cost: cost})
		}
	}

	observed := make([]travel.ObservedPair, 0, g.config.ObservedPairs)
	for len(observed) < g.config.ObservedPairs {
		i := g.rng.Intn(n)
		j := g.pickDestination(i, costs[i])
		observed = append(observed, travel.ObservedPair{Origin: names[i], Destination: names[j], Cost: costs[i][j]})
	}

	return &SyntheticData{Communities: names, Full: full, Observed: observed}
}

// pickDestination returns one of the configured nearest neighbours of
// origin, or any other community when Neighbours is 0
func (g *ProximityDataGenerator) pickDestination(origin int, row []travel.TravelCost) int {
	n := len(row)
	if g.config.Neighbours <= 0 {
		j := g.rng.Intn(n - 1)
		if j >= origin {
			j++
		}
		return j
	}

	candidates := make([]int, 0, n-1)
	for j := range row {
		if j != origin {
			candidates = append(candidates, j)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return row[candidates[a]].DistanceKm < row[candidates[b]].DistanceKm
	})
	return candidates[g.rng.Intn(g.config.Neighbours)]
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
