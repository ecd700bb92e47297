package domain

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// ClusterMode selects how centroids are refined after seeding.
type ClusterMode string

const (
	// ModeSinglePass assigns records once and recenters once.
	ModeSinglePass ClusterMode = "single-pass"
	// ModeConverge repeats assignment and recentering until assignments stop
	// changing or the iteration limit is reached.
	ModeConverge ClusterMode = "converge"
)

// DefaultMaxIterations bounds ModeConverge when no limit is configured.
const DefaultMaxIterations = 100

// Accepted cluster counts for configuration and API queries.
const (
	MinClusterK = 1
	MaxClusterK = 50
)

// ParseClusterMode accepts "single-pass" and "converge". Empty means single-pass.
func ParseClusterMode(s string) (ClusterMode, error) {
	switch ClusterMode(s) {
	case "", ModeSinglePass:
		return ModeSinglePass, nil
	case ModeConverge:
		return ModeConverge, nil
	default:
		return "", fmt.Errorf("parse cluster mode: unknown mode %q", s)
	}
}

// Centroid is a point in raw latitude/longitude degree space.
type Centroid struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Cluster is a spatial hotspot: a centroid and the records nearest to it.
type Cluster struct {
	ID       int              `json:"id"`
	Centroid Centroid         `json:"centroid"`
	Members  []IncidentRecord `json:"members"`
	Severity Severity         `json:"severity"`
}

// ClusterSeverity maps a member count to a tier: >50 High, >20 Medium, else Low.
func ClusterSeverity(count int) Severity {
	switch {
	case count > 50:
		return SeverityHigh
	case count > 20:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Clusterer partitions records into spatial clusters. A Clusterer is not safe
// for concurrent use because it draws from its random source.
type Clusterer struct {
	rng           *rand.Rand
	mode          ClusterMode
	maxIterations int
}

// NewClusterer creates a Clusterer seeded from rng. maxIterations only applies
// to ModeConverge; non-positive values use DefaultMaxIterations.
func NewClusterer(rng *rand.Rand, mode ClusterMode, maxIterations int) *Clusterer {
	if mode == "" {
		mode = ModeSinglePass
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Clusterer{rng: rng, mode: mode, maxIterations: maxIterations}
}

// Cluster seeds k centroids uniformly inside the records' bounding box,
// assigns each record to its nearest centroid, recenters on the member mean,
// and drops empty clusters. The result holds between 1 and k clusters for
// non-empty input and every record appears in exactly one of them.
func (c *Clusterer) Cluster(records []IncidentRecord, k int) ([]Cluster, error) {
	if k <= 0 {
		return nil, fmt.Errorf("cluster %d records: %w", len(records), ErrInvalidClusterCount)
	}
	if len(records) == 0 {
		return []Cluster{}, nil
	}

	centroids := c.seedCentroids(records, k)
	assignment := assign(records, centroids)
	centroids = recenter(records, assignment, centroids)

	if c.mode == ModeConverge {
		for range c.maxIterations {
			next := assign(records, centroids)
			if sameAssignment(assignment, next) {
				break
			}
			assignment = next
			centroids = recenter(records, assignment, centroids)
		}
	}

	return buildClusters(records, assignment, centroids), nil
}

func (c *Clusterer) seedCentroids(records []IncidentRecord, k int) []Centroid {
	minLat, maxLat := records[0].Latitude, records[0].Latitude
	minLng, maxLng := records[0].Longitude, records[0].Longitude
	for i := range records[1:] {
		r := &records[i+1]
		minLat = math.Min(minLat, r.Latitude)
		maxLat = math.Max(maxLat, r.Latitude)
		minLng = math.Min(minLng, r.Longitude)
		maxLng = math.Max(maxLng, r.Longitude)
	}

	centroids := make([]Centroid, k)
	for i := range centroids {
		centroids[i] = Centroid{
			Lat: minLat + (maxLat-minLat)*c.rng.Float64(),
			Lng: minLng + (maxLng-minLng)*c.rng.Float64(),
		}
	}
	return centroids
}

// assign returns the index of the nearest centroid for each record. Ties go
// to the lowest index.
func assign(records []IncidentRecord, centroids []Centroid) []int {
	assignment := make([]int, len(records))
	for i := range records {
		best := 0
		bestDist := math.Inf(1)
		for j, ctr := range centroids {
			d := distance(records[i].Latitude, records[i].Longitude, ctr)
			if d < bestDist {
				bestDist = d
				best = j
			}
		}
		assignment[i] = best
	}
	return assignment
}

// recenter moves each non-empty centroid to its members' mean. Empty
// centroids keep their previous position.
func recenter(records []IncidentRecord, assignment []int, centroids []Centroid) []Centroid {
	sums := make([]Centroid, len(centroids))
	counts := make([]int, len(centroids))
	for i, idx := range assignment {
		sums[idx].Lat += records[i].Latitude
		sums[idx].Lng += records[i].Longitude
		counts[idx]++
	}

	next := make([]Centroid, len(centroids))
	for j := range centroids {
		if counts[j] == 0 {
			next[j] = centroids[j]
			continue
		}
		n := float64(counts[j])
		next[j] = Centroid{Lat: sums[j].Lat / n, Lng: sums[j].Lng / n}
	}
	return next
}

func buildClusters(records []IncidentRecord, assignment []int, centroids []Centroid) []Cluster {
	members := make([][]IncidentRecord, len(centroids))
	for i, idx := range assignment {
		members[idx] = append(members[idx], records[i])
	}

	clusters := make([]Cluster, 0, len(centroids))
	for j := range centroids {
		if len(members[j]) == 0 {
			continue
		}
		clusters = append(clusters, Cluster{
			ID:       len(clusters),
			Centroid: centroids[j],
			Members:  members[j],
			Severity: ClusterSeverity(len(members[j])),
		})
	}
	return clusters
}

func sameAssignment(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// distance is Euclidean distance in degree space with no projection correction.
func distance(lat, lng float64, c Centroid) float64 {
	return math.Hypot(lat-c.Lat, lng-c.Lng)
}
