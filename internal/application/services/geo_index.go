package services

import (
	"math"
	"sort"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

const (
	earthRadiusKm = 6371.0

	// SentinelDistanceKm stands in for hospitals without a registered coordinate.
	SentinelDistanceKm = 9999.0

	// DefaultPerRegionCap bounds how many hospitals one region contributes.
	DefaultPerRegionCap = 3
)

// Candidate is a profile paired with its distance from the query point.
type Candidate struct {
	Profile     *entities.HospitalProfile
	DistanceKm  float64
	Coordinates *entities.GeoCoordinate
}

// DistanceKm returns the haversine great-circle distance between two points.
func DistanceKm(a, b entities.GeoCoordinate) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	if h > 1 {
		h = 1
	}
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RankByDistance pairs every profile with its distance from the query and
// sorts nearest first. Hospitals without coordinates get SentinelDistanceKm.
func RankByDistance(profiles []*entities.HospitalProfile, coordinates map[string]entities.GeoCoordinate, query entities.GeoCoordinate) []Candidate {
	candidates := make([]Candidate, 0, len(profiles))
	for _, p := range profiles {
		if p == nil {
			continue
		}
		c := Candidate{Profile: p, DistanceKm: SentinelDistanceKm}
		if coord, ok := coordinates[p.ID]; ok {
			coord := coord
			c.DistanceKm = DistanceKm(query, coord)
			c.Coordinates = &coord
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return candidates[i].Profile.ID < candidates[j].Profile.ID
	})
	return candidates
}

// SelectDiverseCandidates keeps at most perRegionCap of the nearest hospitals
// per region key so a dense metro area cannot fill the whole result. The
// union is returned nearest first.
func SelectDiverseCandidates(profiles []*entities.HospitalProfile, coordinates map[string]entities.GeoCoordinate, query entities.GeoCoordinate, perRegionCap int) []Candidate {
	if perRegionCap <= 0 {
		perRegionCap = DefaultPerRegionCap
	}

	ranked := RankByDistance(profiles, coordinates, query)
	perRegion := make(map[string]int)
	selected := make([]Candidate, 0, len(ranked))
	for _, c := range ranked {
		key := c.Profile.RegionKey()
		if perRegion[key] >= perRegionCap {
			continue
		}
		perRegion[key]++
		selected = append(selected, c)
	}
	return selected
}
