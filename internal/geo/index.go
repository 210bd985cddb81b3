package geo

import (
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Point is one indexed coordinate. Pos is the caller's position for the
// point, typically its offset in a snapshot.
type Point struct {
	Pos int
	Lat float64
	Lon float64
}

// Index answers planar range queries over a fixed set of points. It is
// immutable after NewIndex and safe for concurrent use.
type Index struct {
	tree *kdtree.Tree
	size int
}

// NewIndex builds a k-d tree over points. The input slice is copied; the
// tree partitions its own copy.
func NewIndex(points []Point) *Index {
	pts := make(indexPoints, len(points))
	for i, p := range points {
		pts[i] = indexPoint(p)
	}
	idx := &Index{size: len(pts)}
	if len(pts) > 0 {
		idx.tree = kdtree.New(pts, false)
	}
	return idx
}

// Len returns the number of indexed points.
func (x *Index) Len() int {
	return x.size
}

// RangeQuery returns the Pos of every point whose degree-space distance from
// (lat, lon) is at most radiusDeg, nearest first in degree space. The order
// of equal planar distances is unspecified.
func (x *Index) RangeQuery(lat, lon, radiusDeg float64) []int {
	if x.tree == nil || radiusDeg < 0 {
		return nil
	}

	// Distances are squared.
	keep := kdtree.NewDistKeeper(radiusDeg * radiusDeg)
	x.tree.NearestSet(keep, indexPoint{Lat: lat, Lon: lon})

	out := make([]int, 0, len(keep.Heap))
	for _, c := range keep.Heap {
		// An empty result leaves the keeper's sentinel in place.
		if c.Comparable == nil {
			continue
		}
		out = append(out, c.Comparable.(indexPoint).Pos)
	}
	return out
}

// indexPoint satisfies kdtree.Comparable. The dimensions are:
//
//	0 = lat
//	1 = lon
type indexPoint Point

func (p indexPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexPoint)
	switch d {
	case 0:
		return p.Lat - q.Lat
	case 1:
		return p.Lon - q.Lon
	default:
		panic("illegal dimension")
	}
}

func (p indexPoint) Dims() int { return 2 }

// Distance is the squared planar distance in degrees, matching the squared
// per-axis Compare values the tree prunes with.
func (p indexPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexPoint)
	dLat := p.Lat - q.Lat
	dLon := p.Lon - q.Lon
	return dLat*dLat + dLon*dLon
}

// indexPoints satisfies kdtree.Interface.
type indexPoints []indexPoint

func (p indexPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p indexPoints) Len() int                              { return len(p) }
func (p indexPoints) Pivot(d kdtree.Dim) int                { return plane{indexPoints: p, Dim: d}.Pivot() }
func (p indexPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

type plane struct {
	kdtree.Dim
	indexPoints
}

func (p plane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.indexPoints[i].Lat < p.indexPoints[j].Lat
	case 1:
		return p.indexPoints[i].Lon < p.indexPoints[j].Lon
	default:
		panic("illegal dimension")
	}
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.indexPoints = p.indexPoints[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.indexPoints[i], p.indexPoints[j] = p.indexPoints[j], p.indexPoints[i]
}
