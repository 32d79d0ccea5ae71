package model

import "time"

// PivotKind is the direction of a local extremum.
type PivotKind string

const (
	PivotHigh PivotKind = "H"
	PivotLow  PivotKind = "L"
)

// Shape is a triangle classification by side ratios.
type Shape string

const (
	ShapeEquilateral Shape = "equilateral"
	ShapeIsosceles   Shape = "isosceles"
	ShapeScalene     Shape = "scalene"
)

// AllShapes lists every classification in display order.
var AllShapes = []Shape{ShapeEquilateral, ShapeIsosceles, ShapeScalene}

// ParseShape maps a config string to a Shape.
func ParseShape(s string) (Shape, bool) {
	for _, sh := range AllShapes {
		if string(sh) == s {
			return sh, true
		}
	}
	return "", false
}

// Point is a (bar, price) vertex in the time/price plane.
type Point struct {
	Index int
	Time  time.Time
	Price float64
}

// TriangleFormation is the apex/left-base/right-base shape around a pivot high.
type TriangleFormation struct {
	Apex     Point
	Left     Point
	Right    Point
	SideAL   float64
	SideAR   float64
	SideLR   float64
	Shape    Shape
	Symmetry float64 // 0..100
}

// Pivot is a detected local extremum. Candidates that fail the
// minimum-move test are kept with Valid=false and a Reason.
type Pivot struct {
	Index    int
	Time     time.Time
	Kind     PivotKind
	Price    float64
	MovePrev float64 // move against the left window
	MoveNext float64 // move against the right window
	Move     float64 // min(MovePrev, MoveNext)
	Valid    bool
	Reason   string

	// Triangle is set only when triangle filtering ran and kept this pivot.
	Triangle *TriangleFormation
}
