package rimage

import (
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// BorderType is the kind of border a contour follows.
type BorderType int

const (
	// Hole is a border between a hole (0-component) and the 1-component surrounding it.
	Hole BorderType = iota + 1
	// Outer is a border between a 1-component and the 0-component surrounding it.
	Outer
)

// Border identifies a traced border.
type Border struct {
	SegNum int
	Type   BorderType
}

// Node is one entry of a contour hierarchy. Parent, FirstChild and NextSibling are indices into the
// hierarchy, -1 when absent.
type Node struct {
	Parent      int
	FirstChild  int
	NextSibling int
	Border      Border
}

func (n *Node) reset() {
	n.Parent = -1
	n.FirstChild = -1
	n.NextSibling = -1
}

// Hierarchy describes the nesting of contours. Entry 0 is the image frame (a Hole border);
// entry i+1 describes contour i.
type Hierarchy []Node

// Children returns the hierarchy indices of the direct children of node i in discovery order.
func (h Hierarchy) Children(i int) []int {
	var out []int
	for c := h[i].FirstChild; c != -1; c = h[c].NextSibling {
		out = append(out, c)
	}
	return out
}

// PointMat is a (row, col) position in a matrix.
type PointMat struct {
	Row, Col int
}

// 8-neighborhood, clockwise in image coordinates starting east.
var neighborhood = [8]PointMat{
	{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
}

func neighborIndex(center, p PointMat) int {
	dr, dc := p.Row-center.Row, p.Col-center.Col
	for i, n := range neighborhood {
		if n.Row == dr && n.Col == dc {
			return i
		}
	}
	return -1
}

// FindContours traces every border of a binary matrix (non-zero is foreground) following Suzuki and Abe,
// "Topological Structural Analysis of Digitized Binary Images by Border Following" (1985).
// It returns the contours as pixel positions (X = column, Y = row) and their hierarchy.
func FindContours(binary *mat.Dense) ([][]image.Point, Hierarchy) {
	rows, cols := binary.Dims()
	// pad with a zero frame so the border following never leaves the grid
	f := make([][]int, rows+2)
	for r := range f {
		f[r] = make([]int, cols+2)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if binary.At(r, c) > 0 {
				f[r+1][c+1] = 1
			}
		}
	}

	root := Node{Border: Border{SegNum: 1, Type: Hole}}
	root.reset()
	hierarchy := Hierarchy{root}
	var contours [][]image.Point

	nbd := 1
	for i := 1; i <= rows; i++ {
		lnbd := 1
		for j := 1; j <= cols; j++ {
			var from PointMat
			var borderType BorderType
			switch {
			case f[i][j] == 1 && f[i][j-1] == 0:
				borderType = Outer
				from = PointMat{i, j - 1}
			case f[i][j] >= 1 && f[i][j+1] == 0:
				borderType = Hole
				from = PointMat{i, j + 1}
				if f[i][j] > 1 {
					lnbd = f[i][j]
				}
			default:
				if f[i][j] != 0 && f[i][j] != 1 {
					lnbd = absInt(f[i][j])
				}
				continue
			}

			nbd++
			node := Node{Border: Border{SegNum: nbd, Type: borderType}}
			node.reset()
			prev := hierarchy[lnbd-1]
			switch {
			case borderType == Outer && prev.Border.Type == Outer,
				borderType == Hole && prev.Border.Type == Hole:
				node.Parent = prev.Parent
			default:
				node.Parent = lnbd - 1
			}
			hierarchy = append(hierarchy, node)
			attachChild(hierarchy, node.Parent, len(hierarchy)-1)

			contours = append(contours, followBorder(f, PointMat{i, j}, from, nbd))

			if f[i][j] != 1 {
				lnbd = absInt(f[i][j])
			}
		}
	}
	return contours, hierarchy
}

func attachChild(h Hierarchy, parent, child int) {
	if parent < 0 {
		return
	}
	if h[parent].FirstChild == -1 {
		h[parent].FirstChild = child
		return
	}
	last := h[parent].FirstChild
	for h[last].NextSibling != -1 {
		last = h[last].NextSibling
	}
	h[last].NextSibling = child
}

// followBorder marks and returns the border starting at start, entered from the 0-pixel from.
func followBorder(f [][]int, start, from PointMat, nbd int) []image.Point {
	toPoint := func(p PointMat) image.Point {
		return image.Point{X: p.Col - 1, Y: p.Row - 1}
	}
	at := func(p PointMat) int {
		return f[p.Row][p.Col]
	}

	// look clockwise around start for the first non-zero pixel
	d0 := neighborIndex(start, from)
	first := PointMat{-1, -1}
	for k := 0; k < 8; k++ {
		n := neighborhood[(d0+k)%8]
		p := PointMat{start.Row + n.Row, start.Col + n.Col}
		if at(p) != 0 {
			first = p
			break
		}
	}
	if first.Row == -1 {
		// isolated pixel
		f[start.Row][start.Col] = -nbd
		return []image.Point{toPoint(start)}
	}

	var contour []image.Point
	prev, cur := first, start
	for {
		contour = append(contour, toPoint(cur))

		// look counter clockwise around cur, starting after prev
		d := neighborIndex(cur, prev)
		eastZeroExamined := false
		var next PointMat
		for k := 1; k <= 8; k++ {
			idx := (d - k + 16) % 8
			n := neighborhood[idx]
			p := PointMat{cur.Row + n.Row, cur.Col + n.Col}
			if at(p) != 0 {
				next = p
				break
			}
			if idx == 0 {
				eastZeroExamined = true
			}
		}

		switch {
		case eastZeroExamined:
			f[cur.Row][cur.Col] = -nbd
		case f[cur.Row][cur.Col] == 1:
			f[cur.Row][cur.Col] = nbd
		}

		if next == start && cur == first {
			break
		}
		prev, cur = cur, next
	}
	return contour
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ContourArea returns the area enclosed by a closed contour using the shoelace formula.
func ContourArea(contour []image.Point) float64 {
	return math.Abs(signedArea(contour))
}

func signedArea(contour []image.Point) float64 {
	n := len(contour)
	if n < 3 {
		return 0
	}
	sum := 0
	for i := 0; i < n; i++ {
		a, b := contour[i], contour[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return float64(sum) / 2
}

// ContourCentroid returns the centroid of the polygon enclosed by the contour, rounded to the nearest pixel.
// Contours enclosing no area fall back to the mean of their points.
func ContourCentroid(contour []image.Point) image.Point {
	if len(contour) == 0 {
		return NoPoints
	}
	a := signedArea(contour)
	if a == 0 {
		sx, sy := 0, 0
		for _, p := range contour {
			sx += p.X
			sy += p.Y
		}
		n := float64(len(contour))
		return image.Point{X: int(math.Round(float64(sx) / n)), Y: int(math.Round(float64(sy) / n))}
	}
	var cx, cy float64
	n := len(contour)
	for i := 0; i < n; i++ {
		p, q := contour[i], contour[(i+1)%n]
		cross := float64(p.X*q.Y - q.X*p.Y)
		cx += float64(p.X+q.X) * cross
		cy += float64(p.Y+q.Y) * cross
	}
	return image.Point{X: int(math.Round(cx / (6 * a))), Y: int(math.Round(cy / (6 * a)))}
}
