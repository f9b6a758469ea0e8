package reactor

// quantileEstimator estimates a single quantile from a stream of
// observations in O(1) time and space per observation, using the P²
// algorithm: five markers bracket the target quantile and migrate toward
// their idealized positions as observations arrive, without the stream
// ever being retained.
//
// Reference: Jain, R. and Chlamtac, I. (1985). "The P² Algorithm for
// Dynamic Calculation of Quantiles and Histograms Without Storing
// Observations". Communications of the ACM, 28(10), pp. 1076-1085.
//
// Not safe for concurrent use; Metrics serialises access with its own
// mutex.
type quantileEstimator struct {
	target  float64
	markers [5]marker

	buffered int
	seed     [5]float64
}

// marker is one of the five P² markers: its observed height, its actual
// rank among observations seen so far, the idealized (fractional) rank it
// should occupy, and the per-observation increment to that ideal rank.
type marker struct {
	height  float64
	pos     int
	desired float64
	step    float64
}

func newQuantileEstimator(target float64) *quantileEstimator {
	target = clampUnit(target)
	q := &quantileEstimator{target: target}
	steps := [5]float64{0, target / 2, target, (1 + target) / 2, 1}
	for i := range q.markers {
		q.markers[i].step = steps[i]
	}
	return q
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// observe folds one more sample into the estimate.
func (q *quantileEstimator) observe(x float64) {
	q.buffered++
	if q.buffered <= 5 {
		q.seed[q.buffered-1] = x
		if q.buffered == 5 {
			q.seedMarkers()
		}
		return
	}

	cell := q.locateCell(x)
	for i := cell + 1; i < 5; i++ {
		q.markers[i].pos++
	}
	for i := range q.markers {
		q.markers[i].desired += q.markers[i].step
	}
	q.settleInteriorMarkers()
}

// locateCell reports which of the four marker-bounded cells x falls in,
// widening the min/max markers first if x is a new extreme.
func (q *quantileEstimator) locateCell(x float64) int {
	switch {
	case x < q.markers[0].height:
		q.markers[0].height = x
		return 0
	case x >= q.markers[4].height:
		q.markers[4].height = x
		return 3
	}
	for i := 0; i < 4; i++ {
		if q.markers[i].height <= x && x < q.markers[i+1].height {
			return i
		}
	}
	return 3
}

// settleInteriorMarkers nudges markers 1-3 toward their desired rank by
// one position whenever they've drifted too far from it, preferring a
// parabolic height estimate and falling back to a linear one if that
// would violate the markers' ordering.
func (q *quantileEstimator) settleInteriorMarkers() {
	for i := 1; i < 4; i++ {
		m := &q.markers[i]
		drift := m.desired - float64(m.pos)
		aheadGap := q.markers[i+1].pos - m.pos
		behindGap := q.markers[i-1].pos - m.pos
		if !((drift >= 1 && aheadGap > 1) || (drift <= -1 && behindGap < -1)) {
			continue
		}

		sign := 1
		if drift < 0 {
			sign = -1
		}
		height := q.parabolic(i, sign)
		if !(q.markers[i-1].height < height && height < q.markers[i+1].height) {
			height = q.linear(i, sign)
		}
		m.height = height
		m.pos += sign
	}
}

func (q *quantileEstimator) parabolic(i, sign int) float64 {
	d := float64(sign)
	cur, prev, next := q.markers[i], q.markers[i-1], q.markers[i+1]
	curPos, prevPos, nextPos := float64(cur.pos), float64(prev.pos), float64(next.pos)

	scale := d / (nextPos - prevPos)
	rise := (curPos - prevPos + d) * (next.height - cur.height) / (nextPos - curPos)
	fall := (nextPos - curPos - d) * (cur.height - prev.height) / (curPos - prevPos)
	return cur.height + scale*(rise+fall)
}

func (q *quantileEstimator) linear(i, sign int) float64 {
	cur := q.markers[i]
	if sign == 1 {
		next := q.markers[i+1]
		return cur.height + (next.height-cur.height)/float64(next.pos-cur.pos)
	}
	prev := q.markers[i-1]
	return cur.height - (cur.height-prev.height)/float64(cur.pos-prev.pos)
}

// seedMarkers consumes the first five buffered observations, sorting them
// into the initial marker heights and ranks.
func (q *quantileEstimator) seedMarkers() {
	sorted := q.seed
	insertionSort(sorted[:])
	for i := range q.markers {
		q.markers[i].height = sorted[i]
		q.markers[i].pos = i
	}
	q.markers[0].desired = 0
	q.markers[1].desired = 2 * q.target
	q.markers[2].desired = 4 * q.target
	q.markers[3].desired = 2 + 2*q.target
	q.markers[4].desired = 4
}

// value returns the current quantile estimate: the exact rank-ordered
// value while fewer than five samples have arrived, else the P²
// estimate at the middle marker.
func (q *quantileEstimator) value() float64 {
	if q.buffered == 0 {
		return 0
	}
	if q.buffered < 5 {
		sorted := append([]float64(nil), q.seed[:q.buffered]...)
		insertionSort(sorted)
		idx := int(float64(len(sorted)-1) * q.target)
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return sorted[idx]
	}
	return q.markers[2].height
}

// insertionSort sorts v in place; v is always at most 5 elements here, so
// the quadratic cost never matters.
func insertionSort(v []float64) {
	for i := 1; i < len(v); i++ {
		x := v[i]
		j := i - 1
		for j >= 0 && v[j] > x {
			v[j+1] = v[j]
			j--
		}
		v[j+1] = x
	}
}
