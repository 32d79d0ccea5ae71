package overlap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CycleScope/internal/model"
)

var base = time.Date(2024, 5, 6, 9, 15, 0, 0, time.UTC)

func proj(srcDay, iv int, projected time.Time) model.Projection {
	return model.Projection{Source: base.AddDate(0, 0, -srcDay), Interval: iv, Unit: model.UnitCalendarDays, Projected: projected}
}

func sample() []model.Projection {
	a := base
	b := base.AddDate(0, 0, 1)
	c := base.AddDate(0, 0, 2)
	return []model.Projection{
		proj(30, 30, a),
		proj(60, 60, a),
		proj(90, 90, a),
		proj(29, 30, b),
		proj(59, 60, b),
		proj(10, 12, c),
		proj(20, 22, c),
		proj(40, 42, c),
		proj(50, 52, a.Add(time.Minute)),
	}
}

func TestCount(t *testing.T) {
	counts := Count(sample())
	assert.Len(t, counts, 4)
	assert.Equal(t, 3, counts[base])
	assert.Equal(t, 2, counts[base.AddDate(0, 0, 1)])
	assert.Equal(t, 1, counts[base.Add(time.Minute)], "no tolerance across near timestamps")
	assert.Equal(t, 3, CountAt(counts, base.In(time.FixedZone("IST", 5*3600+1800))))
	assert.Equal(t, 0, CountAt(counts, base.AddDate(1, 0, 0)))
}

func TestGroup_Threshold(t *testing.T) {
	groups := Group(sample(), 3)
	require.Len(t, groups, 2)
	assert.Equal(t, base, groups[0].Time, "ties ordered by timestamp")
	assert.Equal(t, base.AddDate(0, 0, 2), groups[1].Time)
	assert.Equal(t, []int{30, 60, 90}, groups[0].Intervals())
	assert.Len(t, groups[0].Sources(), 3)

	assert.Empty(t, Group(sample(), 4))
}

func TestGroup_SizesSumToProjections(t *testing.T) {
	ps := sample()
	total := 0
	for _, g := range Group(ps, 1) {
		total += g.Count
		assert.Len(t, g.Projections, g.Count)
	}
	assert.Equal(t, len(ps), total)

	sum := 0
	for _, n := range Count(ps) {
		sum += n
	}
	assert.Equal(t, len(ps), sum)
}
