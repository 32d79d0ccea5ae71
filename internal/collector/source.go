package collector

import "CycleScope/internal/model"

// Source provides the bars for one analysis run.
type Source interface {
	LoadBars() ([]model.PriceBar, error)
	Name() string
}
