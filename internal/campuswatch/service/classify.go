package service

import "github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"

// criticalMargin is the fixed band beyond a threshold that escalates a
// WARNING to CRITICAL. Not configurable.
const criticalMargin = 2.0

type Thresholds struct {
	TempMin float64
	TempMax float64
	HumMin  float64
	HumMax  float64
}

// Classify maps a reading to a severity. Bounds are inclusive for OK; the
// critical band starts strictly beyond bound±2.
func Classify(temperature, humidity float64, th Thresholds) types.ReadingStatus {
	switch {
	case temperature < th.TempMin-criticalMargin,
		temperature > th.TempMax+criticalMargin,
		humidity < th.HumMin-criticalMargin,
		humidity > th.HumMax+criticalMargin:
		return types.StatusCritical
	case temperature < th.TempMin,
		temperature > th.TempMax,
		humidity < th.HumMin,
		humidity > th.HumMax:
		return types.StatusWarning
	default:
		return types.StatusOK
	}
}
