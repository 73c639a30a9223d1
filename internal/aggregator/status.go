package aggregator

import (
	"fmt"

	"github.com/SpherenexLabs/npk/internal/models"
)

// SeverityCritical marks a reading outside its safe band
const SeverityCritical = "critical"

// StatusThresholds defines the safe operating bands for a tank
type StatusThresholds struct {
	PHMin        float64
	PHMax        float64
	TempMin      float64 // °C
	TempMax      float64 // °C
	TurbidityMax float64 // NTU
}

// DefaultStatusThresholds returns the bands used by the dashboard status colours
func DefaultStatusThresholds() StatusThresholds {
	return StatusThresholds{
		PHMin:        6.5,
		PHMax:        8.5,
		TempMin:      0,
		TempMax:      35,
		TurbidityMax: 4,
	}
}

// EvaluateStatus flags pH, temperature and turbidity values outside their
// bands. Fields that are absent or not numeric raise no alert.
func EvaluateStatus(reading models.Reading, th StatusThresholds) []models.StatusAlert {
	alerts := []models.StatusAlert{}

	if ph, ok := reading.Float("ph"); ok && (ph < th.PHMin || ph > th.PHMax) {
		alerts = append(alerts, models.StatusAlert{
			Field:    "ph",
			Value:    ph,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("pH %.2f outside safe range %.1f-%.1f", ph, th.PHMin, th.PHMax),
		})
	}

	if temp, ok := reading.Float("temp"); ok && (temp < th.TempMin || temp > th.TempMax) {
		alerts = append(alerts, models.StatusAlert{
			Field:    "temp",
			Value:    temp,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("temperature %.1f°C outside safe range %.0f-%.0f°C", temp, th.TempMin, th.TempMax),
		})
	}

	if turb, ok := reading.Float("turbidity_ntu"); ok && turb > th.TurbidityMax {
		alerts = append(alerts, models.StatusAlert{
			Field:    "turbidity_ntu",
			Value:    turb,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("turbidity %.1f NTU above %.0f NTU", turb, th.TurbidityMax),
		})
	}

	return alerts
}
