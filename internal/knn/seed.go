package knn

import "github.com/SpherenexLabs/npk/internal/models"

// DefaultExemplars returns the built-in seed dataset. Each row is a typical
// reservoir profile with the corrective action an operator would take.
func DefaultExemplars() []models.Exemplar {
	return []models.Exemplar{
		{
			Attributes:    models.Reading{"ph": 6.0, "tds_ppm": 300.0, "turbidity_ntu": 1.0, "temp": 25.0, "ec": 1200.0, "water_pct": 65.0, "n": 20.0, "p": 10.0, "k": 25.0},
			Label:         "OK",
			Justification: "Parameters are within acceptable ranges. Maintain current dosing and monitoring.",
		},
		{
			Attributes:    models.Reading{"ph": 5.2, "tds_ppm": 250.0, "turbidity_ntu": 1.0, "temp": 24.0, "ec": 1000.0, "water_pct": 70.0, "n": 10.0, "p": 8.0, "k": 12.0},
			Label:         "Add Base",
			Justification: "pH is slightly acidic. Add a mild base or reduce acidic inputs to raise pH toward 6.5–7.5.",
		},
		{
			Attributes:    models.Reading{"ph": 8.9, "tds_ppm": 350.0, "turbidity_ntu": 1.0, "temp": 27.0, "ec": 1100.0, "water_pct": 60.0, "n": 15.0, "p": 12.0, "k": 20.0},
			Label:         "Add Acid",
			Justification: "pH is slightly alkaline. Add a mild acid to bring pH closer to 6.5–7.5.",
		},
		{
			Attributes:    models.Reading{"ph": 6.7, "tds_ppm": 1100.0, "turbidity_ntu": 2.0, "temp": 28.0, "ec": 2000.0, "water_pct": 55.0, "n": 5.0, "p": 3.0, "k": 10.0},
			Label:         "Dilute",
			Justification: "High TDS/EC detected. Dilute with fresh water or reduce nutrient dosing.",
		},
		{
			Attributes:    models.Reading{"ph": 6.8, "tds_ppm": 150.0, "turbidity_ntu": 8.0, "temp": 26.0, "ec": 500.0, "water_pct": 70.0, "n": 18.0, "p": 10.0, "k": 20.0},
			Label:         "Filter/Clean",
			Justification: "Elevated turbidity. Check filters, lines, and consider settling/filtration.",
		},
		{
			Attributes:    models.Reading{"ph": 6.5, "tds_ppm": 220.0, "turbidity_ntu": 1.0, "temp": 35.0, "ec": 800.0, "water_pct": 40.0, "n": 25.0, "p": 15.0, "k": 30.0},
			Label:         "Cool/Refill",
			Justification: "High temperature and low water level. Improve cooling and refill the tank.",
		},
		{
			Attributes:    models.Reading{"ph": 6.6, "tds_ppm": 180.0, "turbidity_ntu": 1.0, "temp": 22.0, "ec": 700.0, "water_pct": 95.0, "n": 5.0, "p": 4.0, "k": 6.0},
			Label:         "Balance NPK",
			Justification: "Low NPK levels. Consider balanced nutrient dosing based on crop stage.",
		},
		{
			Attributes:    models.Reading{"ph": 5.8, "tds_ppm": 600.0, "turbidity_ntu": 2.0, "temp": 23.0, "ec": 1400.0, "water_pct": 85.0, "n": 60.0, "p": 20.0, "k": 40.0},
			Label:         "Reduce Nutrients",
			Justification: "NPK/EC trending high. Reduce nutrient concentration gradually and monitor.",
		},
		{
			Attributes:    models.Reading{"ph": 7.2, "tds_ppm": 50.0, "turbidity_ntu": 0.5, "temp": 20.0, "ec": 150.0, "water_pct": 80.0, "n": 0.0, "p": 0.0, "k": 0.0},
			Label:         "Dose Nutrients",
			Justification: "Very low TDS/EC. Add base nutrients to reach optimal conductivity.",
		},
		{
			Attributes:    models.Reading{"ph": 7.0, "tds_ppm": 400.0, "turbidity_ntu": 1.0, "temp": 24.0, "ec": 900.0, "water_pct": 20.0, "n": 18.0, "p": 12.0, "k": 22.0},
			Label:         "Refill Tank",
			Justification: "Low water level detected. Refill reservoir to avoid pump cavitation and swings.",
		},
	}
}
