// Package output builds and renders tracking reports. The JSON document
// layout and rounding are a fixed contract shared by the CLI and the API.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/shivmishra76/sat-tracker-cli/internal/passes"
)

// Position is the satellite's geodetic subpoint and speed.
type Position struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	AltitudeKm  float64 `json:"altitude_km"`
	VelocityKms float64 `json:"velocity_kms"`
}

// Satellite describes the tracked satellite.
type Satellite struct {
	Name                 string   `json:"name"`
	Position             Position `json:"position"`
	OrbitalPeriodMinutes float64  `json:"orbital_period_minutes"`
}

// GroundStation echoes the observer coordinates from the request.
type GroundStation struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	AltitudeKm float64 `json:"altitude_km"`
}

// Visibility is the instantaneous look angles from the ground station.
type Visibility struct {
	AzimuthDegrees   float64 `json:"azimuth_degrees"`
	ElevationDegrees float64 `json:"elevation_degrees"`
	RangeKm          float64 `json:"range_km"`
	IsVisible        bool    `json:"is_visible"`
}

// Predictions holds the pass prediction results and their parameters.
type Predictions struct {
	PredictionPeriodHours   float64              `json:"prediction_period_hours"`
	MinimumElevationDegrees float64              `json:"minimum_elevation_degrees"`
	TotalPasses             int                  `json:"total_passes"`
	Passes                  []passes.PassRecord  `json:"passes"`
	NextPass                *passes.NextPassInfo `json:"next_pass"`
}

// Report is the complete tracking document.
type Report struct {
	Timestamp     time.Time     `json:"timestamp"`
	Satellite     Satellite     `json:"satellite"`
	GroundStation GroundStation `json:"ground_station"`
	Visibility    Visibility    `json:"visibility"`
	Predictions   Predictions   `json:"predictions"`
}

// ReportInput carries the raw values a Report is assembled from.
type ReportInput struct {
	Timestamp    time.Time
	Name         string
	SubLatDeg    float64
	SubLonDeg    float64
	AltKm        float64
	VelocityKms  float64
	PeriodMin    float64
	GSLatDeg     float64
	GSLonDeg     float64
	GSAltKm      float64
	AzimuthDeg   float64
	ElevationDeg float64
	RangeKm      float64
	HorizonHours float64
	MinElevation float64
	Passes       []passes.PassRecord
	NextPass     *passes.NextPassInfo
}

// NewReport assembles a Report, applying the contract rounding: subpoint
// coordinates to 6 decimals, everything else to 2.
func NewReport(in ReportInput) Report {
	if in.Passes == nil {
		in.Passes = []passes.PassRecord{}
	}
	return Report{
		Timestamp: in.Timestamp.UTC(),
		Satellite: Satellite{
			Name: in.Name,
			Position: Position{
				Latitude:    round6(in.SubLatDeg),
				Longitude:   round6(in.SubLonDeg),
				AltitudeKm:  round2(in.AltKm),
				VelocityKms: round2(in.VelocityKms),
			},
			OrbitalPeriodMinutes: round2(in.PeriodMin),
		},
		GroundStation: GroundStation{
			Latitude:   in.GSLatDeg,
			Longitude:  in.GSLonDeg,
			AltitudeKm: in.GSAltKm,
		},
		Visibility: Visibility{
			AzimuthDegrees:   round2(in.AzimuthDeg),
			ElevationDegrees: round2(in.ElevationDeg),
			RangeKm:          round2(in.RangeKm),
			IsVisible:        in.ElevationDeg > 0,
		},
		Predictions: Predictions{
			PredictionPeriodHours:   in.HorizonHours,
			MinimumElevationDegrees: in.MinElevation,
			TotalPasses:             len(in.Passes),
			Passes:                  in.Passes,
			NextPass:                in.NextPass,
		},
	}
}

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// maxHumanPasses caps how many passes the human-readable view prints.
const maxHumanPasses = 5

// WriteHuman renders the report for a terminal.
func WriteHuman(w io.Writer, r Report) {
	pos := r.Satellite.Position
	fmt.Fprintf(w, "Latitude:  %.4f°\n", pos.Latitude)
	fmt.Fprintf(w, "Longitude: %.4f°\n", pos.Longitude)
	fmt.Fprintf(w, "Altitude:  %.2f km\n", pos.AltitudeKm)
	fmt.Fprintf(w, "Velocity:  %.2f km/s\n", pos.VelocityKms)
	fmt.Fprintf(w, "Orbital Period: %.1f minutes\n", r.Satellite.OrbitalPeriodMinutes)

	vis := r.Visibility
	fmt.Fprintf(w, "Azimuth:   %.2f°\n", vis.AzimuthDegrees)
	fmt.Fprintf(w, "Elevation: %.2f°\n", vis.ElevationDegrees)
	fmt.Fprintf(w, "Range:     %.2f km\n", vis.RangeKm)
	if vis.IsVisible {
		fmt.Fprintln(w, "Satellite is currently visible from your ground station.")
	} else {
		fmt.Fprintln(w, "Satellite is NOT currently visible from your ground station.")
	}

	pred := r.Predictions
	fmt.Fprintf(w, "\nPass Predictions (next %g hours, min elevation %g°):\n",
		pred.PredictionPeriodHours, pred.MinimumElevationDegrees)
	fmt.Fprintf(w, "Total passes: %d\n", pred.TotalPasses)

	if len(pred.Passes) == 0 {
		fmt.Fprintln(w, "No passes found in the prediction window.")
		return
	}

	for i, p := range pred.Passes {
		if i >= maxHumanPasses {
			break
		}
		fmt.Fprintf(w, "\nPass %d:\n", i+1)
		fmt.Fprintf(w, "  Start:    %s\n", p.StartTime.UTC().Format("2006-01-02 15:04:05 UTC"))
		fmt.Fprintf(w, "  End:      %s\n", p.EndTime.UTC().Format("2006-01-02 15:04:05 UTC"))
		fmt.Fprintf(w, "  Duration: %g minutes\n", p.DurationMinutes)
		fmt.Fprintf(w, "  Max elevation: %g° at %s\n", p.MaxElevation, p.MaxElevationTime.UTC().Format("15:04:05 UTC"))
	}

	if pred.NextPass != nil {
		if pred.NextPass.MinutesUntil > 0 {
			fmt.Fprintf(w, "\nNext pass in %.1f minutes!\n", pred.NextPass.MinutesUntil)
		} else {
			fmt.Fprintln(w, "\nPass is happening now or just started!")
		}
	}
}

// ErrorDoc is the JSON error shape for CLI failures.
type ErrorDoc struct {
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// WriteError renders an error in the requested format.
func WriteError(w io.Writer, err error, jsonOutput bool) {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.Encode(ErrorDoc{Error: err.Error(), Timestamp: time.Now().UTC()})
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
