package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shivmishra76/sat-tracker-cli/internal/cache"
	"github.com/shivmishra76/sat-tracker-cli/internal/footprint"
	"github.com/shivmishra76/sat-tracker-cli/internal/metrics"
	"github.com/shivmishra76/sat-tracker-cli/internal/output"
	"github.com/shivmishra76/sat-tracker-cli/internal/passes"
	"github.com/shivmishra76/sat-tracker-cli/internal/propagation"
	"github.com/shivmishra76/sat-tracker-cli/internal/tle"
	"github.com/shivmishra76/sat-tracker-cli/internal/transform"
)

// Query parameter defaults, matching the CLI.
const (
	defaultGSLat        = 40.0
	defaultGSLon        = -88.0
	defaultGSAltKm      = 0.2
	defaultHours        = 24.0
	defaultMinElevation = 10.0
)

type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func badRequest(format string, args ...any) *apiError {
	return &apiError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var ae *apiError
	if errors.As(err, &ae) {
		status = ae.status
	} else if errors.Is(err, passes.ErrInvalidThreshold) || errors.Is(err, passes.ErrEmptyWindow) {
		status = http.StatusBadRequest
	} else if errors.Is(err, passes.ErrInvalidElements) {
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// dataset returns the current TLE dataset or a 503-mapped error.
func (s *Server) dataset() (*tle.TLEDataset, error) {
	ds := s.store.Get()
	if ds == nil {
		return nil, &apiError{status: http.StatusServiceUnavailable, msg: "TLE dataset not loaded yet"}
	}
	return ds, nil
}

// resolveSatellite picks a satellite by ?norad=<id> or ?satellite=<name query>.
func resolveSatellite(r *http.Request, ds *tle.TLEDataset) (tle.TLEEntry, error) {
	if raw := r.URL.Query().Get("norad"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return tle.TLEEntry{}, badRequest("invalid norad id %q", raw)
		}
		entry, ok := tle.FindByNORADID(ds.Satellites, id)
		if !ok {
			return tle.TLEEntry{}, &apiError{status: http.StatusNotFound, msg: fmt.Sprintf("no satellite with NORAD id %d", id)}
		}
		return entry, nil
	}

	name := r.URL.Query().Get("satellite")
	if name == "" {
		return tle.TLEEntry{}, badRequest("missing satellite or norad parameter")
	}
	matches := tle.Search(ds.Satellites, name)
	if len(matches) == 0 {
		return tle.TLEEntry{}, &apiError{status: http.StatusNotFound, msg: fmt.Sprintf("no satellite matching %q", name)}
	}
	return matches[0], nil
}

func floatParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return v, nil
}

type observerParams struct {
	LatDeg, LonDeg, AltKm float64
}

func observerFromQuery(r *http.Request) (observerParams, error) {
	var p observerParams
	var err error
	if p.LatDeg, err = floatParam(r, "lat", defaultGSLat); err != nil {
		return p, err
	}
	if p.LonDeg, err = floatParam(r, "lon", defaultGSLon); err != nil {
		return p, err
	}
	if p.AltKm, err = floatParam(r, "alt_km", defaultGSAltKm); err != nil {
		return p, err
	}
	if p.LatDeg < -90 || p.LatDeg > 90 {
		return p, badRequest("latitude %g out of range", p.LatDeg)
	}
	if p.LonDeg < -180 || p.LonDeg > 360 {
		return p, badRequest("longitude %g out of range", p.LonDeg)
	}
	return p, nil
}

// handlePasses serves the full tracking report: current position, visibility,
// and pass predictions for one satellite and ground station.
func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset()
	if err != nil {
		s.writeError(w, err)
		return
	}
	entry, err := resolveSatellite(r, ds)
	if err != nil {
		s.writeError(w, err)
		return
	}
	obs, err := observerFromQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	hours, err := floatParam(r, "hours", defaultHours)
	if err != nil {
		s.writeError(w, err)
		return
	}
	minEl, err := floatParam(r, "min_elevation", defaultMinElevation)
	if err != nil {
		s.writeError(w, err)
		return
	}

	now := s.now().UTC()
	observer := transform.NewObserverPosition(obs.LatDeg, obs.LonDeg, obs.AltKm*1000)

	records, err := s.predict(entry, observer, obs, now, hours, minEl, ds.FetchedAt)
	if err != nil {
		s.writeError(w, err)
		return
	}

	report, err := buildReport(entry, observer, obs, now, hours, minEl, records)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, report)
}

// predict runs a pass prediction through the cache.
func (s *Server) predict(entry tle.TLEEntry, observer transform.ObserverPosition, obs observerParams,
	now time.Time, hours, minEl float64, fetchedAt time.Time) ([]passes.PassRecord, error) {

	key := cache.NewKey(entry.NORADID, obs.LatDeg, obs.LonDeg, obs.AltKm*1000, hours, minEl)
	if records := s.predCache.Get(key, fetchedAt); records != nil {
		return records, nil
	}

	started := time.Now()
	records, err := passes.Predict(passes.Request{
		Entry:        entry,
		Observer:     observer,
		Start:        now,
		HorizonHours: hours,
		MinElevation: minEl,
	}, s.logger)
	if err != nil {
		return nil, err
	}
	metrics.RecordPrediction(time.Since(started), len(records))

	s.predCache.Put(key, records, fetchedAt)
	return records, nil
}

func buildReport(entry tle.TLEEntry, observer transform.ObserverPosition, obs observerParams,
	now time.Time, hours, minEl float64, records []passes.PassRecord) (output.Report, error) {

	prop, err := propagation.NewSGP4(entry.Line1, entry.Line2, entry.NORADID)
	if err != nil {
		return output.Report{}, fmt.Errorf("%w: %v", passes.ErrInvalidElements, err)
	}
	track, err := prop.GroundTrackAt(now)
	if err != nil {
		return output.Report{}, err
	}
	period, err := passes.EstimatePeriod(entry)
	if err != nil {
		return output.Report{}, err
	}
	look := transform.GeodeticLookAngles(observer, track.Point)

	return output.NewReport(output.ReportInput{
		Timestamp:    now,
		Name:         entry.Name,
		SubLatDeg:    track.Point.LatDeg,
		SubLonDeg:    track.Point.LonDeg,
		AltKm:        track.Point.AltM / 1000,
		VelocityKms:  track.SpeedKms,
		PeriodMin:    period,
		GSLatDeg:     obs.LatDeg,
		GSLonDeg:     obs.LonDeg,
		GSAltKm:      obs.AltKm,
		AzimuthDeg:   look.AzimuthDeg,
		ElevationDeg: look.ElevationDeg,
		RangeKm:      look.RangeKm,
		HorizonHours: hours,
		MinElevation: minEl,
		Passes:       records,
		NextPass:     passes.NextPass(records, now),
	}), nil
}

// positionResponse is the /api/v1/position document.
type positionResponse struct {
	Timestamp  time.Time         `json:"timestamp"`
	Satellite  string            `json:"satellite"`
	NORADID    int               `json:"norad_id"`
	Position   output.Position   `json:"position"`
	Visibility output.Visibility `json:"visibility"`
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset()
	if err != nil {
		s.writeError(w, err)
		return
	}
	entry, err := resolveSatellite(r, ds)
	if err != nil {
		s.writeError(w, err)
		return
	}
	obs, err := observerFromQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	prop, err := propagation.NewSGP4(entry.Line1, entry.Line2, entry.NORADID)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", passes.ErrInvalidElements, err))
		return
	}
	now := s.now().UTC()
	track, err := prop.GroundTrackAt(now)
	if err != nil {
		s.writeError(w, err)
		return
	}

	observer := transform.NewObserverPosition(obs.LatDeg, obs.LonDeg, obs.AltKm*1000)
	look := transform.GeodeticLookAngles(observer, track.Point)

	report := output.NewReport(output.ReportInput{
		Timestamp:    now,
		Name:         entry.Name,
		SubLatDeg:    track.Point.LatDeg,
		SubLonDeg:    track.Point.LonDeg,
		AltKm:        track.Point.AltM / 1000,
		VelocityKms:  track.SpeedKms,
		AzimuthDeg:   look.AzimuthDeg,
		ElevationDeg: look.ElevationDeg,
		RangeKm:      look.RangeKm,
	})
	writeJSON(w, positionResponse{
		Timestamp:  now,
		Satellite:  entry.Name,
		NORADID:    entry.NORADID,
		Position:   report.Satellite.Position,
		Visibility: report.Visibility,
	})
}

// footprintResponse is the /api/v1/footprint document.
type footprintResponse struct {
	Timestamp      time.Time         `json:"timestamp"`
	GroundStation  map[string]any    `json:"ground_station"`
	MinElevation   float64           `json:"minimum_elevation_degrees"`
	BoundaryPoints int               `json:"boundary_points"`
	Boundary       []footprint.Point `json:"boundary"`
}

func (s *Server) handleFootprint(w http.ResponseWriter, r *http.Request) {
	obs, err := observerFromQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	minEl, err := floatParam(r, "min_elevation", defaultMinElevation)
	if err != nil {
		s.writeError(w, err)
		return
	}
	points := footprint.DefaultPoints
	if raw := r.URL.Query().Get("points"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 3 || n > 3600 {
			s.writeError(w, badRequest("invalid points %q", raw))
			return
		}
		points = n
	}

	boundary := footprint.Compute(obs.LatDeg, obs.LonDeg, minEl, points)
	writeJSON(w, footprintResponse{
		Timestamp: time.Now().UTC(),
		GroundStation: map[string]any{
			"latitude":  obs.LatDeg,
			"longitude": obs.LonDeg,
		},
		MinElevation:   minEl,
		BoundaryPoints: len(boundary),
		Boundary:       boundary,
	})
}

// tleMetadataResponse is the /api/v1/tle/metadata document.
type tleMetadataResponse struct {
	Source         string    `json:"source"`
	FetchedAt      time.Time `json:"fetched_at"`
	AgeSeconds     float64   `json:"age_seconds"`
	SatelliteCount int       `json:"satellite_count"`
	EpochMin       time.Time `json:"epoch_min"`
	EpochMax       time.Time `json:"epoch_max"`
}

func (s *Server) handleTLEMetadata(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, tleMetadataResponse{
		Source:         ds.Source,
		FetchedAt:      ds.FetchedAt,
		AgeSeconds:     s.store.AgeSeconds(),
		SatelliteCount: len(ds.Satellites),
		EpochMin:       ds.EpochRange.Min,
		EpochMax:       ds.EpochRange.Max,
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.predCache.Stats())
}
