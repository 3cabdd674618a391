package httpctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
	"github.com/Agrid-Dev/linerating/internal/line"
	"github.com/Agrid-Dev/linerating/internal/observability"
	"github.com/Agrid-Dev/linerating/internal/ports"
)

type Server struct {
	svc     ports.LineService
	srv     *http.Server
	metrics *observability.Metrics
}

// New returns a runnable server. metrics may be nil.
func New(svc ports.LineService, addr string, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()
	s := &Server{svc: svc, metrics: metrics}

	// Read
	mux.HandleFunc("GET /v1", s.handleGet)

	// Write: one endpoint per condition variable
	mux.HandleFunc("POST /v1/ambient_temperature", s.handlePostAmbient)
	mux.HandleFunc("POST /v1/conductor_temperature", s.handlePostConductor)
	mux.HandleFunc("POST /v1/wind_speed", s.handlePostWindSpeed)
	mux.HandleFunc("POST /v1/weathering", s.handlePostWeathering)
	mux.HandleFunc("POST /v1/time_of_day", s.handlePostTimeOfDay)

	// Stateless calculation for any conductor
	mux.HandleFunc("POST /v1/rate", s.handleRate)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// ---- DTOs ----

type snapshotDTO struct {
	LineID               string    `json:"line_id"`
	Conductor            string    `json:"conductor"`
	ConductorType        string    `json:"conductor_type"`
	AmbientTemperature   float64   `json:"ambient_temperature"`
	ConductorTemperature float64   `json:"conductor_temperature"`
	WindSpeed            float64   `json:"wind_speed"`
	Weathering           string    `json:"weathering"`
	TimeOfDay            string    `json:"time_of_day"`
	Regime               string    `json:"regime"`
	Rating               *float64  `json:"rating"`
	RatingError          string    `json:"rating_error,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toDTO(s line.Snapshot) snapshotDTO {
	dto := snapshotDTO{
		LineID:               s.ID,
		Conductor:            s.Profile.Name(),
		ConductorType:        s.Profile.Type().String(),
		AmbientTemperature:   s.Condition.AmbientTemperature,
		ConductorTemperature: s.Condition.ConductorTemperature,
		WindSpeed:            s.Condition.WindSpeed,
		Weathering:           s.Condition.Weathering.String(),
		TimeOfDay:            s.Condition.TimeOfDay.String(),
		Regime:               observability.Regime(s.Condition),
		UpdatedAt:            s.UpdatedAt,
	}
	if s.RatingAvailable() {
		r := s.Rating
		dto.Rating = &r
	} else {
		dto.RatingError = s.RatingErr.Error()
	}
	return dto
}

type conductorDTO struct {
	Name              string  `json:"name"`
	Type              string  `json:"type"`
	DiameterMM        float64 `json:"diameter_mm"`
	DCResistanceOhmKM float64 `json:"dc_resistance_ohm_per_km"`
	LayerConstruction string  `json:"layer_construction,omitempty"`
}

func (d conductorDTO) profile() (ampacity.ConductorProfile, error) {
	if !(d.DCResistanceOhmKM > 0) {
		return ampacity.ConductorProfile{}, ampacity.ErrNonPositiveResistance
	}
	ct, err := ampacity.ParseConductorType(d.Type)
	if err != nil {
		return ampacity.ConductorProfile{}, err
	}
	layer, err := ampacity.ParseLayerConstruction(d.LayerConstruction)
	if err != nil {
		return ampacity.ConductorProfile{}, err
	}
	return ampacity.NewConductorProfile(d.Name, ct, d.DiameterMM/1000, d.DCResistanceOhmKM/1000, layer)
}

type conditionDTO struct {
	AmbientTemperature   float64 `json:"t_a"`
	ConductorTemperature float64 `json:"t_c"`
	WindSpeed            float64 `json:"v"`
	Weathering           string  `json:"weathering"`
	TimeOfDay            string  `json:"time_of_day"`
}

func (d conditionDTO) condition() (ampacity.AmbientCondition, error) {
	w, err := ampacity.ParseWeathering(d.Weathering)
	if err != nil {
		return ampacity.AmbientCondition{}, err
	}
	tod, err := ampacity.ParseTimeOfDay(d.TimeOfDay)
	if err != nil {
		return ampacity.AmbientCondition{}, err
	}
	c := ampacity.AmbientCondition{
		AmbientTemperature:   d.AmbientTemperature,
		ConductorTemperature: d.ConductorTemperature,
		WindSpeed:            d.WindSpeed,
		Weathering:           w,
		TimeOfDay:            tod,
	}
	return c, c.Validate()
}

type rateRequest struct {
	Conductor *conductorDTO `json:"conductor"`
	Condition *conditionDTO `json:"condition"`
}

type regimeDTO struct {
	Current *float64 `json:"current"`
	Error   string   `json:"error,omitempty"`
}

func toRegimeDTO(r ampacity.Rating) regimeDTO {
	if r.Err != nil {
		return regimeDTO{Error: r.Err.Error()}
	}
	c := r.Current
	return regimeDTO{Current: &c}
}

type heatBalanceDTO struct {
	Grashof           float64 `json:"grashof"`
	Prandtl           float64 `json:"prandtl"`
	Reynolds          float64 `json:"reynolds"`
	Nusselt           float64 `json:"nusselt"`
	ForcedConvection  float64 `json:"forced_convection_w_per_m"`
	NaturalConvection float64 `json:"natural_convection_w_per_m"`
	Radiation         float64 `json:"radiation_w_per_m"`
	SolarGain         float64 `json:"solar_gain_w_per_m"`
	ACResistance      float64 `json:"ac_resistance_ohm_per_m"`
}

type rateResponse struct {
	Regime      string         `json:"regime"`
	Rating      float64        `json:"rating"`
	StillAir    regimeDTO      `json:"still_air"`
	Wind        regimeDTO      `json:"wind"`
	HeatBalance heatBalanceDTO `json:"heat_balance"`
}

// ---- Handlers ----

func (s *Server) handleGet(w http.ResponseWriter, _ *http.Request) {
	s.respondSnapshot(w)
}

func (s *Server) handlePostAmbient(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, s.svc.SetAmbientTemperature)
}

func (s *Server) handlePostConductor(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, s.svc.SetConductorTemperature)
}

func (s *Server) handlePostWindSpeed(w http.ResponseWriter, r *http.Request) {
	postValue(s, w, r, s.svc.SetWindSpeed)
}

func (s *Server) handlePostWeathering(w http.ResponseWriter, r *http.Request) {
	// body: {"value": "rural"}
	postValue(s, w, r, func(v string) error {
		wt, err := ampacity.ParseWeathering(v)
		if err != nil {
			return err
		}
		return s.svc.SetWeathering(wt)
	})
}

func (s *Server) handlePostTimeOfDay(w http.ResponseWriter, r *http.Request) {
	// body: {"value": "winter night"}
	postValue(s, w, r, func(v string) error {
		t, err := ampacity.ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		return s.svc.SetTimeOfDay(t)
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Conductor == nil || req.Condition == nil {
		writeErr(w, http.StatusBadRequest, "missing field 'conductor' or 'condition'")
		return
	}

	p, err := req.Conductor.profile()
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := req.Condition.condition()
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	hb, err := ampacity.Evaluate(p, c)
	if err != nil {
		s.metrics.ObserveRating(c, err)
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	selected := hb.Wind
	if c.StillAir() {
		selected = hb.StillAir
	}
	s.metrics.ObserveRating(c, selected.Err)
	if selected.Err != nil {
		writeErr(w, http.StatusUnprocessableEntity, selected.Err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rateResponse{
		Regime:   observability.Regime(c),
		Rating:   selected.Current,
		StillAir: toRegimeDTO(hb.StillAir),
		Wind:     toRegimeDTO(hb.Wind),
		HeatBalance: heatBalanceDTO{
			Grashof:           hb.Grashof,
			Prandtl:           hb.Prandtl,
			Reynolds:          hb.Reynolds,
			Nusselt:           hb.Nusselt,
			ForcedConvection:  hb.ForcedConvection,
			NaturalConvection: hb.NaturalConvection,
			Radiation:         hb.Radiation,
			SolarGain:         hb.SolarGain,
			ACResistance:      hb.ACResistance,
		},
	})
}

// ---- generic helpers ----
func (s *Server) respondSnapshot(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, toDTO(s.svc.Get()))
}

func postValue[T any](s *Server, w http.ResponseWriter, r *http.Request, apply func(T) error) {
	dec := json.NewDecoder(r.Body)
	var req struct {
		Value *T `json:"value"`
	}
	if err := dec.Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Value == nil {
		writeErr(w, http.StatusBadRequest, "missing field 'value'")
		return
	}

	if err := apply(*req.Value); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	s.respondSnapshot(w)
}

// writeJSON encodes before writing the header so an unencodable value
// (a non-finite rating) yields a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		code = http.StatusInternalServerError
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(map[string]string{"error": "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
