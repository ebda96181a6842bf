// Package telemetry records population events (additions, selections,
// generation boundaries) for external visualization, and intercepts
// structured log lines carrying hyper-heuristic state. It never
// inspects a solution's concrete type at runtime: a solution opts into
// telemetry by implementing Projectable.
package telemetry

import (
	"encoding/json"
	"fmt"
	"sync"
)

// DataPoint3D is a generic three-dimensional projection of an analytic
// test solution: two coordinates plus a fitness value.
type DataPoint3D struct {
	X       float64 `json:"x"`
	Fitness float64 `json:"fitness"`
	Y       float64 `json:"y"`
}

// Shadow is a compact, domain-specific projection of a routing solution
// used solely for telemetry and visualization.
type Shadow struct {
	RouteCount      int     `json:"routeCount"`
	UnassignedCount int     `json:"unassignedCount"`
	Cost            float64 `json:"cost"`
}

// ObservationData is a tagged union of the two supported observation
// projections. It replaces runtime type identification (TypeId /
// transmute in the reference implementation) with a closed Go interface:
// the only implementations are FunctionObservation and VrpObservation,
// selected at the telemetry boundary by the solution itself via
// Projectable.
type ObservationData interface {
	isObservationData()
}

// FunctionObservation wraps an analytic DataPoint3D projection.
type FunctionObservation struct {
	Point DataPoint3D
}

func (FunctionObservation) isObservationData() {}

// MarshalJSON serializes a FunctionObservation as {"Function": {...}},
// matching the original enum's serde tagging.
func (o FunctionObservation) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]DataPoint3D{"Function": o.Point})
}

// UnmarshalJSON parses the {"Function": {...}} wire form.
func (o *FunctionObservation) UnmarshalJSON(data []byte) error {
	var wrapper struct {
		Function DataPoint3D `json:"Function"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("telemetry: cannot parse FunctionObservation: %w", err)
	}
	o.Point = wrapper.Function

	return nil
}

// VrpObservation wraps a routing-domain Shadow projection.
type VrpObservation struct {
	Shadow Shadow
}

func (VrpObservation) isObservationData() {}

// MarshalJSON serializes a VrpObservation as {"Vrp": {...}}.
func (o VrpObservation) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]Shadow{"Vrp": o.Shadow})
}

// UnmarshalJSON parses the {"Vrp": {...}} wire form.
func (o *VrpObservation) UnmarshalJSON(data []byte) error {
	var wrapper struct {
		Vrp Shadow `json:"Vrp"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("telemetry: cannot parse VrpObservation: %w", err)
	}
	o.Shadow = wrapper.Vrp

	return nil
}

// Projectable is implemented by any solution type that can describe
// itself to the telemetry boundary. This replaces the reference
// implementation's runtime TypeId probing: a solution opts in by
// implementing ProjectObservation, and the proxy never inspects
// concrete types.
type Projectable interface {
	ProjectObservation() ObservationData
}

// PopulationState is a snapshot of a population's size at a generation
// boundary, recorded by ProxyPopulation.OnGeneration.
type PopulationState struct {
	Size int `json:"size"`
}

// ExperimentData accumulates every recorded event for the lifetime of a
// ProxyPopulation, keyed by generation.
type ExperimentData struct {
	Generation      int                       `json:"generation"`
	OnAdd           map[int][]ObservationData `json:"on_add"`
	OnSelect        map[int][]ObservationData `json:"on_select"`
	OnGeneration    map[int][]ObservationData `json:"on_generation"`
	PopulationState map[int]PopulationState   `json:"population_state"`
	HeuristicState  HeuristicState            `json:"heuristic_state"`
}

// NewExperimentData returns an empty, ready-to-use ExperimentData.
func NewExperimentData() *ExperimentData {
	return &ExperimentData{
		OnAdd:           make(map[int][]ObservationData),
		OnSelect:        make(map[int][]ObservationData),
		OnGeneration:    make(map[int][]ObservationData),
		PopulationState: make(map[int]PopulationState),
	}
}

// Clear resets generation and the three event maps but preserves the
// parsed heuristic state, mirroring the reference implementation's
// ExperimentData::clear.
func (e *ExperimentData) Clear() {
	e.Generation = 0
	e.OnAdd = make(map[int][]ObservationData)
	e.OnSelect = make(map[int][]ObservationData)
	e.OnGeneration = make(map[int][]ObservationData)
}

// rawObservation is the wire form used to decide which concrete
// ObservationData variant to unmarshal into.
type rawObservation struct {
	Function *DataPoint3D `json:"Function,omitempty"`
	Vrp      *Shadow      `json:"Vrp,omitempty"`
}

// experimentDataWire mirrors ExperimentData's JSON shape but with
// ObservationData replaced by a concrete, unmarshalable type, since
// encoding/json cannot populate an interface-typed field on its own.
type experimentDataWire struct {
	Generation      int                      `json:"generation"`
	OnAdd           map[int][]rawObservation `json:"on_add"`
	OnSelect        map[int][]rawObservation `json:"on_select"`
	OnGeneration    map[int][]rawObservation `json:"on_generation"`
	PopulationState map[int]PopulationState  `json:"population_state"`
	HeuristicState  HeuristicState           `json:"heuristic_state"`
}

// MarshalJSON renders ExperimentData to the wire schema described by
// the observation round-trip law: parse(serialize(data)) == data.
func (e ExperimentData) MarshalJSON() ([]byte, error) {
	wire := experimentDataWire{
		Generation:      e.Generation,
		OnAdd:           toRawMap(e.OnAdd),
		OnSelect:        toRawMap(e.OnSelect),
		OnGeneration:    toRawMap(e.OnGeneration),
		PopulationState: e.PopulationState,
		HeuristicState:  e.HeuristicState,
	}

	return json.Marshal(wire)
}

// UnmarshalJSON parses ExperimentData from the wire schema.
func (e *ExperimentData) UnmarshalJSON(data []byte) error {
	var wire experimentDataWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("telemetry: cannot deserialize experiment data: %w", err)
	}

	e.Generation = wire.Generation
	e.OnAdd = fromRawMap(wire.OnAdd)
	e.OnSelect = fromRawMap(wire.OnSelect)
	e.OnGeneration = fromRawMap(wire.OnGeneration)
	e.PopulationState = wire.PopulationState
	e.HeuristicState = wire.HeuristicState

	return nil
}

func toRawMap(in map[int][]ObservationData) map[int][]rawObservation {
	out := make(map[int][]rawObservation, len(in))
	for gen, observations := range in {
		raws := make([]rawObservation, len(observations))
		for i, obs := range observations {
			switch v := obs.(type) {
			case FunctionObservation:
				point := v.Point
				raws[i] = rawObservation{Function: &point}
			case VrpObservation:
				shadow := v.Shadow
				raws[i] = rawObservation{Vrp: &shadow}
			}
		}
		out[gen] = raws
	}

	return out
}

func fromRawMap(in map[int][]rawObservation) map[int][]ObservationData {
	out := make(map[int][]ObservationData, len(in))
	for gen, raws := range in {
		observations := make([]ObservationData, len(raws))
		for i, raw := range raws {
			switch {
			case raw.Function != nil:
				observations[i] = FunctionObservation{Point: *raw.Function}
			case raw.Vrp != nil:
				observations[i] = VrpObservation{Shadow: *raw.Vrp}
			}
		}
		out[gen] = observations
	}

	return out
}

// SharedExperimentData is a mutex-guarded handle to an ExperimentData,
// replacing the reference implementation's process-wide mutable
// singleton with an explicit handle passed into each proxy's
// constructor: the "global" nature was a convenience of that
// implementation, not a requirement.
type SharedExperimentData struct {
	mu   sync.Mutex
	data *ExperimentData
}

// NewSharedExperimentData returns a handle wrapping a fresh
// ExperimentData, suitable for passing into one or more ProxyPopulation
// instances that should observe the same experiment.
func NewSharedExperimentData() *SharedExperimentData {
	return &SharedExperimentData{data: NewExperimentData()}
}

func (s *SharedExperimentData) withLock(f func(*ExperimentData)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.data)
}

// Snapshot returns a copy of the current experiment data for
// serialization, taken under the shared mutex. The event maps, their
// observation slices and the population-state map are copied, so events
// recorded after the call do not show through the snapshot.
func (s *SharedExperimentData) Snapshot() ExperimentData {
	s.mu.Lock()
	defer s.mu.Unlock()

	copyObservations := func(in map[int][]ObservationData) map[int][]ObservationData {
		out := make(map[int][]ObservationData, len(in))
		for gen, observations := range in {
			out[gen] = append([]ObservationData(nil), observations...)
		}
		return out
	}

	out := *s.data
	out.OnAdd = copyObservations(s.data.OnAdd)
	out.OnSelect = copyObservations(s.data.OnSelect)
	out.OnGeneration = copyObservations(s.data.OnGeneration)
	out.PopulationState = make(map[int]PopulationState, len(s.data.PopulationState))
	for gen, state := range s.data.PopulationState {
		out.PopulationState[gen] = state
	}

	return out
}
