package prover

import (
	"fmt"

	"github.com/consensys/gnark/frontend"

	emailauth "github.com/mailproof/mailproof/circuits/email-auth"
)

// Default circuit capacities. The witness generator may use any limits, but
// the precompiled setups are built with these.
const (
	MaxHeaderLength = 1024
	MaxBodyLength   = 1024
)

// InputParser converts a witness JSON document into a circuit assignment.
type InputParser interface {
	Parse(witnessJSON []byte) (frontend.Circuit, error)
}

// CircuitInfo describes a compilable circuit variant.
type CircuitInfo struct {
	Name    string
	Version uint
	Circuit frontend.Circuit
	Parser  InputParser
}

// Circuits lists the known circuit variants by name.
var Circuits = map[string]CircuitInfo{
	"email-auth": {
		Name:    "email-auth",
		Version: 1,
		Circuit: emailauth.NewHeaderCircuit(MaxHeaderLength),
		Parser:  &emailauth.HeaderInputParser{MaxHeaderLength: MaxHeaderLength},
	},
	"email-auth-body": {
		Name:    "email-auth-body",
		Version: 1,
		Circuit: emailauth.NewHeaderBodyCircuit(MaxHeaderLength, MaxBodyLength),
		Parser:  &emailauth.HeaderBodyInputParser{MaxHeaderLength: MaxHeaderLength, MaxBodyLength: MaxBodyLength},
	},
}

// LoadedCircuit is a circuit with its compiled setup, ready to prove.
type LoadedCircuit struct {
	Info  CircuitInfo
	Setup *Setup
}

// Registry stores loaded circuits by name.
type Registry struct {
	circuits map[string]*LoadedCircuit
}

func NewRegistry() *Registry {
	return &Registry{circuits: make(map[string]*LoadedCircuit)}
}

// Load reads the compiled setup for a named circuit from dir and registers it.
func (r *Registry) Load(dir, name string) error {
	info, ok := Circuits[name]
	if !ok {
		return fmt.Errorf("unknown circuit %q", name)
	}
	setup, err := Load(dir, info.Name, info.Version)
	if err != nil {
		return fmt.Errorf("load circuit %s: %w", name, err)
	}
	return r.Register(&LoadedCircuit{Info: info, Setup: setup})
}

// Register adds a loaded circuit.
func (r *Registry) Register(c *LoadedCircuit) error {
	if _, ok := r.circuits[c.Info.Name]; ok {
		return fmt.Errorf("circuit %q already registered", c.Info.Name)
	}
	r.circuits[c.Info.Name] = c
	return nil
}

// Get returns a loaded circuit by name.
func (r *Registry) Get(name string) (*LoadedCircuit, error) {
	if c, ok := r.circuits[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("circuit %q not loaded", name)
}

// Names lists the loaded circuit names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.circuits))
	for name := range r.circuits {
		names = append(names, name)
	}
	return names
}
