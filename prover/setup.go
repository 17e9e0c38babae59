// Package prover drives groth16 proof generation over assembled witnesses
// and persists the resulting artifacts.
package prover

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// Setup bundles a compiled constraint system with its keys.
type Setup struct {
	CS           constraint.ConstraintSystem
	ProvingKey   groth16.ProvingKey
	VerifyingKey groth16.VerifyingKey
}

func setupPaths(dir, name string, version uint) (string, string, string) {
	base := filepath.Join(dir, fmt.Sprintf("%s-%d", name, version))
	return base + ".ccs", base + ".pk", base + ".vk"
}

// Compile builds the circuit, runs the groth16 setup and writes the
// .ccs/.pk/.vk files. Files appear atomically: a crashed compile never leaves
// a truncated key behind.
func Compile(circuit frontend.Circuit, dir, name string, version uint) error {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return fmt.Errorf("compile %s: %w", name, err)
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return fmt.Errorf("setup %s: %w", name, err)
	}

	ccsPath, pkPath, vkPath := setupPaths(dir, name, version)
	for _, out := range []struct {
		path string
		src  io.WriterTo
	}{
		{ccsPath, ccs},
		{pkPath, pk},
		{vkPath, vk},
	} {
		if err := writeToAtomic(out.path, out.src); err != nil {
			return fmt.Errorf("write %s: %w", out.path, err)
		}
	}
	return nil
}

// Load reads a previously compiled setup.
func Load(dir, name string, version uint) (*Setup, error) {
	ccsPath, pkPath, vkPath := setupPaths(dir, name, version)

	ccs := groth16.NewCS(ecc.BN254)
	if err := readInto(ccsPath, ccs); err != nil {
		return nil, fmt.Errorf("constraint system: %w", err)
	}
	pk := groth16.NewProvingKey(ecc.BN254)
	if err := readInto(pkPath, pk); err != nil {
		return nil, fmt.Errorf("proving key: %w", err)
	}
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if err := readInto(vkPath, vk); err != nil {
		return nil, fmt.Errorf("verifying key: %w", err)
	}
	return &Setup{CS: ccs, ProvingKey: pk, VerifyingKey: vk}, nil
}

// SetupExists reports whether all three setup files are present.
func SetupExists(dir, name string, version uint) bool {
	for _, p := range pathsList(dir, name, version) {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

func pathsList(dir, name string, version uint) []string {
	a, b, c := setupPaths(dir, name, version)
	return []string{a, b, c}
}

func readInto(path string, dst io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := dst.ReadFrom(f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}
