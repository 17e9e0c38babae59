package emailauth

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/uints"

	"github.com/mailproof/mailproof/common"
	"github.com/mailproof/mailproof/witness"
)

// HeaderInputParser converts a witness JSON document into a HeaderCircuit
// assignment with the parser's capacity.
type HeaderInputParser struct {
	MaxHeaderLength int
}

func (p *HeaderInputParser) Parse(witnessJSON []byte) (frontend.Circuit, error) {
	in, err := decodeInput(witnessJSON)
	if err != nil {
		return nil, err
	}
	header, hash, code, commitment, err := headerAssignment(in, p.MaxHeaderLength)
	if err != nil {
		return nil, err
	}
	return &HeaderCircuit{
		EmailHeader:       header,
		AccountCode:       code,
		HeaderHash:        hash,
		AccountCommitment: commitment,
	}, nil
}

// HeaderBodyInputParser converts a witness JSON document into a
// HeaderBodyCircuit assignment.
type HeaderBodyInputParser struct {
	MaxHeaderLength int
	MaxBodyLength   int
}

func (p *HeaderBodyInputParser) Parse(witnessJSON []byte) (frontend.Circuit, error) {
	in, err := decodeInput(witnessJSON)
	if err != nil {
		return nil, err
	}
	if !in.HasBody() {
		return nil, fmt.Errorf("witness has no body fields")
	}
	header, headerHash, code, commitment, err := headerAssignment(in, p.MaxHeaderLength)
	if err != nil {
		return nil, err
	}

	body, err := fieldBytes(in.EmailBody, p.MaxBodyLength)
	if err != nil {
		return nil, fmt.Errorf("emailBody: %w", err)
	}
	bodyHash, err := fieldBytes(in.BodyHash, 32)
	if err != nil {
		return nil, fmt.Errorf("bodyHash: %w", err)
	}
	return &HeaderBodyCircuit{
		EmailHeader:       header,
		EmailBody:         common.BytesToU8Array(body),
		AccountCode:       code,
		HeaderHash:        headerHash,
		BodyHash:          common.BytesToU8Array(bodyHash),
		AccountCommitment: commitment,
	}, nil
}

func decodeInput(witnessJSON []byte) (*witness.CircuitInput, error) {
	var in witness.CircuitInput
	if err := json.Unmarshal(witnessJSON, &in); err != nil {
		return nil, fmt.Errorf("failed to parse witness JSON: %w", err)
	}
	return &in, nil
}

func headerAssignment(in *witness.CircuitInput, maxHeaderLength int) ([]uints.U8, []uints.U8, frontend.Variable, frontend.Variable, error) {
	header, err := fieldBytes(in.EmailHeader, maxHeaderLength)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("emailHeader: %w", err)
	}
	hash, err := fieldBytes(in.HeaderHash, 32)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("headerHash: %w", err)
	}
	code, ok := new(big.Int).SetString(in.AccountCode, 10)
	if !ok {
		return nil, nil, nil, nil, fmt.Errorf("accountCode %q is not decimal", in.AccountCode)
	}
	commitment, ok := new(big.Int).SetString(in.AccountCommitment, 10)
	if !ok {
		return nil, nil, nil, nil, fmt.Errorf("accountCommitment %q is not decimal", in.AccountCommitment)
	}
	return common.BytesToU8Array(header), common.BytesToU8Array(hash), code, commitment, nil
}

// fieldBytes decodes a full fixed array, checking its declared capacity. The
// witness is rejected, never resized, when the shape disagrees.
func fieldBytes(fields []string, capacity int) ([]byte, error) {
	if len(fields) != capacity {
		return nil, fmt.Errorf("array size %d does not match circuit capacity %d: %w",
			len(fields), capacity, witness.ErrCapacityExceeded)
	}
	return witness.DecodeFixed(fields, len(fields))
}
