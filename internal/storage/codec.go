package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mathly/internal/solution"
)

// ErrCorruptSteps is returned when a stored step list cannot be decoded.
var ErrCorruptSteps = errors.New("corrupt step encoding")

const (
	legacyStepSeparator  = "|"
	legacyFieldSeparator = ":"
)

// EncodeSteps serializes steps as a JSON array. Order is preserved and any
// character is allowed in the text fields.
func EncodeSteps(steps []solution.Step) (string, error) {
	if steps == nil {
		steps = []solution.Step{}
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("failed to marshal steps: %w", err)
	}
	return string(data), nil
}

// DecodeSteps reads a stored step list. JSON arrays are decoded directly;
// anything else is treated as the legacy "index:description:calculation:result"
// tuples joined by "|".
func DecodeSteps(raw string) ([]solution.Step, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return []solution.Step{}, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var steps []solution.Step
		if err := json.Unmarshal([]byte(trimmed), &steps); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSteps, err)
		}
		return steps, nil
	}

	return decodeLegacySteps(raw)
}

// Description and calculation cannot contain ':' in this format; everything
// after the third separator belongs to the result.
func decodeLegacySteps(raw string) ([]solution.Step, error) {
	tuples := strings.Split(raw, legacyStepSeparator)
	steps := make([]solution.Step, 0, len(tuples))
	for i, tuple := range tuples {
		parts := strings.SplitN(tuple, legacyFieldSeparator, 4)
		if len(parts) < 4 {
			return nil, fmt.Errorf("%w: tuple %d has %d of 4 fields", ErrCorruptSteps, i+1, len(parts))
		}

		index, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: tuple %d has non-numeric index %q", ErrCorruptSteps, i+1, parts[0])
		}

		steps = append(steps, solution.Step{
			Index:       index,
			Description: parts[1],
			Calculation: parts[2],
			Result:      parts[3],
		})
	}
	return steps, nil
}
