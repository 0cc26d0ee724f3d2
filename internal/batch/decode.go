package batch

import (
	"encoding/json"
	"fmt"

	"github.com/mrlokans/depot/internal/database"
	"github.com/mrlokans/depot/internal/entities"
)

// wireOperation is the JSON shape of one operation:
//
//	{"type": "add|put|delete|clear", "key": 3, "data": {...}}
type wireOperation struct {
	Type string          `json:"type"`
	Key  uint            `json:"key,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wireDescriptor struct {
	Store      entities.StoreName `json:"store"`
	Operations []wireOperation    `json:"operations"`
}

// DecodeDescriptors parses a JSON batch into descriptors. Record payloads
// are decoded into the record type of their store. A document that does
// not parse is an invalid batch. The result still needs validation, which
// ExecuteAtomic performs.
func DecodeDescriptors(data []byte) ([]Descriptor, error) {
	var wire []wireDescriptor
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, database.InvalidBatchError("decode batch: %v", err)
	}

	descriptors := make([]Descriptor, 0, len(wire))
	for i, wd := range wire {
		if !wd.Store.Valid() {
			return nil, database.InvalidBatchError("descriptor %d names unknown store %q", i, wd.Store)
		}
		d := Descriptor{Store: wd.Store}
		for j, wo := range wd.Operations {
			op, err := decodeOperation(wd.Store, wo)
			if err != nil {
				return nil, fmt.Errorf("descriptor %d operation %d: %w", i, j, err)
			}
			d.Operations = append(d.Operations, op)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func decodeOperation(store entities.StoreName, wo wireOperation) (Operation, error) {
	kind, err := ParseKind(wo.Type)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindDelete:
		return Delete{Key: wo.Key}, nil
	case KindClear:
		return Clear{}, nil
	}

	if len(wo.Data) == 0 {
		return nil, database.InvalidBatchError("%s operation on %s has no data", kind, store)
	}
	rec := entities.NewRecord(store)
	if err := json.Unmarshal(wo.Data, rec); err != nil {
		return nil, database.InvalidBatchError("decode %s record: %v", store, err)
	}
	if kind == KindAdd {
		return Add{Record: rec}, nil
	}
	return Put{Record: rec}, nil
}
