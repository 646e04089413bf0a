package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/nerdworks/dealerai-backend/internal/prompt"
	"github.com/nerdworks/dealerai-backend/internal/repos"
	"github.com/nerdworks/dealerai-backend/internal/settings"
	"github.com/nerdworks/dealerai-backend/internal/types"
)

// Columns that never belong in a generated listing.
var vehicleExcludedFields = map[string]struct{}{
	"id":         {},
	"created_at": {},
	"updated_at": {},
	"deleted_at": {},
	"dealer":     {},
	"dealer_id":  {},
}

// vehicleDescriptionTask resolves a vehicle record and feeds its formatted
// attributes through the composer as a description request.
type vehicleDescriptionTask struct {
	cfg         settings.Provider
	vehicleRepo repos.VehicleRepo
}

func newVehicleDescriptionTask(cfg settings.Provider, vehicleRepo repos.VehicleRepo) *vehicleDescriptionTask {
	return &vehicleDescriptionTask{cfg: cfg, vehicleRepo: vehicleRepo}
}

func (t *vehicleDescriptionTask) ID() string { return TaskVehicleDescription }

func (t *vehicleDescriptionTask) MakePrompt(ctx context.Context, input Input, opts Options) (string, error) {
	vehicleInfo := opts.VehicleInfo
	if len(input.VehicleIDs) > 0 {
		vehicle, err := t.vehicleRepo.GetByID(ctx, nil, input.VehicleIDs[0])
		if err != nil {
			return "", fmt.Errorf("resolve vehicle %s: %w", input.VehicleIDs[0], err)
		}
		vehicleInfo = FormatVehicleData(vehicle,
			settings.GetDefault(t.cfg, settings.KeyBoolTrue, "Oui"),
			settings.GetDefault(t.cfg, settings.KeyBoolFalse, "Non"))
	}

	composer := prompt.NewComposer(t.cfg)
	return composer.Compose(input.Text, prompt.ModeVehicleDescription, prompt.Options{
		DealerInfo:              opts.DealerInfo,
		DealerAdditionalContext: opts.DealerAdditionalContext,
		VehicleInfo:             vehicleInfo,
	}), nil
}

func (t *vehicleDescriptionTask) GetResponse(ctx context.Context, input Input, opts Options) (*Envelope, error) {
	composed, err := t.MakePrompt(ctx, input, opts)
	if err != nil {
		return nil, err
	}
	return &Envelope{Kind: KindChat, Mode: prompt.ModeVehicleDescription, Prompt: composed}, nil
}

// FormatVehicleData renders a vehicle as newline-separated "column: value"
// pairs, skipping bookkeeping columns and translating booleans into the
// configured labels. Keys are emitted in sorted order so output is stable.
func FormatVehicleData(vehicle *types.Vehicle, trueLabel, falseLabel string) string {
	raw, err := json.Marshal(vehicle)
	if err != nil {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		if _, skip := vehicleExcludedFields[key]; skip {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		value := fields[key]
		if value == nil {
			continue
		}
		var rendered string
		switch v := value.(type) {
		case bool:
			if v {
				rendered = trueLabel
			} else {
				rendered = falseLabel
			}
		case float64:
			if v == float64(int64(v)) {
				rendered = fmt.Sprintf("%d", int64(v))
			} else {
				rendered = fmt.Sprintf("%g", v)
			}
		case string:
			if v == "" {
				continue
			}
			rendered = v
		default:
			rendered = fmt.Sprintf("%v", v)
		}
		lines = append(lines, key+": "+rendered)
	}
	return strings.Join(lines, "\n")
}
