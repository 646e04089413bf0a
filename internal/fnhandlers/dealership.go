package fnhandlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DealershipHandlerID selects the demo dealership tool set.
const DealershipHandlerID = "dealership"

// DealershipHandler answers the tool calls a dealership assistant is
// configured with: appointment booking, service catalog lookups and current
// promotions. Data is in-memory demo content; a production deployment swaps
// this for a DMS integration behind the same Handler interface.
type DealershipHandler struct {
	services   map[string]serviceDetail
	promotions []map[string]any
}

type serviceDetail struct {
	Name            string
	DurationMinutes int
	PriceFrom       float64
	Description     string
}

func NewDealershipHandler() *DealershipHandler {
	return &DealershipHandler{
		services: map[string]serviceDetail{
			"oil-change": {
				Name:            "Changement d'huile",
				DurationMinutes: 45,
				PriceFrom:       79.95,
				Description:     "Vidange d'huile synthétique, remplacement du filtre et inspection multipoint.",
			},
			"tire-rotation": {
				Name:            "Permutation des pneus",
				DurationMinutes: 30,
				PriceFrom:       49.95,
				Description:     "Permutation des quatre pneus avec vérification de la pression et de l'usure.",
			},
			"brake-inspection": {
				Name:            "Inspection des freins",
				DurationMinutes: 60,
				PriceFrom:       99.95,
				Description:     "Inspection complète des plaquettes, disques et conduites de frein.",
			},
			"seasonal-tires": {
				Name:            "Pose de pneus saisonniers",
				DurationMinutes: 60,
				PriceFrom:       89.95,
				Description:     "Installation et équilibrage de pneus d'hiver ou d'été, entreposage disponible.",
			},
		},
		promotions: []map[string]any{
			{
				"title":       "Financement 0.99%",
				"description": "Financement à 0.99% sur les modèles hybrides certifiés, durée maximale 48 mois.",
				"expires_at":  "2026-10-31",
			},
			{
				"title":       "Forfait entretien hiver",
				"description": "Pose de pneus d'hiver et changement d'huile à partir de 149.95$.",
				"expires_at":  "2026-12-15",
			},
		},
	}
}

func (h *DealershipHandler) ProcessFunction(functionName string, args map[string]any, threadID string) (map[string]any, error) {
	switch functionName {
	case "check_appointment_availability":
		return h.checkAvailability(args)
	case "create_appointment":
		return h.createAppointment(args, threadID)
	case "get_service_details":
		return h.serviceDetails(args)
	case "get_current_promotions":
		return map[string]any{"promotions": h.promotions}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, functionName)
	}
}

func (h *DealershipHandler) checkAvailability(args map[string]any) (map[string]any, error) {
	date, _ := args["date"].(string)
	if date == "" {
		return nil, fmt.Errorf("check_appointment_availability: missing date")
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("check_appointment_availability: invalid date %q", date)
	}
	if day.Weekday() == time.Sunday {
		return map[string]any{"date": date, "available": false, "reason": "Le département de service est fermé le dimanche."}, nil
	}
	return map[string]any{
		"date":      date,
		"available": true,
		"slots":     []string{"08:30", "10:00", "13:30", "15:00"},
	}, nil
}

func (h *DealershipHandler) createAppointment(args map[string]any, threadID string) (map[string]any, error) {
	date, _ := args["date"].(string)
	slot, _ := args["time"].(string)
	name, _ := args["customer_name"].(string)
	if date == "" || slot == "" || name == "" {
		return nil, fmt.Errorf("create_appointment: date, time and customer_name are required")
	}
	service, _ := args["service"].(string)
	return map[string]any{
		"confirmation_id": uuid.NewString(),
		"date":            date,
		"time":            slot,
		"customer_name":   name,
		"service":         service,
		"thread":          threadID,
		"status":          "confirmed",
	}, nil
}

func (h *DealershipHandler) serviceDetails(args map[string]any) (map[string]any, error) {
	key, _ := args["service"].(string)
	detail, ok := h.services[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		known := make([]string, 0, len(h.services))
		for id := range h.services {
			known = append(known, id)
		}
		return map[string]any{"found": false, "known_services": known}, nil
	}
	return map[string]any{
		"found":            true,
		"name":             detail.Name,
		"duration_minutes": detail.DurationMinutes,
		"price_from":       detail.PriceFrom,
		"description":      detail.Description,
	}, nil
}
