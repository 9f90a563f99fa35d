package models

import (
	"fmt"
	"strings"
	"time"
)

// EquipmentType tags an exercise with the gear it is performed on.
type EquipmentType string

const (
	Dumbbell   EquipmentType = "Dumbbell"
	Barbell    EquipmentType = "Barbell"
	Kettlebell EquipmentType = "Kettlebell"
	Machine    EquipmentType = "Machine"
	Bodyweight EquipmentType = "Bodyweight"
	Cable      EquipmentType = "Cable"
)

// EquipmentTypes lists every valid equipment type in display order.
var EquipmentTypes = []EquipmentType{Dumbbell, Barbell, Kettlebell, Machine, Bodyweight, Cable}

// equipmentAliases maps lowercased names seen in third-party exports onto our tags.
var equipmentAliases = map[string]EquipmentType{
	"dumbbell":      Dumbbell,
	"dumbbells":     Dumbbell,
	"barbell":       Barbell,
	"ez bar":        Barbell,
	"ez-bar":        Barbell,
	"trap bar":      Barbell,
	"kettlebell":    Kettlebell,
	"kettlebells":   Kettlebell,
	"machine":       Machine,
	"smith machine": Machine,
	"bodyweight":    Bodyweight,
	"body weight":   Bodyweight,
	"cable":         Cable,
	"cables":        Cable,
	"cable machine": Cable,
}

// ParseEquipmentType maps a free-form equipment name onto an EquipmentType.
func ParseEquipmentType(s string) (EquipmentType, error) {
	if t, ok := equipmentAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown equipment type %q", s)
}

// Valid reports whether t is one of the known equipment types.
func (t EquipmentType) Valid() bool {
	for _, v := range EquipmentTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Exercise is one entry of a plan, with the number of sets prescribed for that plan.
type Exercise struct {
	ID   int64         `json:"id"`
	Name string        `json:"name"`
	Type EquipmentType `json:"type"`
	Sets int           `json:"sets"`
}

// Plan is a named, ordered list of exercises.
type Plan struct {
	ID        int64      `json:"id"`
	UserID    int        `json:"user_id"`
	Name      string     `json:"name"`
	Exercises []Exercise `json:"exercises"`
	CreatedAt time.Time  `json:"created_at"`
}

// TotalSets returns the number of sets across all exercises.
func (p *Plan) TotalSets() int {
	n := 0
	for _, ex := range p.Exercises {
		n += ex.Sets
	}
	return n
}

// Validate checks the fields a plan needs before it can be stored.
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("plan name is required")
	}
	if len(p.Exercises) == 0 {
		return fmt.Errorf("plan needs at least one exercise")
	}
	for i, ex := range p.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return fmt.Errorf("exercise %d: name is required", i+1)
		}
		if !ex.Type.Valid() {
			return fmt.Errorf("exercise %d: invalid type %q", i+1, ex.Type)
		}
		if ex.Sets < 1 {
			return fmt.Errorf("exercise %d: sets must be at least 1", i+1)
		}
	}
	return nil
}
