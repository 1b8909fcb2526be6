package domain

import (
	"time"

	"github.com/google/uuid"
)

// Side es la dirección objetivo de una instrucción.
type Side string

const (
	SideLong Side = "LONG"
	SideFlat Side = "FLAT"
)

// AllocationInstruction es la instrucción advisory que el engine emite por
// vela: peso objetivo sobre el capital total, no un tamaño literal de orden.
// El sizing concreto es responsabilidad del ejecutor externo.
type AllocationInstruction struct {
	ID           string
	Symbol       string
	TargetWeight float64
	Side         Side
	Reason       string
	IssuedAt     time.Time
}

// NewInstruction crea una instrucción con ID propio.
func NewInstruction(symbol string, weight float64, side Side, reason string, at time.Time) AllocationInstruction {
	return AllocationInstruction{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		TargetWeight: weight,
		Side:         side,
		Reason:       reason,
		IssuedAt:     at,
	}
}
