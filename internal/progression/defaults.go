package progression

import "github.com/misterclayt0n/mesocoach/internal/models"

// Default starting loads when nothing trusted is on record.
const (
	BarbellFloor  = 20.0
	DumbbellFloor = 5.0
	CableFloor    = 5.0
	OtherFloor    = 10.0
)

// DefaultLoad picks a starting load by equipment priority barbell > dumbbell >
// cable > other. Anything tagged bodyweight starts unloaded, whatever else it uses.
func DefaultLoad(ex models.Exercise) float64 {
	if ex.HasEquipment(models.EquipmentBodyweight) {
		return 0
	}
	switch {
	case ex.HasEquipment(models.EquipmentBarbell):
		return BarbellFloor
	case ex.HasEquipment(models.EquipmentDumbbell):
		return DumbbellFloor
	case ex.HasEquipment(models.EquipmentCable):
		return CableFloor
	default:
		return OtherFloor
	}
}

// Increment is the load step for one double-progression jump.
func Increment(ex models.Exercise) float64 {
	switch {
	case ex.HasEquipment(models.EquipmentBarbell):
		return 2.5
	case ex.HasEquipment(models.EquipmentDumbbell):
		return 2
	default:
		return 2.5
	}
}
