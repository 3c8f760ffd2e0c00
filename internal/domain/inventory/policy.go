package inventory

// Policy conmutadores de comportamiento del asignador y del validador.
// Es un valor inmutable que se pasa al construir los casos de uso (no hay estado global).
type Policy struct {
	AutomaticLotCharge       bool // crear lote nuevo en cargas sin lote
	AutomaticLotDischarge    bool // FEFO en descargas sin lote
	AutomaticLotWardTransfer bool // FEFO en consumos/traslados de sala sin lote
	LotCostRequired          bool // el lote debe tener costo > 0
	AllowNegativeStock       bool // permitir que el último lote absorba el faltante
	LotCodeMaxLength         int
	DefaultShelfLifeDays     int // vencimiento de lotes automáticos sin fechas
}

// DefaultPolicy valores por defecto del hospital.
func DefaultPolicy() Policy {
	return Policy{
		AutomaticLotCharge:       false,
		AutomaticLotDischarge:    true,
		AutomaticLotWardTransfer: true,
		LotCostRequired:          false,
		AllowNegativeStock:       false,
		LotCodeMaxLength:         50,
		DefaultShelfLifeDays:     730,
	}
}
