// Package i18n traduce los mensajes de validación del libro de stock.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Claves de mensaje (también usadas como código estable de la violación).
const (
	DateInFuture          = "movement.date.future"
	DateBeforeLast        = "movement.date.before_last"
	RefNoRequired         = "movement.refno.required"
	RefNoUsed             = "movement.refno.used"
	MedicalRequired       = "movement.medical.required"
	MedicalUnknown        = "movement.medical.unknown"
	TypeRequired          = "movement.type.required"
	TypeMismatch          = "movement.type.mismatch"
	QuantityPositive      = "movement.quantity.positive"
	SupplierRequired      = "movement.supplier.required"
	WardRequired          = "movement.ward.required"
	WardUnknown           = "movement.ward.unknown"
	LotRequired           = "lot.required"
	LotMedicalMismatch    = "lot.medical.mismatch"
	LotCodeTooLong        = "lot.code.too_long"
	LotDatesRequired      = "lot.dates.required"
	LotDatesOrder         = "lot.dates.order"
	LotCostRequired       = "lot.cost.required"
	InsufficientStock     = "stock.insufficient"
	NegativeBalance       = "stock.balance.negative"
	WardDescriptionNeeded = "ward.description.required"
	WardQuantityNonZero   = "ward.quantity.nonzero"
	WardSameOrigin        = "ward.transfer.same"
	WardTransferPatient   = "ward.transfer.patient"
)

var entries = map[string][2]string{
	// clave: {español, inglés}
	DateInFuture:          {"la fecha del movimiento no puede ser futura", "a date in the future is not allowed"},
	DateBeforeLast:        {"la fecha del movimiento es anterior al último movimiento (%s)", "movement date is before the last movement date (%s)"},
	RefNoRequired:         {"el número de referencia es obligatorio", "reference number is required"},
	RefNoUsed:             {"el número de referencia %s ya fue utilizado", "reference number %s is already used"},
	MedicalRequired:       {"el medicamento es obligatorio", "medical is required"},
	MedicalUnknown:        {"el medicamento %s no existe", "medical %s does not exist"},
	TypeRequired:          {"el tipo de movimiento es obligatorio", "movement type is required"},
	TypeMismatch:          {"el tipo de movimiento %s no corresponde a la operación", "movement type %s does not match the operation"},
	QuantityPositive:      {"la cantidad debe ser mayor que cero", "quantity must be greater than zero"},
	SupplierRequired:      {"las cargas requieren proveedor u origen", "charging requires a supplier"},
	WardRequired:          {"las descargas requieren una sala de destino", "discharging requires a ward"},
	WardUnknown:           {"la sala %s no existe", "ward %s does not exist"},
	LotRequired:           {"el lote es obligatorio", "lot is required"},
	LotMedicalMismatch:    {"el lote %s pertenece a otro medicamento", "lot %s belongs to another medical"},
	LotCodeTooLong:        {"el código de lote supera %d caracteres", "lot code exceeds %d characters"},
	LotDatesRequired:      {"el lote requiere fecha de preparación y de vencimiento", "lot requires preparation and due dates"},
	LotDatesOrder:         {"la fecha de preparación es posterior al vencimiento", "preparation date is after due date"},
	LotCostRequired:       {"el costo del lote debe ser mayor que cero", "lot cost must be greater than zero"},
	InsufficientStock:     {"stock insuficiente: solicitado %s, disponible %s", "insufficient stock: requested %s, available %s"},
	NegativeBalance:       {"el saldo del medicamento %s quedaría negativo (%s)", "balance of medical %s would become negative (%s)"},
	WardDescriptionNeeded: {"la descripción es obligatoria si no hay paciente", "description is required when no patient is given"},
	WardQuantityNonZero:   {"la cantidad no puede ser cero", "quantity cannot be zero"},
	WardSameOrigin:        {"la sala de origen y destino no pueden ser la misma", "origin and destination ward must differ"},
	WardTransferPatient:   {"un traslado no puede asignarse a un paciente", "a transfer cannot be attributed to a patient"},
}

var cat = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.Spanish))
	for key, msg := range entries {
		_ = b.SetString(language.Spanish, key, msg[0])
		_ = b.SetString(language.English, key, msg[1])
	}
	return b
}

// Translator imprime mensajes en un idioma fijo.
type Translator struct {
	p *message.Printer
}

// New construye un traductor para el locale dado ("es", "en"); desconocido = español.
func New(locale string) *Translator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	matcher := language.NewMatcher([]language.Tag{language.Spanish, language.English})
	tag, _, _ = matcher.Match(tag)
	return &Translator{p: message.NewPrinter(tag, message.Catalog(cat))}
}

// T traduce la clave con sus argumentos. Los códigos numéricos se pasan como string
// para que el printer no les aplique separadores de miles.
func (t *Translator) T(key string, args ...any) string {
	return t.p.Sprintf(key, args...)
}
