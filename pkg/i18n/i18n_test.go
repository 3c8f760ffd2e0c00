package i18n_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/medstock-api/pkg/i18n"
)

func TestTranslator_Espanol(t *testing.T) {
	tr := i18n.New("es")
	assert.Equal(t, "la fecha del movimiento no puede ser futura", tr.T(i18n.DateInFuture))
	assert.Equal(t, "el número de referencia R1 ya fue utilizado", tr.T(i18n.RefNoUsed, "R1"))
}

func TestTranslator_Ingles(t *testing.T) {
	tr := i18n.New("en")
	assert.Equal(t, "lot code exceeds 50 characters", tr.T(i18n.LotCodeTooLong, 50))
}

func TestTranslator_LocaleDesconocidoUsaEspanol(t *testing.T) {
	tr := i18n.New("zz-invalido")
	assert.Equal(t, "el lote es obligatorio", tr.T(i18n.LotRequired))
}
