package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreferIPv4(t *testing.T) {
	ctx := context.Background()

	// IP literal: se conserva y se completa el puerto.
	assert.Equal(t, "postgres://u:p@127.0.0.1:5432/medstock?sslmode=disable",
		preferIPv4(ctx, "postgres://u:p@127.0.0.1/medstock?sslmode=disable"))

	// IPv6 literal: sin cambios.
	dsn := "postgres://u:p@[::1]:5432/medstock"
	assert.Equal(t, dsn, preferIPv4(ctx, dsn))

	// DSN clave=valor: sin host en formato URL, sin cambios.
	kv := "host=localhost port=5432 dbname=medstock"
	assert.Equal(t, kv, preferIPv4(ctx, kv))
}
