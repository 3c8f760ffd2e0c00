// seed_catalog genera el script SQL que puebla los catálogos (tipos, medicamentos, salas,
// proveedores, pacientes y tipos de movimiento) a partir del XML exportado por el hospital.
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.xml] [salida.sql]
// Por defecto lee catalogo.xml del directorio actual y escribe scripts/seed_catalog.sql.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/medstock-api/internal/infrastructure/catalogxml"
)

func main() {
	xmlPath := "catalogo.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	outPath := filepath.Join(findModuleRoot(), "scripts", "seed_catalog.sql")
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}

	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	cat, err := catalogxml.Decode(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Crear directorio: %v\n", err)
		os.Exit(1)
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := cat.WriteSQL(out); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s (%d medicamentos, %d salas, %d tipos de movimiento)\n",
		outPath, len(cat.Medicals), len(cat.Wards), len(cat.MovementTypes))
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
