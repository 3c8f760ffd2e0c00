package catalogxml

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteSQL escribe un script idempotente (INSERT ... ON CONFLICT) para poblar los catálogos.
func (c *Catalog) WriteSQL(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "-- Catálogos del libro de stock\n")
	fmt.Fprintf(bw, "-- %d tipos, %d medicamentos, %d salas, %d proveedores, %d pacientes, %d tipos de movimiento\n\n",
		len(c.MedicalTypes), len(c.Medicals), len(c.Wards), len(c.Suppliers), len(c.Patients), len(c.MovementTypes))

	if len(c.MedicalTypes) > 0 {
		rows := make([]string, len(c.MedicalTypes))
		for i, t := range c.MedicalTypes {
			rows[i] = fmt.Sprintf("(%s, %s)", quote(t.Code), quote(t.Description))
		}
		writeInsert(bw, "medical_types (code, description)", rows, "(code) DO UPDATE SET description = EXCLUDED.description")
	}
	if len(c.Medicals) > 0 {
		rows := make([]string, len(c.Medicals))
		for i, m := range c.Medicals {
			rows[i] = fmt.Sprintf("(%d, %s, %s, %s, %d)", m.Code, quote(m.TypeCode), nullable(m.ProductCode), quote(m.Description), m.PcsPerPack)
		}
		writeInsert(bw, "medicals (code, type_code, product_code, description, pcs_per_pack)", rows,
			"(code) DO UPDATE SET type_code = EXCLUDED.type_code, product_code = EXCLUDED.product_code, description = EXCLUDED.description, pcs_per_pack = EXCLUDED.pcs_per_pack")
	}
	if len(c.Wards) > 0 {
		rows := make([]string, len(c.Wards))
		for i, wd := range c.Wards {
			rows[i] = fmt.Sprintf("(%s, %s, %t)", quote(wd.Code), quote(wd.Description), wd.IsPharmacy)
		}
		writeInsert(bw, "wards (code, description, is_pharmacy)", rows,
			"(code) DO UPDATE SET description = EXCLUDED.description, is_pharmacy = EXCLUDED.is_pharmacy")
	}
	if len(c.Suppliers) > 0 {
		rows := make([]string, len(c.Suppliers))
		for i, s := range c.Suppliers {
			rows[i] = fmt.Sprintf("(%d, %s)", s.ID, quote(s.Name))
		}
		writeInsert(bw, "suppliers (id, name)", rows, "(id) DO UPDATE SET name = EXCLUDED.name")
	}
	if len(c.Patients) > 0 {
		rows := make([]string, len(c.Patients))
		for i, p := range c.Patients {
			rows[i] = fmt.Sprintf("(%d, %s)", p.Code, quote(p.Name))
		}
		writeInsert(bw, "patients (code, name)", rows, "(code) DO UPDATE SET name = EXCLUDED.name")
	}
	if len(c.MovementTypes) > 0 {
		rows := make([]string, len(c.MovementTypes))
		for i, t := range c.MovementTypes {
			rows[i] = fmt.Sprintf("(%s, %s, %s)", quote(t.Code), quote(t.Description), quote(t.Type))
		}
		writeInsert(bw, "movement_types (code, description, type)", rows,
			"(code) DO UPDATE SET description = EXCLUDED.description, type = EXCLUDED.type")
	}
	return bw.Flush()
}

func writeInsert(w io.Writer, target string, rows []string, conflict string) {
	fmt.Fprintf(w, "INSERT INTO %s VALUES\n  %s\nON CONFLICT %s;\n\n", target, strings.Join(rows, ",\n  "), conflict)
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func nullable(s string) string {
	if s == "" {
		return "NULL"
	}
	return quote(s)
}
