// Package catalogxml lee el catálogo hospitalario exportado en XML (medicamentos, tipos,
// salas, proveedores, pacientes y tipos de movimiento). Los exportes suelen venir en ISO-8859-1.
package catalogxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type document struct {
	XMLName       xml.Name          `xml:"catalogo"`
	MedicalTypes  []xmlMedicalType  `xml:"tipos>tipo"`
	Medicals      []xmlMedical      `xml:"medicamentos>medicamento"`
	Wards         []xmlWard         `xml:"salas>sala"`
	Suppliers     []xmlSupplier     `xml:"proveedores>proveedor"`
	Patients      []xmlPatient      `xml:"pacientes>paciente"`
	MovementTypes []xmlMovementType `xml:"movimientos>movimiento"`
}

type xmlMedicalType struct {
	Cod    string `xml:"cod,attr"`
	Nombre string `xml:"nombre,attr"`
}

type xmlMedical struct {
	Cod      string `xml:"cod,attr"`
	Tipo     string `xml:"tipo,attr"`
	Producto string `xml:"producto,attr"`
	Nombre   string `xml:"nombre,attr"`
	Piezas   string `xml:"piezas,attr"`
}

type xmlWard struct {
	Cod      string `xml:"cod,attr"`
	Nombre   string `xml:"nombre,attr"`
	Farmacia bool   `xml:"farmacia,attr"`
}

type xmlSupplier struct {
	ID     string `xml:"id,attr"`
	Nombre string `xml:"nombre,attr"`
}

type xmlPatient struct {
	Cod    string `xml:"cod,attr"`
	Nombre string `xml:"nombre,attr"`
}

type xmlMovementType struct {
	Cod    string `xml:"cod,attr"`
	Nombre string `xml:"nombre,attr"`
	Signo  string `xml:"signo,attr"`
}

// Catalog catálogo decodificado, ordenado por código.
type Catalog struct {
	MedicalTypes  []entity.MedicalType
	Medicals      []entity.Medical
	Wards         []entity.Ward
	Suppliers     []entity.Supplier
	Patients      []entity.Patient
	MovementTypes []entity.MovementType
}

// Sink destino de la carga (lo cumple memory.Catalog).
type Sink interface {
	AddMedicalType(entity.MedicalType)
	AddMedical(entity.Medical)
	AddWard(entity.Ward)
	AddSupplier(entity.Supplier)
	AddPatient(entity.Patient)
	AddMovementType(entity.MovementType)
}

// charsetReader acepta ISO-8859-1 y Windows-1252 además de UTF-8.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToUpper(strings.ReplaceAll(charset, "_", "-")) {
	case "ISO-8859-1", "ISO8859-1", "LATIN1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "WINDOWS-1252", "CP1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	case "UTF-8", "":
		return input, nil
	}
	return nil, fmt.Errorf("charset no soportado: %s", charset)
}

// Decode lee el XML. Las filas sin código o sin nombre se omiten; un código numérico
// mal formado es error.
func Decode(r io.Reader) (*Catalog, error) {
	var doc document
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decodificar catálogo: %w", err)
	}

	var c Catalog
	for _, t := range doc.MedicalTypes {
		if code, name := clean(t.Cod), clean(t.Nombre); code != "" && name != "" {
			c.MedicalTypes = append(c.MedicalTypes, entity.MedicalType{Code: code, Description: name})
		}
	}
	for _, m := range doc.Medicals {
		if clean(m.Cod) == "" || clean(m.Nombre) == "" {
			continue
		}
		code, err := parseInt(m.Cod, "medicamento")
		if err != nil {
			return nil, err
		}
		pcs := 1
		if p := clean(m.Piezas); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("medicamento %d: piezas inválido %q", code, p)
			}
			pcs = n
		}
		c.Medicals = append(c.Medicals, entity.Medical{
			Code:        code,
			TypeCode:    clean(m.Tipo),
			ProductCode: clean(m.Producto),
			Description: clean(m.Nombre),
			PcsPerPack:  pcs,
		})
	}
	for _, w := range doc.Wards {
		if code, name := clean(w.Cod), clean(w.Nombre); code != "" && name != "" {
			c.Wards = append(c.Wards, entity.Ward{Code: code, Description: name, IsPharmacy: w.Farmacia})
		}
	}
	for _, s := range doc.Suppliers {
		if clean(s.ID) == "" || clean(s.Nombre) == "" {
			continue
		}
		id, err := parseInt(s.ID, "proveedor")
		if err != nil {
			return nil, err
		}
		c.Suppliers = append(c.Suppliers, entity.Supplier{ID: id, Name: clean(s.Nombre)})
	}
	for _, p := range doc.Patients {
		if clean(p.Cod) == "" || clean(p.Nombre) == "" {
			continue
		}
		code, err := parseInt(p.Cod, "paciente")
		if err != nil {
			return nil, err
		}
		c.Patients = append(c.Patients, entity.Patient{Code: code, Name: clean(p.Nombre)})
	}
	for _, t := range doc.MovementTypes {
		code, sign := clean(t.Cod), clean(t.Signo)
		if code == "" {
			continue
		}
		if !strings.HasPrefix(sign, entity.MovementSignCharge) && !strings.HasPrefix(sign, entity.MovementSignDischarge) {
			return nil, fmt.Errorf("tipo de movimiento %s: signo inválido %q", code, sign)
		}
		c.MovementTypes = append(c.MovementTypes, entity.MovementType{Code: code, Description: clean(t.Nombre), Type: sign})
	}

	c.sort()
	return &c, nil
}

func (c *Catalog) sort() {
	sort.Slice(c.MedicalTypes, func(i, j int) bool { return c.MedicalTypes[i].Code < c.MedicalTypes[j].Code })
	sort.Slice(c.Medicals, func(i, j int) bool { return c.Medicals[i].Code < c.Medicals[j].Code })
	sort.Slice(c.Wards, func(i, j int) bool { return c.Wards[i].Code < c.Wards[j].Code })
	sort.Slice(c.Suppliers, func(i, j int) bool { return c.Suppliers[i].ID < c.Suppliers[j].ID })
	sort.Slice(c.Patients, func(i, j int) bool { return c.Patients[i].Code < c.Patients[j].Code })
	sort.Slice(c.MovementTypes, func(i, j int) bool { return c.MovementTypes[i].Code < c.MovementTypes[j].Code })
}

// Apply carga el catálogo en dst.
func (c *Catalog) Apply(dst Sink) {
	for _, t := range c.MedicalTypes {
		dst.AddMedicalType(t)
	}
	for _, m := range c.Medicals {
		dst.AddMedical(m)
	}
	for _, w := range c.Wards {
		dst.AddWard(w)
	}
	for _, s := range c.Suppliers {
		dst.AddSupplier(s)
	}
	for _, p := range c.Patients {
		dst.AddPatient(p)
	}
	for _, t := range c.MovementTypes {
		dst.AddMovementType(t)
	}
}

func clean(s string) string { return strings.TrimSpace(s) }

func parseInt(s, what string) (int64, error) {
	n, err := strconv.ParseInt(clean(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: código inválido %q", what, s)
	}
	return n, nil
}
