package structure

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// groScale converts between the nm units of the GRO format and the Å units
// used in memory.
const groScale = 10.0

// ReadGRO parses a GRO-format structure. Velocity columns, when present, are
// ignored. Only rectangular boxes are supported; a triclinic box line with
// non-zero off-diagonal vector components is an error.
func ReadGRO(r io.Reader) (*Model, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	if !sc.Scan() {
		return nil, fmt.Errorf("missing title line")
	}
	m := &Model{Title: strings.TrimSpace(sc.Text())}

	if !sc.Scan() {
		return nil, fmt.Errorf("missing atom count line")
	}
	n, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil {
		return nil, fmt.Errorf("invalid atom count %q: %w", sc.Text(), err)
	}

	m.Atoms = make([]Atom, 0, n)
	for i := 0; i < n; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("truncated file: expected %d atoms, got %d", n, i)
		}
		atom, err := parseGROAtom(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("atom line %d: %w", i+1, err)
		}
		m.Atoms = append(m.Atoms, atom)
	}

	if !sc.Scan() {
		return nil, fmt.Errorf("missing box line")
	}
	box, err := parseGROBox(sc.Text())
	if err != nil {
		return nil, err
	}
	m.Box = box
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseGROAtom(line string) (Atom, error) {
	if len(line) < 44 {
		return Atom{}, fmt.Errorf("line too short: %q", line)
	}
	resID, err := strconv.Atoi(strings.TrimSpace(line[0:5]))
	if err != nil {
		return Atom{}, fmt.Errorf("invalid residue number: %w", err)
	}
	a := Atom{
		ResID:   resID,
		Residue: strings.TrimSpace(line[5:10]),
		Name:    strings.TrimSpace(line[10:15]),
	}
	for ax := 0; ax < 3; ax++ {
		f, err := strconv.ParseFloat(strings.TrimSpace(line[20+8*ax:28+8*ax]), 64)
		if err != nil {
			return Atom{}, fmt.Errorf("invalid coordinate: %w", err)
		}
		a.Pos[ax] = f * groScale
	}
	return a, nil
}

func parseGROBox(line string) (Box, error) {
	fields := strings.Fields(line)
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Box{}, fmt.Errorf("invalid box value %q: %w", f, err)
		}
		vals[i] = v
	}
	switch len(vals) {
	case 3:
		return NewBox(vals[0]*groScale, vals[1]*groScale, vals[2]*groScale), nil
	case 9:
		for _, v := range vals[3:] {
			if v != 0 {
				return Box{}, fmt.Errorf("triclinic boxes are not supported")
			}
		}
		return NewBox(vals[0]*groScale, vals[1]*groScale, vals[2]*groScale), nil
	default:
		return Box{}, fmt.Errorf("invalid box line %q", line)
	}
}

// WriteGRO writes the model in GRO format. Atom and residue numbers wrap at
// the five-column field width, matching engine behavior for large systems.
func WriteGRO(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)
	title := m.Title
	if title == "" {
		title = "claybuild"
	}
	fmt.Fprintf(bw, "%s\n%d\n", title, len(m.Atoms))
	for i, a := range m.Atoms {
		fmt.Fprintf(bw, "%5d%-5s%5s%5d%8.3f%8.3f%8.3f\n",
			a.ResID%100000, a.Residue, a.Name, (i+1)%100000,
			a.Pos[0]/groScale, a.Pos[1]/groScale, a.Pos[2]/groScale)
	}
	fmt.Fprintf(bw, "%10.5f%10.5f%10.5f\n",
		m.Box.X/groScale, m.Box.Y/groScale, m.Box.Z/groScale)
	return bw.Flush()
}
