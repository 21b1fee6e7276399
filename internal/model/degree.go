package model

import (
	"encoding/json"
	"fmt"
)

// Degree is a registrant's field of study.
type Degree string

const (
	DTEK    Degree = "DTEK"
	DSIK    Degree = "DSIK"
	DVIT    Degree = "DVIT"
	BINF    Degree = "BINF"
	IMO     Degree = "IMO"
	IKT     Degree = "IKT"
	KOGNI   Degree = "KOGNI"
	INF     Degree = "INF"
	PROG    Degree = "PROG"
	ARMNINF Degree = "ARMNINF"
	POST    Degree = "POST"
	MISC    Degree = "MISC"
)

var degrees = map[Degree]bool{
	DTEK: true, DSIK: true, DVIT: true, BINF: true, IMO: true, IKT: true,
	KOGNI: true, INF: true, PROG: true, ARMNINF: true, POST: true, MISC: true,
}

func (d Degree) Valid() bool {
	return degrees[d]
}

// UnmarshalJSON rejects unknown degrees.
func (d *Degree) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if !Degree(s).Valid() {
		return fmt.Errorf("unknown degree %q", s)
	}
	*d = Degree(s)
	return nil
}

// Bachelor reports whether the degree is a bachelor programme (years 1-3).
func (d Degree) Bachelor() bool {
	switch d {
	case DTEK, DSIK, DVIT, BINF, IMO, IKT, KOGNI, ARMNINF:
		return true
	}
	return false
}

// Master reports whether the degree is a master programme (years 4-5).
func (d Degree) Master() bool {
	return d == INF || d == PROG
}
