package allele

import "fmt"

// DB is an ordered allele collection indexed by equivalence class id.
// It is read-only after construction and safe for concurrent readers.
type DB struct {
	alleles []Allele
}

// NewDB creates a database holding a copy of alleles.
func NewDB(alleles []Allele) *DB {
	db := &DB{alleles: make([]Allele, len(alleles))}
	copy(db.alleles, alleles)
	return db
}

// BuildDB parses designations in order; designation i becomes class id i.
func BuildDB(p *Parser, designations []string) (*DB, error) {
	db := &DB{alleles: make([]Allele, 0, len(designations))}
	for i, d := range designations {
		a, err := p.Parse(d)
		if err != nil {
			return nil, fmt.Errorf("designation %d: %w", i, err)
		}
		db.alleles = append(db.alleles, a)
	}
	return db, nil
}

// Len returns the number of equivalence classes.
func (db *DB) Len() int { return len(db.alleles) }

// At returns the allele for class id. It panics if id is out of range.
func (db *DB) At(id int) Allele {
	db.check(id)
	return db.alleles[id]
}

func (db *DB) check(id int) {
	if id < 0 || id >= len(db.alleles) {
		panic(fmt.Sprintf("allele: equivalence class %d out of range [0, %d)", id, len(db.alleles)))
	}
}

// LowestCommonAllele returns the most specific allele shared by every class
// in ids. Levels are compared in order gene, f1, f2, f3, f4 and comparison
// stops at the first level where the alleles disagree or a field is missing.
// It returns false for an empty set or when the genes differ.
//
// Ids must be valid class ids; an out-of-range id panics.
func (db *DB) LowestCommonAllele(ids []int) (Allele, bool) {
	switch len(ids) {
	case 0:
		return Allele{}, false
	case 1:
		return db.At(ids[0]), true
	}

	for _, id := range ids {
		db.check(id)
	}

	first := db.alleles[ids[0]]
	for _, id := range ids[1:] {
		if db.alleles[id].gene != first.gene {
			return Allele{}, false
		}
	}

	common := Allele{gene: first.gene}
	for level := 0; level < first.depth; level++ {
		v := first.fields[level]
		for _, id := range ids[1:] {
			a := db.alleles[id]
			if level >= a.depth || a.fields[level] != v {
				return common, true
			}
		}
		common.fields[level] = v
		common.depth++
	}
	return common, true
}
