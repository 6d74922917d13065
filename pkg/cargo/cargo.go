// Package cargo reads the static starbase cargo catalog: for every resource, the
// starbase-scoped cargo mint that wraps the canonical resource mint at that starbase.
package cargo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
)

// Entry is one (resource, starbase) pair of the flat layout.
type Entry struct {
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	Mint            string  `json:"mint"`
	ProgramID       string  `json:"program_id"`
	StarbaseName    string  `json:"starbase_name,omitempty"`
	StarbaseAddress string  `json:"starbase_address"`
	SeqID           int     `json:"seqId,omitempty"`
	CargoMint       string  `json:"cargoMint"`
	Sector          *Sector `json:"sector,omitempty"`
	Faction         string  `json:"faction,omitempty"`
}

type Sector struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Table is the compact layout: starbases as columns, resources as rows,
// each row carrying one cargo mint per column (null when the starbase has none).
type Table struct {
	Starbases []string   `json:"starbases"`
	Resources []Resource `json:"resources"`
}

type Resource struct {
	Mint       string    `json:"mint"`
	Name       string    `json:"name"`
	Symbol     string    `json:"symbol"`
	ProgramID  string    `json:"program_id"`
	CargoMints []*string `json:"cargoMints"`
}

var ErrUnknownLayout = errors.New("cargo file is neither a list of entries nor a table")

// ToTable groups entries by canonical mint, in order of first appearance, with cargo
// mints aligned to the sorted set of starbase addresses.
func ToTable(entries []Entry) Table {
	starbases := make([]string, 0)
	seen := make(map[string]struct{})
	for _, e := range entries {
		if _, ok := seen[e.StarbaseAddress]; ok {
			continue
		}
		seen[e.StarbaseAddress] = struct{}{}
		starbases = append(starbases, e.StarbaseAddress)
	}
	slices.Sort(starbases)

	column := make(map[string]int, len(starbases))
	for i, sb := range starbases {
		column[sb] = i
	}

	resources := make([]Resource, 0)
	row := make(map[string]int)
	for _, e := range entries {
		idx, ok := row[e.Mint]
		if !ok {
			idx = len(resources)
			row[e.Mint] = idx
			resources = append(resources, Resource{
				Mint:       e.Mint,
				Name:       e.Name,
				Symbol:     e.Symbol,
				ProgramID:  e.ProgramID,
				CargoMints: make([]*string, len(starbases)),
			})
		}
		if e.CargoMint == "" {
			continue
		}
		cm := e.CargoMint
		resources[idx].CargoMints[column[e.StarbaseAddress]] = &cm
	}

	return Table{Starbases: starbases, Resources: resources}
}

// Entries expands the table back into the flat layout, skipping empty cells.
// Fields the table does not carry (starbase name, sector, faction) are left zero.
func (t Table) Entries() []Entry {
	out := make([]Entry, 0)
	for _, r := range t.Resources {
		for i, cm := range r.CargoMints {
			if cm == nil || *cm == "" || i >= len(t.Starbases) {
				continue
			}
			out = append(out, Entry{
				Name:            r.Name,
				Symbol:          r.Symbol,
				Mint:            r.Mint,
				ProgramID:       r.ProgramID,
				StarbaseAddress: t.Starbases[i],
				CargoMint:       *cm,
			})
		}
	}
	return out
}

// Parse decodes either layout into flat entries.
func Parse(data []byte) ([]Entry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrUnknownLayout
	}
	switch trimmed[0] {
	case '[':
		var entries []Entry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("decode cargo entries: %w", err)
		}
		return entries, nil
	case '{':
		var t Table
		if err := json.Unmarshal(trimmed, &t); err != nil {
			return nil, fmt.Errorf("decode cargo table: %w", err)
		}
		if t.Starbases == nil && t.Resources == nil {
			return nil, ErrUnknownLayout
		}
		return t.Entries(), nil
	default:
		return nil, ErrUnknownLayout
	}
}

// Load reads and parses a cargo file.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cargo file: %w", err)
	}
	return Parse(data)
}
