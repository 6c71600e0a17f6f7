package players

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Player is one directory record.
type Player struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Stats `yaml:",inline"`
}

// H2HRecord counts matches won by each side.
type H2HRecord struct {
	A     string `json:"a" yaml:"a"` // Player id
	B     string `json:"b" yaml:"b"`
	WinsA int    `json:"wins_a" yaml:"wins_a"`
	WinsB int    `json:"wins_b" yaml:"wins_b"`
}

type file struct {
	Players []Player    `json:"players" yaml:"players"`
	H2H     []H2HRecord `json:"h2h" yaml:"h2h"`
}

// FileDirectory is an in-memory Directory loaded from a JSON or YAML file.
// It is read-only after construction.
type FileDirectory struct {
	byName map[string]string
	stats  map[string]Stats
	names  []string
	h2h    map[[2]string][2]int
}

// LoadFile reads a directory file. Files ending in .yaml or .yml are parsed
// as YAML, anything else as JSON.
func LoadFile(path string) (*FileDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read player file: %w", err)
	}

	var f file
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse player file %s: %w", path, err)
	}

	return NewDirectory(f.Players, f.H2H)
}

// NewDirectory builds a directory from records. Ids and names must be
// unique.
func NewDirectory(players []Player, h2h []H2HRecord) (*FileDirectory, error) {
	d := &FileDirectory{
		byName: make(map[string]string, len(players)),
		stats:  make(map[string]Stats, len(players)),
		h2h:    make(map[[2]string][2]int, len(h2h)),
	}
	for _, p := range players {
		if p.ID == "" || strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("player %q: id and name are required", p.Name)
		}
		if _, dup := d.stats[p.ID]; dup {
			return nil, fmt.Errorf("duplicate player id %q", p.ID)
		}
		k := key(p.Name)
		if _, dup := d.byName[k]; dup {
			return nil, fmt.Errorf("duplicate player name %q", p.Name)
		}
		d.byName[k] = p.ID
		d.stats[p.ID] = p.Stats
		d.names = append(d.names, p.Name)
	}
	sort.Strings(d.names)

	for _, r := range h2h {
		a, b := d.h2h[[2]string{r.A, r.B}], d.h2h[[2]string{r.B, r.A}]
		d.h2h[[2]string{r.A, r.B}] = [2]int{a[0] + r.WinsA, a[1] + r.WinsB}
		d.h2h[[2]string{r.B, r.A}] = [2]int{b[0] + r.WinsB, b[1] + r.WinsA}
	}
	return d, nil
}

// FindPlayer does a case-insensitive lookup on the canonical name.
func (d *FileDirectory) FindPlayer(name string) (string, bool) {
	id, ok := d.byName[key(name)]
	return id, ok
}

func (d *FileDirectory) GetStats(id string) (Stats, bool) {
	s, ok := d.stats[id]
	return s, ok
}

// GetH2H returns (wins_a - wins_b) / matches, or 0 when they never met.
func (d *FileDirectory) GetH2H(a, b string) float64 {
	r := d.h2h[[2]string{a, b}]
	total := r[0] + r[1]
	if total == 0 {
		return 0
	}
	return float64(r[0]-r[1]) / float64(total)
}

func (d *FileDirectory) Names() []string {
	return append([]string(nil), d.names...)
}
