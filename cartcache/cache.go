// Package cartcache persists the cart record for this browser profile.
//
// The cache is a best-effort mirror, never the source of truth: callers
// see no I/O errors (failures are logged and swallowed), and Load drops
// any entry that does not survive validation, so a stale or corrupted
// on-device record can never desynchronize the cart badge from the
// actual line set.
package cartcache

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// recordVersion is written with every save. Records with an absent or
// zero version predate versioning and are read as v1.
const recordVersion = 1

// Line is one validated entry of the on-device cart record.
type Line struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

type recordLine struct {
	ProductID string      `json:"productId"`
	Quantity  json.Number `json:"quantity"`
	UnitPrice json.Number `json:"unitPrice"`
}

// Lines are decoded individually so one mangled entry drops that entry,
// not the whole record.
type loadedRecord struct {
	Version int               `json:"version"`
	Lines   []json.RawMessage `json:"lines"`
	Total   json.RawMessage   `json:"total"`
}

type savedRecord struct {
	Version int          `json:"version"`
	Lines   []recordLine `json:"lines"`
	Total   string       `json:"total"`
}

type Cache struct {
	path string
	log  logrus.FieldLogger
}

func New(path string, log logrus.FieldLogger) *Cache {
	return &Cache{path: path, log: log}
}

// Load reads the record and self-heals it: a line is kept only if its
// quantity parses as a positive integer and its unit price as a
// non-negative decimal. The stored total is never trusted. When no line
// survives, the whole record is dropped rather than kept as a shell.
func (c *Cache) Load() []Line {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.WithField("error", err).Warn("cart cache unreadable, starting empty")
		}
		return nil
	}

	var rec loadedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		c.log.WithField("error", err).Warn("cart cache corrupted, dropping record")
		return nil
	}

	lines := make([]Line, 0, len(rec.Lines))
	seen := make(map[string]bool, len(rec.Lines))
	for _, raw := range rec.Lines {
		var rl recordLine
		if err := json.Unmarshal(raw, &rl); err != nil {
			c.log.WithField("error", err).Debug("dropping undecodable cart line")
			continue
		}
		ln, ok := validateLine(rl)
		if !ok {
			c.log.WithField("productId", rl.ProductID).Debug("dropping invalid cart line")
			continue
		}
		if seen[ln.ProductID] {
			continue
		}
		seen[ln.ProductID] = true
		lines = append(lines, ln)
	}
	if len(lines) == 0 {
		return nil
	}
	return lines
}

func validateLine(rl recordLine) (Line, bool) {
	if rl.ProductID == "" {
		return Line{}, false
	}
	qty, err := strconv.Atoi(rl.Quantity.String())
	if err != nil || qty <= 0 {
		return Line{}, false
	}
	price, err := decimal.NewFromString(rl.UnitPrice.String())
	if err != nil || price.IsNegative() {
		return Line{}, false
	}
	return Line{ProductID: rl.ProductID, Quantity: qty, UnitPrice: price}, true
}

// Save replaces the record. The total is stored for inspection only;
// Load recomputes it from the lines.
func (c *Cache) Save(lines []Line, total decimal.Decimal) {
	rec := savedRecord{
		Version: recordVersion,
		Total:   total.String(),
		Lines:   make([]recordLine, 0, len(lines)),
	}
	for _, l := range lines {
		rec.Lines = append(rec.Lines, recordLine{
			ProductID: l.ProductID,
			Quantity:  json.Number(strconv.Itoa(l.Quantity)),
			UnitPrice: json.Number(l.UnitPrice.String()),
		})
	}

	data, err := json.Marshal(rec)
	if err != nil {
		c.log.WithField("error", err).Warn("cart cache encode failed")
		return
	}
	// Write-then-rename keeps the record whole even if the process dies
	// mid-write. Cross-tab interleaving stays last-writer-wins.
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		c.log.WithField("error", err).Warn("cart cache write failed")
		return
	}
	if err := os.Rename(tmp, c.path); err != nil {
		c.log.WithField("error", err).Warn("cart cache replace failed")
	}
}

// Clear removes the record entirely.
func (c *Cache) Clear() {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		c.log.WithField("error", err).Warn("cart cache remove failed")
	}
}
