package services

import (
	"strings"
	"unicode"

	"naver-map-bookmarker/models"
	"naver-map-bookmarker/utils"
)

// Cleaner transforms RawPlaces into searchable Places.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean normalises whitespace in every row. Order is preserved, duplicates are
// kept and no row is dropped: a row with neither name nor address is passed
// through so the run can count it as a failure.
func (c *Cleaner) Clean(raw []*models.RawPlace) []*models.Place {
	result := make([]*models.Place, 0, len(raw))
	blank := 0

	for _, r := range raw {
		name := normaliseText(r.Name)
		address := normaliseText(r.Address)

		switch {
		case name == "" && address == "":
			blank++
			c.logger.Warn("[cleaner] Row %d has neither business name nor address, it will fail", r.Row)
		case name == "":
			c.logger.Warn("[cleaner] Row %d has no business name, searching by address only", r.Row)
		}

		result = append(result, &models.Place{
			Row:     r.Row,
			Name:    name,
			Address: address,
		})
	}

	if blank > 0 {
		c.logger.Info("[cleaner] Cleaned %d rows (%d blank)", len(result), blank)
	}
	return result
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
