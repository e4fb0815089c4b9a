// Package pagination slices ordered collections into fixed-size pages.
// It never fails: any page parameter, numeric or not, resolves to a valid
// page of the collection.
package pagination

import "strconv"

// Page addresses one slice of an ordered collection. Offset and Limit are
// ready to be used in a database query.
type Page struct {
	Number     int  `json:"number"`
	Offset     int  `json:"-"`
	Limit      int  `json:"-"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Resolve turns a raw page query parameter into a valid Page for a collection
// of total items split into perPage-sized chunks. Non-numeric or missing input
// defaults to the first page; numeric input out of range is clamped to the
// nearest valid page. An empty collection still has one (empty) page.
func Resolve(param string, total, perPage int) Page {
	if perPage < 1 {
		perPage = 1
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	number, err := strconv.Atoi(param)
	if err != nil || number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}
	return Page{
		Number:     number,
		Offset:     (number - 1) * perPage,
		Limit:      perPage,
		TotalItems: total,
		TotalPages: totalPages,
		HasNext:    number < totalPages,
		HasPrev:    number > 1,
	}
}
