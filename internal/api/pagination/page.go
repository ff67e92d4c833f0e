package pagination

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidPage = errors.New("invalid page")

// maxPage keeps the computed OFFSET well inside int range.
const maxPage = 100000

// ParsePage reads a 1-based page number from a query value. An empty value
// is page 1.
func ParsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 || page > maxPage {
		return 0, ErrInvalidPage
	}
	return page, nil
}

// PageOrFirst is ParsePage that treats bad input as page 1.
func PageOrFirst(raw string) int {
	page, err := ParsePage(raw)
	if err != nil {
		return 1
	}
	return page
}

// Links are the prev/next URLs rendered under a listing; empty means no link.
type Links struct {
	Page int
	Prev string
	Next string
}

func NewLinks(basePath string, page int, hasPrev, hasNext bool) Links {
	links := Links{Page: page}
	if hasPrev {
		links.Prev = pageURL(basePath, page-1)
	}
	if hasNext {
		links.Next = pageURL(basePath, page+1)
	}
	return links
}

func pageURL(basePath string, page int) string {
	if page <= 1 {
		return basePath
	}
	return fmt.Sprintf("%s?page=%d", basePath, page)
}
