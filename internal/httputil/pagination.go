package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Page bounds shared by the HTTP listing endpoints and the CLI listing commands.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 1000
)

// ValidatePage checks an offset/limit pair against the page bounds.
func ValidatePage(offset, limit int) error {
	if offset < 0 {
		return fmt.Errorf("offset must not be negative, got: %d", offset)
	}
	if limit < 1 || limit > MaxPageLimit {
		return fmt.Errorf("limit must be between 1 and %d, got: %d", MaxPageLimit, limit)
	}
	return nil
}

// ParsePagination reads the offset and limit query parameters, defaulting to 0 and
// DefaultPageLimit. On error both values are zero.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		return 0, 0, fmt.Errorf("offset must be an integer, got: %q", c.Query("offset"))
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageLimit)))
	if err != nil {
		return 0, 0, fmt.Errorf("limit must be an integer, got: %q", c.Query("limit"))
	}

	if err := ValidatePage(offset, limit); err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}
