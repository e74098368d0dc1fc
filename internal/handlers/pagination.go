package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

type paginationMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func parsePagination(c *fiber.Ctx) (page, limit int) {
	page = 1
	if value, err := strconv.Atoi(c.Query("page")); err == nil && value > 0 {
		page = value
	}
	limit = defaultPageLimit
	if value, err := strconv.Atoi(c.Query("limit")); err == nil && value > 0 {
		limit = value
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
