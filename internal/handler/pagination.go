package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaginationMeta defines the structure for pagination metadata.
type PaginationMeta struct {
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
}

// PaginatedResponse defines the structure for a paginated list of any type.
type PaginatedResponse[T any] struct {
	Data []T            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// pageParams reads and clamps the page/limit query parameters.
func pageParams(c *gin.Context) (page, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// paginate runs a counted, offset query and wraps the mapped results.
// The query must already carry its filters and ordering.
func paginate[M any, T any](query *gorm.DB, page, limit int, mapFn func(M) T) (*PaginatedResponse[T], error) {
	var totalItems int64
	if err := query.Session(&gorm.Session{}).Model(new(M)).Count(&totalItems).Error; err != nil {
		return nil, err
	}

	var rows []M
	offset := (page - 1) * limit
	if err := query.Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	data := make([]T, 0, len(rows))
	for _, row := range rows {
		data = append(data, mapFn(row))
	}

	return &PaginatedResponse[T]{
		Data: data,
		Meta: PaginationMeta{
			TotalItems:  totalItems,
			TotalPages:  (int(totalItems) + limit - 1) / limit,
			CurrentPage: page,
			PageSize:    limit,
		},
	}, nil
}
