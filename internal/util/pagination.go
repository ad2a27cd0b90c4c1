package util

const DefaultPageSize = 10

// Calculate clamps page/limit and returns the query offset. Limits above
// 100 fall back to the default.
func Calculate(page, limit int) (offset, size int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = DefaultPageSize
	}
	return (page - 1) * limit, limit
}

// TotalPages rounds the page count up.
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
