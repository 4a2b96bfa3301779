package helper

// Paginate clamps page/limit the way every list endpoint does and returns the offset.
func Paginate(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit, (page - 1) * limit
}

func TotalPages(totalData, limit int) int {
	if limit < 1 {
		return 0
	}
	return (totalData + limit - 1) / limit
}
