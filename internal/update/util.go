package update

import "dayflow/internal/model"

func addDays(date string, n int) (string, error) {
	return model.AddDays(date, n)
}
