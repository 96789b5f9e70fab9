package dto

// CreditSummaryResponse aggregates the credit points of one lecturer.
type CreditSummaryResponse struct {
	DosenID    uint            `json:"dosenId"`
	TotalPak   float64         `json:"totalPak"`
	TotalCount int64           `json:"totalCount"`
	Families   []FamilySummary `json:"families"`
}

// FamilySummary totals one submission family.
type FamilySummary struct {
	Family     string            `json:"family"`
	TotalPak   float64           `json:"totalPak"`
	Count      int64             `json:"count"`
	Categories []CategorySummary `json:"categories"`
}

// CategorySummary totals one category.
type CategorySummary struct {
	Kategori string  `json:"kategori"`
	TotalPak float64 `json:"totalPak"`
	Count    int64   `json:"count"`
}
