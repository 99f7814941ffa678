package dto

// SeedCatalogRequest bulk loads colleges with their exam items.
type SeedCatalogRequest struct {
	Colleges []SeedCollege `json:"colleges" validate:"required,min=1,dive"`
}

// SeedCollege is one college in a seed payload. Item college ids are ignored
// and replaced by the resolved college.
type SeedCollege struct {
	Name  string                  `json:"name" validate:"required,min=2,max=100"`
	Items []ExamItemCreateRequest `json:"items"`
}

// SeedCatalogResponse reports what a seed run created.
type SeedCatalogResponse struct {
	CollegesCreated int `json:"colleges_created"`
	ItemsCreated    int `json:"items_created"`
}
