package department

type DepartmentResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type DepartmentsResponse struct {
	Departments []DepartmentResponse `json:"departments"`
}
