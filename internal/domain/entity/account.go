package entity

// OrganizationAccount identifica uma conta-membro da AWS Organization,
// usada para traduzir IDs de conta em nomes legíveis no relatório.
type OrganizationAccount struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
