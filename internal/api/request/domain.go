package request

type CreateDomain struct {
	Name string `json:"name" validate:"required,fqdn"`
}
